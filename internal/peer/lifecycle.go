package peer

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Start launches event handling and the UIs, then signs in.
func (a *App) Start() {
	if a == nil {
		return
	}
	a.startOnce.Do(func() {
		rt := a.runtime
		go rt.HandleEvents(a.client.Events())
		go func() {
			select {
			case <-a.client.Done():
				log.Println("backend connection closed")
				a.requestQuit()
			case <-a.ctx.Done():
			}
		}()
		if a.tui != nil {
			go func() {
				if err := a.tui.Run(a.ctx); err != nil {
					log.Printf("tui error: %v", err)
				}
				a.requestQuit()
			}()
		}
		if a.Cfg.UseCLI {
			go rt.ReadCLIInput(os.Stdin)
		}

		ctx, cancel := context.WithTimeout(a.ctx, a.Cfg.Timeout)
		defer cancel()
		if _, err := rt.StartSession(ctx); err != nil {
			log.Printf("start session: %v", err)
			return
		}
		if a.Cfg.Relay != "" {
			if err := rt.ConnectRelay(ctx, a.Cfg.Relay); err != nil {
				log.Printf("connect relay: %v", err)
			}
		}
	})
}

// Shutdown closes the backend connection and the local store.
func (a *App) Shutdown() {
	if a == nil {
		return
	}
	a.shutdownOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		if a.client != nil {
			_ = a.client.Close()
		}
		if a.local != nil {
			_ = a.local.Close()
		}
		a.requestQuit()
	})
}

// WaitForShutdown blocks until an interrupt signal arrives or the app quits,
// then shuts down the peer gracefully.
func WaitForShutdown(app *App) {
	if app == nil {
		return
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-app.Done():
	}
	log.Println("shutting down...")
	app.Shutdown()
}
