package peer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"p2p-social/internal/backend"
	"p2p-social/internal/directory"
	"p2p-social/internal/message"
	"p2p-social/internal/protocol"
	"p2p-social/internal/storage"
	"p2p-social/internal/ui"
)

// App encapsulates the client components: the backend connection, the local
// store and the runtime that ties them to the UIs.
type App struct {
	Cfg     *Config
	Session message.Session

	ctx    context.Context
	cancel context.CancelFunc

	client  *backend.Client
	local   *storage.LocalStore
	runtime *protocol.Runtime
	tui     *ui.TUIDisplay

	startOnce    sync.Once
	shutdownOnce sync.Once
	quitOnce     sync.Once
	done         chan struct{}
}

// NewApp opens the local store, obtains a session from the backend and
// connects its websocket.
func NewApp(cfg *Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{Cfg: cfg, ctx: ctx, cancel: cancel, done: make(chan struct{})}

	dir := directory.New()
	blocklist := directory.NewBlockList()
	local, err := storage.OpenLocalStore(cfg.LocalDB)
	if err != nil {
		log.Printf("local db unavailable (%v), nicknames and blocks will not persist", err)
	} else {
		app.local = local
		loadLocalState(local, dir, blocklist)
	}

	sess, err := app.openSession(cfg.Token)
	if err != nil {
		app.Shutdown()
		return nil, err
	}
	app.Session = sess

	client, err := backend.Dial(ctx, backend.WebsocketURL(cfg.BackendURL), sess.Token, backend.Options{})
	if err != nil {
		app.Shutdown()
		return nil, err
	}
	app.client = client

	var sinks []ui.Sink
	if cfg.UseCLI {
		sinks = append(sinks, ui.NewCLIDisplay(ui.ShouldUseColor(cfg.NoColor)))
	}
	if cfg.UseTUI {
		app.tui = ui.NewTUIDisplay(func(line string) { app.runtime.ProcessLine(line) })
		sinks = append(sinks, app.tui)
	}

	var persist protocol.LocalStore
	if app.local != nil {
		persist = app.local
	}
	app.runtime = protocol.NewRuntime(ctx, protocol.RuntimeOptions{
		Backend:        client,
		Directory:      dir,
		Blocklist:      blocklist,
		Local:          persist,
		Sink:           ui.NewMultiSink(sinks...),
		RequestTimeout: cfg.Timeout,
		Quit:           app.requestQuit,
		Self:           message.MyInfo{PeerID: sess.PeerID, Multiaddr: sess.Multiaddr},
	})
	if app.tui != nil {
		app.tui.SetPeerActions(app.runtime)
	}
	return app, nil
}

// Runtime exposes the client runtime.
func (a *App) Runtime() *protocol.Runtime { return a.runtime }

// Done is closed when the user quits or the backend connection ends.
func (a *App) Done() <-chan struct{} { return a.done }

// openSession renews token when one is known, falling back to a fresh
// identity when the backend rejects it. The token in use is written back to
// the token file.
func (a *App) openSession(token string) (message.Session, error) {
	if token == "" {
		token = readToken(a.Cfg.TokenFile)
	}
	httpClient := &http.Client{Timeout: a.Cfg.Timeout}
	sess, err := backend.OpenSession(a.ctx, httpClient, a.Cfg.BackendURL, token)
	if err != nil && token != "" {
		log.Printf("stored session rejected (%v), requesting a new identity", err)
		sess, err = backend.OpenSession(a.ctx, httpClient, a.Cfg.BackendURL, "")
	}
	if err != nil {
		return message.Session{}, err
	}
	if a.Cfg.TokenFile != "" {
		if err := os.WriteFile(a.Cfg.TokenFile, []byte(sess.Token+"\n"), 0o600); err != nil {
			log.Printf("save session token: %v", err)
		}
	}
	return sess, nil
}

func (a *App) requestQuit() {
	a.quitOnce.Do(func() { close(a.done) })
}

func readToken(path string) string {
	if path == "" {
		return ""
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("read session token: %v", err)
		}
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func loadLocalState(local *storage.LocalStore, dir *directory.Directory, blocklist *directory.BlockList) {
	names, err := local.Nicknames()
	if err != nil {
		log.Printf("load nicknames: %v", err)
	}
	for peer, name := range names {
		dir.SetNickname(peer, name)
	}
	blocked, err := local.Blocked()
	if err != nil {
		log.Printf("load block list: %v", err)
	}
	for _, peer := range blocked {
		blocklist.Add(peer)
	}
}

func (a *App) String() string {
	return fmt.Sprintf("%s (%s)", a.Session.PeerID, a.Session.Multiaddr)
}
