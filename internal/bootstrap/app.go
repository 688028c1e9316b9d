package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"p2p-social/internal/backendserver"
)

// App wraps the development backend HTTP server and its optional database.
type App struct {
	Cfg    *Config
	DB     *sql.DB
	Server *backendserver.Server
	logger zerolog.Logger
	srv    *http.Server
}

// NewApp wires the dependencies required to run the backend. With a database
// URL it connects through pgx and applies migrations.
func NewApp(ctx context.Context, cfg *Config) (*App, error) {
	logger := httplog.NewLogger("backend", httplog.Options{JSON: cfg.LogJSON})
	app := &App{Cfg: cfg, logger: logger}

	if cfg.DatabaseURL == "" {
		logger.Info().Msg("DATABASE_URL not set; running without PostgreSQL persistence")
	} else {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		if err := backendserver.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		app.DB = db
	}

	app.Server = backendserver.New(backendserver.Options{
		DB:       app.DB,
		Logger:   &logger,
		Host:     cfg.Host,
		BasePort: cfg.BasePort,
		RelayTTL: cfg.RelayTTL,
	})
	return app, nil
}

// Start begins serving requests in the background.
func (a *App) Start() error {
	a.srv = &http.Server{
		Addr:    a.Cfg.Addr,
		Handler: httplog.RequestLogger(a.logger)(a.Server.Router()),
	}

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal().Err(err).Msg("backend server stopped")
		}
	}()

	a.logger.Info().Str("addr", a.Cfg.Addr).Bool("persistent", a.DB != nil).Msg("backend listening")
	return nil
}

// Shutdown gracefully stops the HTTP server and closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	if a.srv != nil {
		err = a.srv.Shutdown(ctx)
	}
	if a.DB != nil {
		if cerr := a.DB.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// WaitForShutdown blocks on SIGINT/SIGTERM and then shuts down the app.
func WaitForShutdown(app *App) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	app.logger.Info().Msg("backend shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		app.logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
