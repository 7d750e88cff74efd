package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"chatdb/internal/reportcron"
	"chatdb/pkg/banner"
	"chatdb/pkg/config"
	"chatdb/pkg/logger"
	"chatdb/pkg/messages"
	"chatdb/pkg/reports"
	"chatdb/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	msgs   *messages.Repo
	engine *reports.Engine

	srv        *http.Server
	cronCancel context.CancelFunc

	limiterOnce sync.Once
	limiters    *limiterPool
}

// New opens the store, declares indexes and builds the repositories. It does
// not start the HTTP server or the report scheduler; call Run to start those
// and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	uri := eff.URI
	if uri == "" {
		uri = eff.Config.Storage.URI
	}
	if uri == "" {
		return nil, fmt.Errorf("no document store URI configured")
	}

	if err := store.Open(uri, eff.Config.DatabaseName()); err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	msgs := messages.New()
	if err := msgs.EnsureIndexes(context.Background()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to declare indexes: %w", err)
	}
	logger.Info("indexes_ensured", "collection", store.MessagesCollection)

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		msgs:      msgs,
		engine:    reports.NewEngine(msgs),
	}
	return a, nil
}

// Messages exposes the message repository.
func (a *App) Messages() *messages.Repo { return a.msgs }

// Reports exposes the reporting engine.
func (a *App) Reports() *reports.Engine { return a.engine }

// Run starts the report scheduler and the ops HTTP server, and blocks until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	cancel, err := reportcron.Start(ctx, a.eff.Config.Reports, a.engine)
	if err != nil {
		return err
	}
	a.cronCancel = cancel

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Close shuts down the scheduler, HTTP server and store.
func (a *App) Close() {
	if a.cronCancel != nil {
		a.cronCancel()
	}
	if a.srv != nil {
		_ = a.srv.Shutdown(context.Background())
	}
	if err := store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
}

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.eff, verStr)
}
