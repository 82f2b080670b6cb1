package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"BrentPulse/internal/handler/ws"
	"BrentPulse/internal/usecase"
	"BrentPulse/pkg/config"
	xhttp "BrentPulse/pkg/http"
	applogger "BrentPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	refresher  *usecase.Refresher
	httpServer *xhttp.Server
	hub        *ws.Hub
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	refresher *usecase.Refresher,
	httpServer *xhttp.Server,
	hub *ws.Hub,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		refresher:  refresher,
		httpServer: httpServer,
		hub:        hub,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the refresher first so the API is ready as early as possible
	if err := a.refresher.Start(ctx); err != nil {
		return fmt.Errorf("start refresher: %w", err)
	}
	a.l.Info("refresher started",
		applogger.String("source", a.cfg.Source.Type),
		applogger.String("symbol", a.cfg.Source.Symbol),
		applogger.Duration("interval_ms", a.cfg.Analysis.RefreshInterval),
	)

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	a.hub.Close()

	// flush the error digest while the producer is still open
	a.l.RemoveCollector()

	// Stop refresher (loop, watcher, phase publisher)
	if err := a.refresher.Stop(); err != nil {
		a.l.Warn("refresher stop error", applogger.Error(err))
	}

	a.l.Info("shutdown complete")
	return nil
}
