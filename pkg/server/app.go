package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "fluxcast/internal/domain/repository"
	pkgch "fluxcast/pkg/clickhouse"
	"fluxcast/pkg/config"
	xhttp "fluxcast/pkg/http"
	applogger "fluxcast/pkg/logger"
)

// App encapsulates the application lifecycle: HTTP server in front,
// ClickHouse and optional Kafka behind.
type App struct {
	cfg        *config.Config
	handler    xhttp.Handler
	chClient   *pkgch.Client
	publisher  domrepo.ForecastPublisher
	l          *applogger.Logger
	httpServer *xhttp.Server
}

// New creates the application. Publisher may be nil when Kafka is
// disabled.
func New(
	cfg *config.Config,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	publisher domrepo.ForecastPublisher,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		handler:   handler,
		chClient:  chClient,
		publisher: publisher,
		l:         l,
	}
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("forecast service started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Bool("kafka", a.publisher != nil),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops the HTTP server first so no new runs start, then
// closes the publisher and finally ClickHouse.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
