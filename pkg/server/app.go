package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"GammaPull/internal/domain/repository"
	"GammaPull/internal/services/stream"
	"GammaPull/internal/usecase"
	pkgch "GammaPull/pkg/clickhouse"
	"GammaPull/pkg/config"
	xhttp "GammaPull/pkg/http"
	applogger "GammaPull/pkg/logger"
)

// App encapsulates the application lifecycle: the scan loop, the optional
// trade stream, the read API server, and infrastructure clients.
type App struct {
	cfg        *config.Config
	runner     *usecase.ScanRunner
	feed       *stream.Feed
	handler    xhttp.Handler
	chClient   *pkgch.Client
	pub        repository.Publisher
	log        *applogger.Logger
	httpServer *xhttp.Server
}

// New creates an App with all dependencies.
func New(
	cfg *config.Config,
	runner *usecase.ScanRunner,
	feed *stream.Feed,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	pub repository.Publisher,
	log *applogger.Logger,
) *App {
	return &App{
		cfg:      cfg,
		runner:   runner,
		feed:     feed,
		handler:  handler,
		chClient: chClient,
		pub:      pub,
		log:      log,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.feed != nil {
		a.feed.Start(ctx)
		a.log.Info("trade stream started",
			applogger.Strings("tickers", a.cfg.Scan.Tickers))
	}

	go a.runner.Run(ctx, a.cfg.Scan.RunOnStart)
	a.log.Info("scan loop started",
		applogger.Strings("tickers", a.cfg.Scan.Tickers),
		applogger.Int("workers", a.cfg.Scan.Workers),
		applogger.Duration("interval", a.cfg.Scan.Interval))

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.feed != nil {
		a.feed.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Warn("http shutdown error", applogger.Error(err))
		}
	}

	if err := a.pub.Close(); err != nil {
		a.log.Warn("publisher close error", applogger.Error(err))
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
