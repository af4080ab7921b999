package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TradePulse/internal/domain/repository"
	mid "TradePulse/internal/middleware"
	"TradePulse/internal/usecase"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	applogger "TradePulse/pkg/logger"
	pkgqueue "TradePulse/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	logger    *applogger.Logger
	collector *usecase.Collector
	ticks     *mid.TickPipeline
	publisher repository.SignalPublisher
	rq        *pkgqueue.RedisQueue
	chClient  *pkgch.Client
	handler   xhttp.Handler

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	collector *usecase.Collector,
	ticks *mid.TickPipeline,
	publisher repository.SignalPublisher,
	rq *pkgqueue.RedisQueue,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		ticks:     ticks,
		publisher: publisher,
		rq:        rq,
		chClient:  chClient,
		handler:   handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.ticks != nil {
		a.ticks.Start(ctx)
	}

	if err := a.collector.Start(ctx); err != nil {
		a.logger.Error("collector start error", applogger.Error(err))
		return err
	}
	a.logger.Info("collector started",
		applogger.Strings("assets", a.cfg.Pipeline.Assets),
		applogger.Duration("interval", a.cfg.Pipeline.Interval),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.collector.Stop(); err != nil {
		a.logger.Warn("collector stop error", applogger.Error(err))
	}

	if a.ticks != nil {
		a.ticks.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("signal publisher close error", applogger.Error(err))
		}
	}

	if a.rq != nil {
		a.logger.RemoveCollector()
		if err := a.rq.Stop(shutdownCtx); err != nil {
			a.logger.Warn("queue stop error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
