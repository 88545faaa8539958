package server

import (
	"context"
	"io"
	"time"

	"GoldPulse/internal/scheduler"
	"GoldPulse/internal/service/cache"
	"GoldPulse/internal/service/stream"
	"GoldPulse/pkg/config"
	xhttp "GoldPulse/pkg/http"
	pkgkafka "GoldPulse/pkg/kafka"
	applogger "GoldPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	hub        *stream.Hub
	producer   *pkgkafka.Producer
	cache      cache.BytesCache
}

// New creates a new App instance with all dependencies. producer may be nil.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	hub *stream.Hub,
	producer *pkgkafka.Producer,
	responses cache.BytesCache,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		scheduler:  sched,
		hub:        hub,
		producer:   producer,
		cache:      responses,
	}
}

// Run starts the HTTP server and the refresh scheduler, then blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.scheduler.Start()
	a.log.Info("goldpulse started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("currency", a.cfg.Fetcher.Currency),
		applogger.String("unit", a.cfg.Fetcher.Unit),
		applogger.Duration("interval", a.cfg.Refresh.Interval),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()

	// Stop producing views before closing their sinks
	if err := a.scheduler.Stop(ctx); err != nil {
		a.log.Warn("scheduler stop error", applogger.Error(err))
	}

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.hub != nil {
		a.hub.Close()
	}

	// Flush the error digest while the producer is still open
	a.log.RemoveCollector()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if c, ok := a.cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
