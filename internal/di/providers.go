package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"GoldPulse/internal/domain/models"
	"GoldPulse/internal/domain/repository"
	"GoldPulse/internal/fetcher"
	"GoldPulse/internal/handler/api"
	"GoldPulse/internal/projector"
	internalrepo "GoldPulse/internal/repository"
	"GoldPulse/internal/scheduler"
	"GoldPulse/internal/service/cache"
	"GoldPulse/internal/service/goldorg"
	"GoldPulse/internal/service/marketstatus"
	svcmetrics "GoldPulse/internal/service/metrics"
	"GoldPulse/internal/service/ratelimit"
	"GoldPulse/internal/service/stream"
	"GoldPulse/internal/status"
	"GoldPulse/internal/usecase"
	"GoldPulse/pkg/config"
	xhttp "GoldPulse/pkg/http"
	pkgkafka "GoldPulse/pkg/kafka"
	"GoldPulse/pkg/logger"
	"GoldPulse/pkg/metrics"
	"GoldPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "goldpulse",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op when metrics are off.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NopMetrics{}
	}
	svcmetrics.Register()
	return metrics.New()
}

// ProvideHTTPClient creates the outbound client shared by all upstreams.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Proxy.Timeout),
		xhttp.WithUserAgent(cfg.Fetcher.UserAgent),
	)
}

// ProvideKafkaProducer creates a Kafka producer when Kafka is enabled and hooks the
// logger's error digest to it. Returns nil otherwise.
func ProvideKafkaProducer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithBatchTimeout(50*time.Millisecond),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	if cfg.Kafka.LogTopic != "" {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval: time.Minute,
			Topic:        cfg.Kafka.LogTopic,
			Publisher:    producer,
		})
	}
	return producer, nil
}

// ProvideFetcher creates the primary price fetcher.
func ProvideFetcher(cfg *config.Config, client *xhttp.Client, log *logger.Logger) repository.PriceFetcher {
	return fetcher.New(fetcher.Config{
		Endpoint:       cfg.Fetcher.PriceEndpoint,
		Currency:       cfg.Fetcher.Currency,
		Unit:           cfg.Fetcher.Unit,
		MaxAttempts:    cfg.Fetcher.MaxAttempts,
		Backoff:        cfg.Fetcher.Backoff,
		AttemptTimeout: cfg.Fetcher.AttemptTimeout,
		FallbackWindow: cfg.Fetcher.FallbackWindow,
	}, client, log)
}

// ProvideStatusSource returns the remote market-status client, or a nil interface when disabled.
func ProvideStatusSource(cfg *config.Config, client *xhttp.Client) repository.MarketStatusSource {
	if !cfg.Status.Remote.Enabled {
		return nil
	}
	return marketstatus.NewClient(marketstatus.Config{
		Endpoint:   cfg.Status.Remote.Endpoint,
		APIKey:     cfg.Status.Remote.APIKey,
		MarketType: cfg.Status.Remote.MarketType,
		Timeout:    cfg.Status.Remote.Timeout,
	}, client)
}

func ProvideStatusCache(cfg *config.Config) *marketstatus.Cache {
	return marketstatus.NewCache(cfg.Status.Remote.TTL)
}

func ProvideClassifier(cfg *config.Config) *status.Classifier {
	return status.NewClassifier(status.Thresholds{
		StaleWithRemote: cfg.Status.StaleWithRemote,
		Stale:           cfg.Status.Stale,
		Closed:          cfg.Status.Closed,
	})
}

// ProvideSchedule returns the exchange calendar check, or nil when disabled.
func ProvideSchedule(cfg *config.Config) (status.ScheduleFunc, error) {
	sc := cfg.Status.Schedule
	if !sc.Enabled {
		return nil, nil
	}
	s, err := status.NewSchedule(sc.Timezone, sc.WeekOpenMinute, sc.WeekCloseMinute, sc.MaintenanceStartMinute, sc.MaintenanceEndMinute)
	if err != nil {
		return nil, fmt.Errorf("status schedule: %w", err)
	}
	return s.Func(), nil
}

// ProvideProjector creates the projector in the viewer's timezone.
func ProvideProjector(cfg *config.Config) (*projector.Projector, error) {
	loc, err := time.LoadLocation(cfg.Display.Timezone)
	if err != nil {
		return nil, fmt.Errorf("display timezone: %w", err)
	}
	return projector.New(loc, cfg.Display.ChartMaxPoints), nil
}

func ProvideDashboard() *usecase.Dashboard {
	return usecase.NewDashboard()
}

func ProvideHub(cfg *config.Config, log *logger.Logger) *stream.Hub {
	return stream.NewHub(stream.Config{
		PingInterval: cfg.Stream.PingInterval,
		ClientBuffer: cfg.Stream.ClientBuffer,
	}, log)
}

// ProvideSinks lists the outputs that receive every applied view.
func ProvideSinks(cfg *config.Config, hub *stream.Hub, producer *pkgkafka.Producer) []repository.DisplaySink {
	var sinks []repository.DisplaySink
	if cfg.Stream.Enabled {
		sinks = append(sinks, hub)
	}
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaDisplayPublisher(producer, cfg.Kafka.DisplayTopic))
	}
	return sinks
}

// ProvideRefresher creates the refresh cycle use case.
func ProvideRefresher(
	cfg *config.Config,
	f repository.PriceFetcher,
	src repository.MarketStatusSource,
	statusCache *marketstatus.Cache,
	classifier *status.Classifier,
	schedule status.ScheduleFunc,
	proj *projector.Projector,
	dashboard *usecase.Dashboard,
	sinks []repository.DisplaySink,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Refresher {
	return usecase.NewRefresher(usecase.RefresherConfig{
		Currency: cfg.Fetcher.Currency,
		Unit:     cfg.Fetcher.Unit,
		Periods: map[models.Period]time.Duration{
			models.PeriodDay:   cfg.Periods.Day,
			models.PeriodWeek:  cfg.Periods.Week,
			models.PeriodMonth: cfg.Periods.Month,
		},
	}, usecase.RefresherDeps{
		Fetcher:      f,
		StatusSource: src,
		StatusCache:  statusCache,
		Classifier:   classifier,
		Schedule:     schedule,
		Projector:    proj,
		Dashboard:    dashboard,
		Sinks:        sinks,
		Clock:        repository.SystemClock{},
		Metrics:      m,
		Logger:       log,
	})
}

// ProvideBytesCache creates the proxy response cache (in-process or Redis).
func ProvideBytesCache(cfg *config.Config, log *logger.Logger) (cache.BytesCache, error) {
	if cfg.Cache.Backend != "redis" {
		return cache.NewTTLCache(), nil
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, err
	}
	log.Info("redis cache connected", logger.String("addr", cfg.Cache.Redis.Addr))
	return rc, nil
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Proxy.RateCapacity, cfg.Proxy.RatePerSecond)
}

// ProvideProxy creates the edge proxy use case, or nil when the proxy is disabled.
func ProvideProxy(cfg *config.Config, client *xhttp.Client, c cache.BytesCache, log *logger.Logger) *usecase.PriceProxy {
	if !cfg.Proxy.Enabled {
		return nil
	}
	return usecase.NewPriceProxy(usecase.ProxyConfig{
		FallbackWindow: cfg.Proxy.FallbackWindow,
		DefaultWindow:  cfg.Proxy.DefaultWindow,
		CacheTTL:       cfg.Proxy.CacheTTL,
		Timeout:        cfg.Proxy.Timeout,
	}, goldorg.NewClient(cfg.Proxy.UpstreamBaseURL, client), c, repository.SystemClock{}, log)
}

// ProvideHandler creates the HTTP route set.
func ProvideHandler(cfg *config.Config, log *logger.Logger, proxy *usecase.PriceProxy, dashboard *usecase.Dashboard, limiter *ratelimit.Limiter, hub *stream.Hub) xhttp.Handler {
	var ws http.Handler
	if cfg.Stream.Enabled {
		ws = hub
	}
	return api.NewPriceEchoHandler(log, proxy, dashboard, limiter, ws)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, log *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(log),
	)
}

// ProvideScheduler drives the refresher and sweeps idle rate-limit buckets.
func ProvideScheduler(cfg *config.Config, r *usecase.Refresher, limiter *ratelimit.Limiter, log *logger.Logger) (*scheduler.Scheduler, error) {
	s, err := scheduler.New(cfg.Refresh.Interval, scheduler.JobFunc(func(ctx context.Context) {
		r.RunCycle(ctx)
	}), log)
	if err != nil {
		return nil, err
	}
	if err := s.Every(5*time.Minute, "ratelimit sweep", func() {
		if n := limiter.Sweep(10 * time.Minute); n > 0 {
			log.Debug("rate limit buckets swept", logger.Int("removed", n))
		}
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideApp creates the application lifecycle.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	hub *stream.Hub,
	producer *pkgkafka.Producer,
	c cache.BytesCache,
) *server.App {
	return server.New(cfg, log, httpServer, sched, hub, producer, c)
}
