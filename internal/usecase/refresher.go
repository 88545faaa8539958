package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"GoldPulse/internal/change"
	"GoldPulse/internal/domain/models"
	drepo "GoldPulse/internal/domain/repository"
	"GoldPulse/internal/projector"
	"GoldPulse/internal/series"
	"GoldPulse/internal/service/marketstatus"
	"GoldPulse/internal/status"
	"GoldPulse/pkg/logger"
)

// RefresherConfig fixes what is fetched and how periods are named.
type RefresherConfig struct {
	Currency   string
	Unit       string
	Periods    map[models.Period]time.Duration
	SinkBudget time.Duration
}

// Refresher runs one refresh cycle at a time or several concurrently; every cycle gets
// a monotonically increasing sequence id and only the newest result is shown.
type Refresher struct {
	cfg         RefresherConfig
	order       []models.Period
	fetcher     drepo.PriceFetcher
	statusSrc   drepo.MarketStatusSource
	statusCache *marketstatus.Cache
	classifier  *status.Classifier
	schedule    status.ScheduleFunc
	projector   *projector.Projector
	dashboard   *Dashboard
	sinks       []drepo.DisplaySink
	clock       drepo.Clock
	metrics     drepo.Metrics
	log         *logger.Logger

	seq atomic.Uint64

	lkgMu sync.Mutex
	lkg   lastKnownGood

	pubMu     sync.Mutex
	published uint64
}

type lastKnownGood struct {
	seq    uint64
	series models.Series
}

// RefresherDeps groups collaborators; nil StatusSource, Schedule and Sinks are allowed.
type RefresherDeps struct {
	Fetcher      drepo.PriceFetcher
	StatusSource drepo.MarketStatusSource
	StatusCache  *marketstatus.Cache
	Classifier   *status.Classifier
	Schedule     status.ScheduleFunc
	Projector    *projector.Projector
	Dashboard    *Dashboard
	Sinks        []drepo.DisplaySink
	Clock        drepo.Clock
	Metrics      drepo.Metrics
	Logger       *logger.Logger
}

func NewRefresher(cfg RefresherConfig, deps RefresherDeps) *Refresher {
	if len(cfg.Periods) == 0 {
		cfg.Periods = models.DefaultPeriods()
	}
	if cfg.SinkBudget <= 0 {
		cfg.SinkBudget = 5 * time.Second
	}
	r := &Refresher{
		cfg:         cfg,
		fetcher:     deps.Fetcher,
		statusSrc:   deps.StatusSource,
		statusCache: deps.StatusCache,
		classifier:  deps.Classifier,
		schedule:    deps.Schedule,
		projector:   deps.Projector,
		dashboard:   deps.Dashboard,
		sinks:       deps.Sinks,
		clock:       deps.Clock,
		metrics:     deps.Metrics,
		log:         deps.Logger,
	}
	if r.statusCache == nil {
		r.statusCache = marketstatus.NewCache(marketstatus.DefaultTTL)
	}
	if r.classifier == nil {
		r.classifier = status.NewClassifier(status.DefaultThresholds())
	}
	if r.projector == nil {
		r.projector = projector.New(time.Local, projector.DefaultMaxPoint)
	}
	if r.dashboard == nil {
		r.dashboard = NewDashboard()
	}
	if r.clock == nil {
		r.clock = drepo.SystemClock{}
	}
	if r.metrics == nil {
		r.metrics = drepo.NopMetrics{}
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	for _, p := range models.PeriodOrder {
		if _, ok := cfg.Periods[p]; ok {
			r.order = append(r.order, p)
		}
	}
	return r
}

// Dashboard exposes the shared display state.
func (r *Refresher) Dashboard() *Dashboard { return r.dashboard }

// RunCycle performs one refresh and reports whether its view was applied.
func (r *Refresher) RunCycle(ctx context.Context) (*models.DisplayView, bool) {
	seq := r.seq.Add(1)
	now := r.clock.Now()
	started := time.Now()

	remote := r.refreshStatus(ctx, now)

	batch := r.fetcher.FetchPeriods(ctx, r.cfg.Periods, now)
	for _, pf := range batch.Periods {
		r.metrics.RecordFetch(string(pf.Period), string(pf.Result.Outcome), string(pf.Result.Reason), pf.Result.Attempts)
		if pf.Result.Outcome == models.OutcomeError {
			r.log.Warn("period fetch failed",
				logger.String("period", string(pf.Period)),
				logger.String("reason", string(pf.Result.Reason)),
				logger.Int("attempts", pf.Result.Attempts),
				logger.Error(pf.Result.Err),
			)
		}
	}

	data := batch.Merged
	stale := false
	switch batch.Outcome {
	case models.OutcomeSuccess:
		r.remember(seq, data)
	case models.OutcomeError:
		if good, ok := r.lastGood(); ok {
			data, stale = good, true
		}
	}

	view := r.build(seq, now, data, remote, batch.Outcome, stale)
	applied := r.dashboard.Apply(&view)

	r.metrics.RecordCycle(string(batch.Outcome), applied, seq)
	r.metrics.RecordLatency("refresh_cycle", time.Since(started).Seconds())
	r.log.Info("refresh cycle finished",
		logger.Uint64("seq", seq),
		logger.String("outcome", string(batch.Outcome)),
		logger.Bool("applied", applied),
		logger.Bool("stale", stale),
		logger.Int("points", len(data)),
		logger.String("status", view.Status.Text),
	)

	if applied {
		if view.HasPrice {
			r.metrics.RecordLastPrice(view.Currency, view.Unit, view.Price)
		}
		r.publish(ctx, &view)
	}
	return &view, applied
}

func (r *Refresher) refreshStatus(ctx context.Context, now time.Time) *models.RemoteMarketStatus {
	if r.statusSrc == nil {
		return nil
	}
	remote, err := r.statusCache.Refresh(ctx, r.statusSrc, now)
	if err != nil {
		r.metrics.RecordError("market_status")
		r.log.Warn("market status refresh failed, keeping previous entry", logger.Error(err))
	}
	return remote
}

func (r *Refresher) build(seq uint64, now time.Time, data models.Series, remote *models.RemoteMarketStatus, outcome models.FetchOutcome, stale bool) models.DisplayView {
	latest := series.Latest(data)
	var latestTS *int64
	if latest != nil {
		ts := latest.Timestamp
		latestTS = &ts
	}

	changes := make(map[models.Period]*models.ChangeResult, len(r.order))
	for _, p := range r.order {
		changes[p] = change.ComputeChange(data, r.cfg.Periods[p], now)
	}

	return r.projector.Project(projector.Input{
		Sequence:    seq,
		GeneratedAt: now,
		Currency:    r.cfg.Currency,
		Unit:        r.cfg.Unit,
		Latest:      latest,
		Periods:     r.order,
		Changes:     changes,
		Status:      r.classifier.Classify(latestTS, now, remote, r.schedule),
		Series:      data,
		Outcome:     outcome,
		Stale:       stale,
	})
}

func (r *Refresher) remember(seq uint64, s models.Series) {
	r.lkgMu.Lock()
	defer r.lkgMu.Unlock()
	if seq > r.lkg.seq {
		r.lkg = lastKnownGood{seq: seq, series: s}
	}
}

func (r *Refresher) lastGood() (models.Series, bool) {
	r.lkgMu.Lock()
	defer r.lkgMu.Unlock()
	return r.lkg.series, len(r.lkg.series) > 0
}

// publish hands v to every sink. Views older than one already published are skipped
// so sinks never observe sequence ids going backwards. Sink errors are only logged.
func (r *Refresher) publish(ctx context.Context, v *models.DisplayView) {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	if v.Sequence <= r.published {
		return
	}
	r.published = v.Sequence

	for _, sink := range r.sinks {
		sctx, cancel := context.WithTimeout(ctx, r.cfg.SinkBudget)
		err := sink.PublishDisplay(sctx, v)
		cancel()
		r.metrics.RecordPublish(sink.Name(), err)
		if err != nil {
			r.log.Error("display sink publish failed",
				logger.String("sink", sink.Name()),
				logger.Uint64("seq", v.Sequence),
				logger.Error(err),
			)
		}
	}
}
