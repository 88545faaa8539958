package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"GoldPulse/internal/domain/models"
	"GoldPulse/internal/fetcher"
	"GoldPulse/internal/projector"
	"GoldPulse/internal/service/marketstatus"
	"GoldPulse/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// scriptedFetcher returns queued batches; a call may be held until its gate closes.
type scriptedFetcher struct {
	mu      sync.Mutex
	batches []models.FetchBatch
	gates   []chan struct{}
	calls   int
}

func (f *scriptedFetcher) FetchPeriods(_ context.Context, _ map[models.Period]time.Duration, _ time.Time) models.FetchBatch {
	f.mu.Lock()
	i := f.calls
	f.calls++
	var gate chan struct{}
	if i < len(f.gates) {
		gate = f.gates[i]
	}
	b := f.batches[i]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return b
}

type captureSink struct {
	mu    sync.Mutex
	views []*models.DisplayView
	err   error
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) PublishDisplay(_ context.Context, v *models.DisplayView) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, v)
	return s.err
}

type countingStatus struct {
	calls int
	st    *models.RemoteMarketStatus
	err   error
}

func (c *countingStatus) Fetch(context.Context) (*models.RemoteMarketStatus, error) {
	c.calls++
	return c.st, c.err
}

var t0 = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) // Wednesday

func ms(t time.Time) int64 { return t.UnixMilli() }

func success(s models.Series) models.FetchBatch {
	return fetcher.Join([]models.PeriodFetch{
		{Period: models.PeriodDay, Result: models.FetchResult{Outcome: models.OutcomeSuccess, Series: s}},
	})
}

func failure() models.FetchBatch {
	return fetcher.Join([]models.PeriodFetch{
		{Period: models.PeriodDay, Result: models.FetchResult{Outcome: models.OutcomeError, Reason: models.ReasonFetchFailed, Err: errors.New("503")}},
	})
}

func newRefresher(f *scriptedFetcher, clock *fakeClock, sinks ...*captureSink) *Refresher {
	deps := RefresherDeps{
		Fetcher:    f,
		Classifier: status.NewClassifier(status.DefaultThresholds()),
		Projector:  projector.New(time.UTC, 240),
		Dashboard:  NewDashboard(),
		Clock:      clock,
	}
	for _, s := range sinks {
		deps.Sinks = append(deps.Sinks, s)
	}
	return NewRefresher(RefresherConfig{Currency: "cny", Unit: "grams", Periods: models.DefaultPeriods()}, deps)
}

func TestRunCycleAppliesAndPublishes(t *testing.T) {
	clock := &fakeClock{t: t0}
	s := models.Series{
		{Timestamp: ms(t0.Add(-25 * time.Hour)), Price: 600},
		{Timestamp: ms(t0.Add(-time.Minute)), Price: 612},
	}
	sink := &captureSink{}
	r := newRefresher(&scriptedFetcher{batches: []models.FetchBatch{success(s)}}, clock, sink)

	view, applied := r.RunCycle(context.Background())

	require.True(t, applied)
	assert.Equal(t, uint64(1), view.Sequence)
	assert.Equal(t, "612.00 CNY/g", view.PriceText)
	assert.Equal(t, status.TextActive, view.Status.Text)
	require.Len(t, view.Changes, 3)
	assert.Equal(t, "+12.00", view.Changes[0].ValueText)
	assert.Equal(t, "+2.00%", view.Changes[0].PercentText)
	assert.False(t, view.StaleData)

	cur, ok := r.Dashboard().Current()
	require.True(t, ok)
	assert.Same(t, view, cur)
	require.Len(t, sink.views, 1)
	assert.Equal(t, uint64(1), sink.views[0].Sequence)
}

func TestRunCycleDiscardsStaleSequence(t *testing.T) {
	clock := &fakeClock{t: t0}
	slow := make(chan struct{})
	f := &scriptedFetcher{
		batches: []models.FetchBatch{
			success(models.Series{{Timestamp: ms(t0.Add(-2 * time.Minute)), Price: 500}}),
			success(models.Series{{Timestamp: ms(t0.Add(-time.Minute)), Price: 600}}),
		},
		gates: []chan struct{}{slow, nil},
	}
	sink := &captureSink{}
	r := newRefresher(f, clock, sink)

	type result struct {
		view    *models.DisplayView
		applied bool
	}
	first := make(chan result, 1)
	go func() {
		v, a := r.RunCycle(context.Background())
		first <- result{v, a}
	}()
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.calls == 1
	}, time.Second, time.Millisecond)

	second, applied := r.RunCycle(context.Background())
	require.True(t, applied)
	assert.Equal(t, uint64(2), second.Sequence)

	close(slow)
	late := <-first
	assert.Equal(t, uint64(1), late.view.Sequence)
	assert.False(t, late.applied, "older cycle must not overwrite newer view")

	cur, _ := r.Dashboard().Current()
	assert.Equal(t, 600.0, cur.Price)
	require.Len(t, sink.views, 1)
	assert.Equal(t, uint64(2), sink.views[0].Sequence)
}

func TestRunCycleErrorReusesLastKnownGood(t *testing.T) {
	clock := &fakeClock{t: t0}
	good := models.Series{{Timestamp: ms(t0.Add(-time.Minute)), Price: 612}}
	r := newRefresher(&scriptedFetcher{batches: []models.FetchBatch{success(good), failure()}}, clock)

	_, applied := r.RunCycle(context.Background())
	require.True(t, applied)

	clock.Advance(20 * time.Minute)
	view, applied := r.RunCycle(context.Background())

	require.True(t, applied)
	assert.True(t, view.StaleData)
	assert.True(t, view.HasPrice)
	assert.Equal(t, 612.0, view.Price)
	assert.Equal(t, models.OutcomeError, view.Outcome)
	assert.Equal(t, status.TextDelayed, view.Status.Text, "status is recomputed against the new now")
}

func TestRunCycleErrorWithoutHistoryShowsFailure(t *testing.T) {
	r := newRefresher(&scriptedFetcher{batches: []models.FetchBatch{failure()}}, &fakeClock{t: t0})

	view, applied := r.RunCycle(context.Background())

	require.True(t, applied)
	assert.False(t, view.HasPrice)
	assert.Equal(t, projector.TextFetchFailed, view.PriceText)
	assert.Equal(t, status.TextStopped, view.Status.Text)
	assert.Equal(t, "--", view.Changes[0].ValueText)
}

func TestRunCycleNoDataDoesNotReuseHistory(t *testing.T) {
	clock := &fakeClock{t: t0}
	good := models.Series{{Timestamp: ms(t0.Add(-time.Minute)), Price: 612}}
	empty := fetcher.Join([]models.PeriodFetch{{Period: models.PeriodDay, Result: models.FetchResult{Outcome: models.OutcomeNoData}}})
	r := newRefresher(&scriptedFetcher{batches: []models.FetchBatch{success(good), empty}}, clock)

	r.RunCycle(context.Background())
	view, _ := r.RunCycle(context.Background())

	assert.False(t, view.HasPrice)
	assert.Equal(t, projector.TextNoData, view.PriceText)
	assert.False(t, view.StaleData)
}

func TestRunCycleSinkErrorDoesNotFailCycle(t *testing.T) {
	sink := &captureSink{err: errors.New("broker down")}
	r := newRefresher(&scriptedFetcher{batches: []models.FetchBatch{success(models.Series{{Timestamp: ms(t0), Price: 1}})}}, &fakeClock{t: t0}, sink)

	_, applied := r.RunCycle(context.Background())
	assert.True(t, applied)
	assert.Len(t, sink.views, 1)
}

func TestRunCycleUsesRemoteStatusCache(t *testing.T) {
	clock := &fakeClock{t: t0}
	src := &countingStatus{st: &models.RemoteMarketStatus{State: models.MarketOpen, FetchedAt: t0}}
	s := models.Series{{Timestamp: ms(t0.Add(-30 * time.Minute)), Price: 612}}
	r := NewRefresher(RefresherConfig{Currency: "cny", Unit: "grams"}, RefresherDeps{
		Fetcher:      &scriptedFetcher{batches: []models.FetchBatch{success(s), success(s)}},
		StatusSource: src,
		StatusCache:  marketstatus.NewCache(5 * time.Minute),
		Clock:        clock,
	})

	view, _ := r.RunCycle(context.Background())
	assert.Equal(t, status.TextActive, view.Status.Text, "30m old quote is fresh under the 45m remote threshold")

	clock.Advance(time.Minute)
	r.RunCycle(context.Background())
	assert.Equal(t, 1, src.calls, "valid cache entry is reused")
}

func TestRunCycleRemoteFailureFallsBackToLocal(t *testing.T) {
	src := &countingStatus{err: errors.New("quota exceeded")}
	s := models.Series{{Timestamp: ms(t0.Add(-30 * time.Minute)), Price: 612}}
	r := NewRefresher(RefresherConfig{Currency: "cny", Unit: "grams"}, RefresherDeps{
		Fetcher:      &scriptedFetcher{batches: []models.FetchBatch{success(s)}},
		StatusSource: src,
		Clock:        &fakeClock{t: t0},
	})

	view, applied := r.RunCycle(context.Background())
	require.True(t, applied)
	assert.Equal(t, status.TextDelayed, view.Status.Text, "without remote the 15m threshold applies")
}

func TestDashboardApplyOrdering(t *testing.T) {
	d := NewDashboard()
	_, ok := d.Current()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), d.Sequence())

	assert.True(t, d.Apply(&models.DisplayView{Sequence: 2}))
	assert.False(t, d.Apply(&models.DisplayView{Sequence: 1}))
	assert.False(t, d.Apply(&models.DisplayView{Sequence: 2}))
	assert.False(t, d.Apply(nil))
	assert.True(t, d.Apply(&models.DisplayView{Sequence: 3}))
	assert.Equal(t, uint64(3), d.Sequence())
}
