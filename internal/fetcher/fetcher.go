// Package fetcher retrieves gold price history from the primary price API.
//
// A fetch never fails with a Go error. Transport problems are retried a bounded number
// of times and then folded into a FetchResult with Outcome=error; an empty but well-formed
// answer triggers one wider re-query before settling on no-data.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"GoldPulse/internal/domain/models"
	"GoldPulse/internal/series"
	xhttp "GoldPulse/pkg/http"
	"GoldPulse/pkg/logger"
	"GoldPulse/pkg/util"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"
)

// ErrAttemptTimeout marks an attempt cut off by a deadline, its own or the caller's.
var ErrAttemptTimeout = errors.New("attempt deadline exceeded")

// Config controls one Fetcher.
type Config struct {
	Endpoint       string
	Currency       string
	Unit           string
	MaxAttempts    int
	Backoff        time.Duration
	AttemptTimeout time.Duration
	FallbackWindow time.Duration
}

// Window is an epoch-ms time range. The zero Window asks the API for its default range.
type Window struct {
	Start int64
	End   int64
}

func (w Window) IsZero() bool { return w.Start == 0 && w.End == 0 }

// Fetcher is safe for concurrent use.
type Fetcher struct {
	cfg     Config
	client  *xhttp.Client
	log     *logger.Logger
	backoff func() backoff.BackOff
	now     func() time.Time
}

type Option func(*Fetcher)

// WithBackOff replaces the pause policy between attempts; tests use backoff.ZeroBackOff.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(f *Fetcher) { f.backoff = fn }
}

// WithClock replaces the time source used to anchor the fallback window.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

func New(cfg Config, client *xhttp.Client, log *logger.Logger, opts ...Option) *Fetcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	f := &Fetcher{
		cfg:    cfg,
		client: client,
		log:    log,
		now:    time.Now,
	}
	f.backoff = func() backoff.BackOff { return backoff.NewConstantBackOff(cfg.Backoff) }
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type priceResponse struct {
	Currency  string                     `json:"currency"`
	ChartData map[string]json.RawMessage `json:"chartData"`
}

type payload struct {
	pairs    []series.RawPair
	asOfDate string
}

func (f *Fetcher) decode(resp *priceResponse) (payload, error) {
	var p payload
	key := strings.ToUpper(f.cfg.Currency)
	if raw, ok := resp.ChartData[key]; ok && len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &p.pairs); err != nil {
			return p, fmt.Errorf("decode chartData.%s: %w", key, err)
		}
	}
	if raw, ok := resp.ChartData["asOfDate"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			p.asOfDate = s
		} else {
			var n json.Number
			if json.Unmarshal(raw, &n) == nil {
				p.asOfDate = n.String()
			}
		}
	}
	return p, nil
}

// Fetch runs one windowed fetch with retry and the empty-data fallback.
func (f *Fetcher) Fetch(ctx context.Context, w Window) models.FetchResult {
	p, attempts, err := f.fetchWithRetry(ctx, w)
	if err != nil {
		return f.failure(err, attempts, false)
	}

	s := series.Normalize(p.pairs)
	fallback := false
	if len(s) == 0 {
		fallback = true
		fw := f.fallbackWindow(p.asOfDate)
		f.log.Debug("price fetch empty, retrying with fallback window",
			logger.Int64("start", fw.Start),
			logger.Int64("end", fw.End),
			logger.String("as_of", p.asOfDate),
		)
		fp, n, err := f.fetchWithRetry(ctx, fw)
		attempts += n
		if err != nil {
			return f.failure(err, attempts, true)
		}
		s = series.Normalize(fp.pairs)
	}

	if len(s) == 0 {
		return models.FetchResult{Outcome: models.OutcomeNoData, Series: models.Series{}, Attempts: attempts, Fallback: fallback}
	}
	return models.FetchResult{
		Outcome:  models.OutcomeSuccess,
		Series:   s,
		Latest:   series.Latest(s),
		Attempts: attempts,
		Fallback: fallback,
	}
}

func (f *Fetcher) failure(err error, attempts int, fallback bool) models.FetchResult {
	reason := models.ReasonFetchFailed
	if errors.Is(err, ErrAttemptTimeout) || errors.Is(err, context.DeadlineExceeded) {
		reason = models.ReasonTimeout
	}
	return models.FetchResult{
		Outcome:  models.OutcomeError,
		Series:   models.Series{},
		Reason:   reason,
		Attempts: attempts,
		Fallback: fallback,
		Err:      err,
	}
}

// fallbackWindow spans FallbackWindow back from asOfDate, or from now when asOfDate is
// missing, unparseable or in the future. A bare date anchors at the end of that day.
func (f *Fetcher) fallbackWindow(asOf string) Window {
	anchor := util.FallbackAnchor(asOf, f.now())
	return Window{Start: anchor.Add(-f.cfg.FallbackWindow).UnixMilli(), End: anchor.UnixMilli()}
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, w Window) (payload, int, error) {
	attempts := 0
	op := func() (payload, error) {
		attempts++
		p, err := f.attempt(ctx, w)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, ErrAttemptTimeout) || ctx.Err() != nil {
			return payload{}, backoff.Permanent(err)
		}
		f.log.Debug("price fetch attempt failed",
			logger.Int("attempt", attempts),
			logger.Error(err),
		)
		return payload{}, err
	}

	p, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(f.backoff()),
		backoff.WithMaxTries(uint(f.cfg.MaxAttempts)),
	)
	if err != nil {
		return payload{}, attempts, fmt.Errorf("price fetch failed after %d attempt(s): %w", attempts, err)
	}
	return p, attempts, nil
}

func (f *Fetcher) attempt(ctx context.Context, w Window) (payload, error) {
	actx := ctx
	if f.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, f.cfg.AttemptTimeout)
		defer cancel()
	}

	q := map[string][]string{
		"currency": {f.cfg.Currency},
		"unit":     {f.cfg.Unit},
	}
	if !w.IsZero() {
		q["starttime"] = []string{strconv.FormatInt(w.Start, 10)}
		q["endtime"] = []string{strconv.FormatInt(w.End, 10)}
	}

	var resp priceResponse
	err := f.client.Get(actx, f.cfg.Endpoint, q, &resp)
	if err != nil {
		if errors.Is(actx.Err(), context.DeadlineExceeded) {
			return payload{}, fmt.Errorf("%w: %v", ErrAttemptTimeout, err)
		}
		return payload{}, err
	}
	return f.decode(&resp)
}

// FetchPeriods fetches every period window concurrently and waits for all of them.
// A failed period contributes an empty series; it never aborts the others.
func (f *Fetcher) FetchPeriods(ctx context.Context, lookbacks map[models.Period]time.Duration, now time.Time) models.FetchBatch {
	periods := orderedPeriods(lookbacks)
	results := make([]models.PeriodFetch, len(periods))

	var g errgroup.Group
	for i, p := range periods {
		w := Window{Start: now.Add(-lookbacks[p]).UnixMilli(), End: now.UnixMilli()}
		g.Go(func() error {
			results[i] = models.PeriodFetch{Period: p, Result: f.Fetch(ctx, w)}
			return nil
		})
	}
	_ = g.Wait()

	return Join(results)
}

// Join merges per-period results. The longest windows merge first so the shortest
// window, which has the finest granularity, wins on shared timestamps.
func Join(results []models.PeriodFetch) models.FetchBatch {
	batch := models.FetchBatch{Periods: results}
	list := make([]models.Series, 0, len(results))
	failed := 0
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i].Result
		list = append(list, r.Series)
		if r.Outcome == models.OutcomeError {
			failed++
			if batch.Err == nil {
				batch.Err = fmt.Errorf("%s: %w", results[i].Period, r.Err)
			}
		}
	}
	batch.Merged = series.Merge(list...)

	switch {
	case len(batch.Merged) > 0:
		batch.Outcome = models.OutcomeSuccess
	case len(results) > 0 && failed == len(results):
		batch.Outcome = models.OutcomeError
	default:
		batch.Outcome = models.OutcomeNoData
	}
	return batch
}

// orderedPeriods lists known periods in display order, then any others by name.
func orderedPeriods(lookbacks map[models.Period]time.Duration) []models.Period {
	out := make([]models.Period, 0, len(lookbacks))
	seen := make(map[models.Period]bool, len(lookbacks))
	for _, p := range models.PeriodOrder {
		if _, ok := lookbacks[p]; ok {
			out = append(out, p)
			seen[p] = true
		}
	}
	var rest []models.Period
	for p := range lookbacks {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}
