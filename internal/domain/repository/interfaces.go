package repository

import (
	"context"
	"time"

	"GoldPulse/internal/domain/models"
)

// Clock is injected wherever a cycle needs "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// PriceFetcher retrieves every period window for one refresh cycle.
type PriceFetcher interface {
	FetchPeriods(ctx context.Context, lookbacks map[models.Period]time.Duration, now time.Time) models.FetchBatch
}

// MarketStatusSource produces a fresh remote market status.
type MarketStatusSource interface {
	Fetch(ctx context.Context) (*models.RemoteMarketStatus, error)
}

// DisplaySink receives every applied DisplayView (WebSocket hub, Kafka).
type DisplaySink interface {
	Name() string
	PublishDisplay(ctx context.Context, v *models.DisplayView) error
}

type Metrics interface {
	RecordFetch(period, outcome, reason string, attempts int)
	RecordCycle(outcome string, applied bool, seq uint64)
	RecordPublish(sink string, err error)
	RecordError(kind string)
	RecordLastPrice(currency, unit string, price float64)
	RecordLatency(op string, seconds float64)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordFetch(string, string, string, int) {}
func (NopMetrics) RecordCycle(string, bool, uint64) {}
func (NopMetrics) RecordPublish(string, error) {}
func (NopMetrics) RecordError(string) {}
func (NopMetrics) RecordLastPrice(string, string, float64) {}
func (NopMetrics) RecordLatency(string, float64) {}
