package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches      *prometheus.CounterVec
	fetchRetries *prometheus.CounterVec
	cycles       *prometheus.CounterVec
	sinkPublish  *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	lastSequence prometheus.Gauge
	latency      *prometheus.HistogramVec
}

// New creates a recorder on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldpulse_price_fetches_total",
				Help: "Price fetches by period and outcome",
			},
			[]string{"period", "outcome", "reason"},
		),
		fetchRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldpulse_price_fetch_attempts_total",
				Help: "HTTP attempts spent on price fetches, including retries",
			},
			[]string{"period"},
		),
		cycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldpulse_refresh_cycles_total",
				Help: "Refresh cycles by outcome and whether the view was applied",
			},
			[]string{"outcome", "applied"},
		),
		sinkPublish: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldpulse_display_published_total",
				Help: "Display views handed to each sink",
			},
			[]string{"sink", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "goldpulse_last_price",
				Help: "Last displayed gold price",
			},
			[]string{"currency", "unit"},
		),
		lastSequence: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "goldpulse_applied_sequence",
				Help: "Sequence id of the display view currently shown",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goldpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one period fetch.
func (r *Recorder) RecordFetch(period, outcome, reason string, attempts int) {
	r.fetches.WithLabelValues(period, outcome, reason).Inc()
	r.fetchRetries.WithLabelValues(period).Add(float64(attempts))
}

// RecordCycle records a finished refresh cycle.
func (r *Recorder) RecordCycle(outcome string, applied bool, seq uint64) {
	a := "false"
	if applied {
		a = "true"
		r.lastSequence.Set(float64(seq))
	}
	r.cycles.WithLabelValues(outcome, a).Inc()
}

// RecordPublish records a sink delivery.
func (r *Recorder) RecordPublish(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.sinkPublish.WithLabelValues(sink, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last displayed price.
func (r *Recorder) RecordLastPrice(currency, unit string, price float64) {
	r.lastPrice.WithLabelValues(currency, unit).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
