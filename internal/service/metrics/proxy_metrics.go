package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ProxyLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "goldpulse",
			Subsystem: "proxy",
			Name:      "upstream_latency_seconds",
			Help:      "Latency of forwarded chart requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"currency"},
	)

	ProxyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "goldpulse",
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "Proxy requests by result (ok, cached, fallback, bad_request, rate_limited, upstream_error)",
		},
		[]string{"result"},
	)

	StreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "goldpulse",
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Connected kiosk WebSocket clients",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ProxyLatency, ProxyRequests, StreamClients)
	})
}
