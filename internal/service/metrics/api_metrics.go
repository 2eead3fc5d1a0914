// Package metrics holds the per-endpoint collectors of the valuation API.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace, subsystem = "rentwise", "api"

func counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help}
}

var (
	registerOnce sync.Once

	APILatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "latency_seconds",
		Help:      "Latency of valuation endpoints",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"endpoint"})

	APIErrors = prometheus.NewCounterVec(
		counterOpts("errors_total", "Errors by valuation endpoint and error code"),
		[]string{"endpoint", "code"})

	RateLimited = prometheus.NewCounterVec(
		counterOpts("rate_limited_total", "Requests rejected by the per-client rate limiter"),
		[]string{"endpoint"})
)

// Register adds the collectors to the default registry once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors, RateLimited)
	})
}

func ObserveLatency(endpoint string, since time.Time) {
	APILatency.WithLabelValues(endpoint).Observe(time.Since(since).Seconds())
}

func CountError(endpoint, code string) {
	APIErrors.WithLabelValues(endpoint, code).Inc()
}
