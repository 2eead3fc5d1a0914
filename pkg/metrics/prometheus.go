package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions    *prometheus.CounterVec
	labels         *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	recorded       *prometheus.CounterVec
	predictedPrice prometheus.Histogram
	latency        *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentwise_predictions_total",
				Help: "Total number of price predictions by operation",
			},
			[]string{"operation"},
		),
		labels: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentwise_fairness_labels_total",
				Help: "Fairness labels returned by the classifier",
			},
			[]string{"label"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentwise_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		recorded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentwise_evaluations_recorded_total",
				Help: "Evaluations written to a backend",
			},
			[]string{"backend"},
		),
		predictedPrice: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rentwise_predicted_price",
				Help:    "Distribution of predicted monthly rents",
				Buckets: prometheus.LinearBuckets(500, 500, 12),
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rentwise_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction counts one completed prediction for op (predict or evaluate).
func (r *Recorder) RecordPrediction(op string) {
	r.predictions.WithLabelValues(op).Inc()
}

// RecordLabel counts a fairness label.
func (r *Recorder) RecordLabel(label string) {
	r.labels.WithLabelValues(label).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRecorded counts an evaluation persisted to backend.
func (r *Recorder) RecordRecorded(backend string) {
	r.recorded.WithLabelValues(backend).Inc()
}

func (r *Recorder) RecordPredictedPrice(price float64) {
	r.predictedPrice.Observe(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
