// Package metrics provides Prometheus metrics for the analytics engine:
// prediction volume and latency per model, fallback and failure counts, trend
// requests and cache effectiveness.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	// Prediction metrics, labelled by model kind
	MLPredictions *prometheus.CounterVec   // Predictions made, by model and method
	MLFailures    *prometheus.CounterVec   // Prediction failures
	MLFallbackUse *prometheus.CounterVec   // Predictions served by the rule-based fallback
	MLLatency     *prometheus.HistogramVec // End-to-end prediction latency in seconds
	MLConfidence  *prometheus.HistogramVec // Distribution of prediction confidence
	MLModelAge    *prometheus.GaugeVec     // Age of the loaded artifact in seconds

	// Analytics metrics
	TrendRequests    *prometheus.CounterVec // Trend and comparison requests, by kind
	InsufficientData *prometheus.CounterVec // Requests rejected for lack of data, by operation
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		MLPredictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of predictions made",
		}, []string{"model", "method"}),
		MLFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ml_failures_total",
			Help: "Total number of prediction failures",
		}, []string{"model"}),
		MLFallbackUse: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ml_fallback_use_total",
			Help: "Total number of predictions served by the rule-based fallback",
		}, []string{"model"}),
		MLLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ml_latency_seconds",
			Help:    "Prediction latency in seconds (end-to-end)",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"model"}),
		MLConfidence: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ml_prediction_confidence",
			Help:    "Distribution of prediction confidence scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"model"}),
		MLModelAge: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ml_model_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}, []string{"model"}),
		TrendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trend_requests_total",
			Help: "Total number of trend and comparison requests",
		}, []string{"kind"}),
		InsufficientData: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "insufficient_data_total",
			Help: "Total number of requests without enough data to answer",
		}, []string{"operation"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of analytics cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of analytics cache misses",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
