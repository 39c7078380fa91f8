package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecastRuns    *prometheus.CounterVec
	forecastLatency prometheus.Histogram
	coldStarts      prometheus.Counter
	referenceCache  *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		forecastRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxcast_forecast_runs_total",
				Help: "Total number of forecast runs by outcome",
			},
			[]string{"status"},
		),
		forecastLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fluxcast_forecast_duration_seconds",
				Help:    "End-to-end duration of a forecast run in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		coldStarts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fluxcast_cold_start_forecasts_total",
				Help: "Forecast runs dominated by the prior (under 5 usable observations)",
			},
		),
		referenceCache: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxcast_reference_cache_requests_total",
				Help: "Reference-series cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// RecordForecast records a forecast run outcome.
func (r *Recorder) RecordForecast(status string) {
	r.forecastRuns.WithLabelValues(status).Inc()
}

// RecordForecastLatency records run duration in seconds.
func (r *Recorder) RecordForecastLatency(seconds float64) {
	r.forecastLatency.Observe(seconds)
}

// RecordColdStart records a prior-dominated forecast run.
func (r *Recorder) RecordColdStart() {
	r.coldStarts.Inc()
}

// RecordReferenceCache records a reference-series cache lookup.
func (r *Recorder) RecordReferenceCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.referenceCache.WithLabelValues(result).Inc()
}
