package metrics

import (
	"dewey-hq/governor/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// GeneratorMetrics tracks transport-level metrics for upstream API calls.
// Unlike CompletionMetrics, these count individual HTTP round trips, so a
// Generate call that retries twice produces three generator samples.
//
// Metrics:
//   - governor_completion_generator_requests_total: Upstream calls by model
//   - governor_completion_generator_latency_seconds: Upstream call latency
//   - governor_completion_generator_errors_total: Upstream errors by type
type GeneratorMetrics struct {
	// Upstream API call latency histogram
	latency *prometheus.HistogramVec

	// Upstream error counter
	errors *prometheus.CounterVec

	// Total upstream API calls
	requests *prometheus.CounterVec
}

// NewGeneratorMetrics creates and registers generator metrics with the
// provided registry.
func NewGeneratorMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GeneratorMetrics {
	gm := &GeneratorMetrics{
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "generator_latency_seconds",
				Help:      "Upstream API call latency in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "generator_errors_total",
				Help:      "Total number of upstream API errors by type",
			},
			[]string{"model", "error_type"},
		),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "generator_requests_total",
				Help:      "Total number of upstream API calls by model",
			},
			[]string{"model"},
		),
	}

	registry.MustRegister(
		gm.latency,
		gm.errors,
		gm.requests,
	)

	return gm
}

// RecordLatency records the latency of an upstream API call.
func (gm *GeneratorMetrics) RecordLatency(model string, latencySeconds float64) {
	gm.latency.WithLabelValues(model).Observe(latencySeconds)
}

// RecordError records an upstream API error.
//
// Common error types:
//   - "rate_limit": Upstream rate limit exceeded (HTTP 429)
//   - "auth": Authentication/authorization error (HTTP 401/403)
//   - "invalid_request": Malformed request (HTTP 400)
//   - "server_error": Upstream server error (5xx)
//   - "network": Network connectivity error
//   - "timeout": Request exceeded its deadline
//   - "parse": Malformed response body
//   - "safety_block": Generation blocked by safety filters
//   - "empty_response": Upstream returned no candidates
func (gm *GeneratorMetrics) RecordError(model, errorType string) {
	gm.errors.WithLabelValues(model, errorType).Inc()
}

// RecordRequest records an upstream API call.
func (gm *GeneratorMetrics) RecordRequest(model string) {
	gm.requests.WithLabelValues(model).Inc()
}
