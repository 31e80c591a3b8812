package metrics

import (
	"time"

	"dewey-hq/governor/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Token kind labels for the token count histogram.
const (
	// TokenKindPrompt labels estimated prompt token counts.
	TokenKindPrompt = "prompt"

	// TokenKindCompletion labels completion token counts reported by the
	// upstream API.
	TokenKindCompletion = "completion"
)

// CompletionMetrics tracks client-level metrics for Generate calls.
//
// Metrics:
//   - governor_completion_requests_total: Requests by model and outcome
//   - governor_completion_request_duration_seconds: End-to-end call duration
//   - governor_completion_retries_total: Retry attempts by model
//   - governor_completion_fallbacks_total: Fallbacks by model pair
//   - governor_completion_tokens: Token counts by model and kind
type CompletionMetrics struct {
	// Requests by model and final outcome
	requestsTotal *prometheus.CounterVec

	// End-to-end duration of Generate calls, including retries
	requestDuration *prometheus.HistogramVec

	// Retry attempts per model
	retriesTotal *prometheus.CounterVec

	// Fallbacks from primary to fallback model
	fallbacksTotal *prometheus.CounterVec

	// Token counts per model and kind (prompt estimate vs reported completion)
	tokens *prometheus.HistogramVec
}

// NewCompletionMetrics creates and registers completion metrics with the
// provided registry.
func NewCompletionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CompletionMetrics {
	cm := &CompletionMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of Generate calls by model and outcome",
			},
			[]string{"model", "outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "End-to-end Generate call duration in seconds, including retries",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"model"},
		),

		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retries_total",
				Help:      "Total number of retry attempts by model",
			},
			[]string{"model"},
		),

		fallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fallbacks_total",
				Help:      "Total number of fallbacks from primary to fallback model",
			},
			[]string{"from_model", "to_model"},
		),

		tokens: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tokens",
				Help:      "Token counts by model and kind",
				Buckets:   cfg.TokenCountBuckets,
			},
			[]string{"model", "kind"},
		),
	}

	registry.MustRegister(
		cm.requestsTotal,
		cm.requestDuration,
		cm.retriesTotal,
		cm.fallbacksTotal,
		cm.tokens,
	)

	return cm
}

// RecordRequest records a completed Generate call.
func (cm *CompletionMetrics) RecordRequest(model, outcome string, duration time.Duration) {
	cm.requestsTotal.WithLabelValues(model, outcome).Inc()
	cm.requestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordTokens records a token count observation.
func (cm *CompletionMetrics) RecordTokens(model, kind string, count int) {
	cm.tokens.WithLabelValues(model, kind).Observe(float64(count))
}

// RecordRetry records a retry attempt.
func (cm *CompletionMetrics) RecordRetry(model string) {
	cm.retriesTotal.WithLabelValues(model).Inc()
}

// RecordFallback records a fallback from one model to another.
func (cm *CompletionMetrics) RecordFallback(fromModel, toModel string) {
	cm.fallbacksTotal.WithLabelValues(fromModel, toModel).Inc()
}
