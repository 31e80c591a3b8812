package metrics

import (
	"fmt"
	"sync"
	"time"

	"dewey-hq/governor/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for Prometheus metrics in Governor.
// It manages metric registration and provides a unified interface for
// recording metrics across the completion pipeline.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Completion metrics (client-level, one sample per Generate call)
	completionMetrics *CompletionMetrics

	// Generator metrics (transport-level, one sample per upstream call)
	generatorMetrics *GeneratorMetrics

	// Cardinality tracking
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &config.MetricsConfig{}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = config.DefaultRequestDurationBuckets
	}
	if len(cfg.TokenCountBuckets) == 0 {
		cfg.TokenCountBuckets = config.DefaultTokenCountBuckets
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000), // Max 10K unique label sets
	}

	c.completionMetrics = NewCompletionMetrics(cfg, registry)
	c.generatorMetrics = NewGeneratorMetrics(cfg, registry)

	return c
}

// RecordCompletion records metrics for a completed Generate call.
//
// Parameters:
//   - model: Model that served the request (e.g., "gemini-1.5-flash")
//   - outcome: Final outcome ("success", "error", "throttled", "fallback")
//   - duration: Total call duration including retries
//   - promptTokens: Estimated prompt token count (0 if unknown)
//   - completionTokens: Reported completion token count (0 if unknown)
func (c *Collector) RecordCompletion(model, outcome string, duration time.Duration, promptTokens, completionTokens int) {
	// Check cardinality limit
	labelSet := fmt.Sprintf("completion:%s:%s", model, outcome)
	if !c.cardinalityLimiter.Allow(labelSet) {
		// Aggregate into "other" to prevent cardinality explosion
		model = "other"
	}

	c.completionMetrics.RecordRequest(model, outcome, duration)
	if promptTokens > 0 {
		c.completionMetrics.RecordTokens(model, TokenKindPrompt, promptTokens)
	}
	if completionTokens > 0 {
		c.completionMetrics.RecordTokens(model, TokenKindCompletion, completionTokens)
	}
}

// RecordRetry records a retry attempt for a model.
func (c *Collector) RecordRetry(model string) {
	c.completionMetrics.RecordRetry(model)
}

// RecordFallback records a fallback from one model to another.
func (c *Collector) RecordFallback(fromModel, toModel string) {
	c.completionMetrics.RecordFallback(fromModel, toModel)
}

// RecordGeneratorRequest records a single upstream API call.
func (c *Collector) RecordGeneratorRequest(model string) {
	c.generatorMetrics.RecordRequest(model)
}

// RecordGeneratorLatency records the latency of an upstream API call.
func (c *Collector) RecordGeneratorLatency(model string, latencySeconds float64) {
	c.generatorMetrics.RecordLatency(model, latencySeconds)
}

// RecordGeneratorError records an upstream API error by type.
// Common error types: "rate_limit", "auth", "invalid_request",
// "server_error", "network", "timeout", "parse", "safety_block",
// "empty_response".
func (c *Collector) RecordGeneratorError(model, errorType string) {
	c.generatorMetrics.RecordError(model, errorType)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
