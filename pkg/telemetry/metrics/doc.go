// Package metrics provides Prometheus metrics collection for Governor.
//
// # Overview
//
// The metrics package implements Prometheus metrics for monitoring the
// completion pipeline: Generate call outcomes and durations, retry and
// fallback behavior, token counts, and upstream API health.
//
// Two levels of granularity are tracked:
//
//   - Completion metrics count logical Generate calls, one sample per call
//     regardless of how many retries it took.
//   - Generator metrics count individual upstream API round trips, so a
//     call that retried twice produces three generator samples.
//
// Rate limiter metrics (window occupancy, rejections, circuit breaker
// trips) are owned by the ratelimit package and registered with the
// default registry at init.
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// Record a completed Generate call
//	collector.RecordCompletion(
//		"gemini-1.5-flash", // model
//		"success",          // outcome
//		1200*time.Millisecond,
//		350,                // estimated prompt tokens
//		120,                // reported completion tokens
//	)
//
//	// Record retry and fallback behavior
//	collector.RecordRetry("gemini-1.5-flash")
//	collector.RecordFallback("gemini-1.5-pro", "gemini-1.5-flash")
//
//	// Expose the /metrics endpoint
//	http.Handle("/metrics", collector.Handler())
//
// # Cardinality
//
// Model and outcome labels are bounded by a cardinality limiter; once the
// limit is reached, new label combinations are aggregated under the model
// "other".
//
// # Custom Histogram Buckets
//
// Bucket boundaries come from MetricsConfig and default to ranges suited
// to LLM workloads:
//
//	Request Duration: 0.1s, 0.25s, 0.5s, 1s, 2s, 5s, 10s, 30s
//	Token Counts: 100, 500, 1K, 5K, 10K, 50K, 100K
package metrics
