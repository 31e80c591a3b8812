// Package telemetry provides observability for Governor.
//
// # Overview
//
// The telemetry package implements structured logging and Prometheus
// metrics for the completion pipeline. It provides visibility into runtime
// behavior while maintaining low overhead.
//
// # Components
//
//   - logging: Structured logging built on log/slog
//   - metrics: Prometheus metrics collection
//
// # Usage
//
//	cfg := config.MustGetConfig()
//
//	// Create logger
//	logger, err := logging.New(logging.Config{
//	    Level:  cfg.Telemetry.Logging.Level,
//	    Format: cfg.Telemetry.Logging.Format,
//	})
//
//	// Create metrics collector
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	http.Handle("/metrics", collector.Handler())
//
// # Performance
//
// The telemetry package is designed for minimal overhead:
//
//   - Logging: <10µs when enabled, <1µs when disabled
//   - Metrics: <50µs per metric update
package telemetry
