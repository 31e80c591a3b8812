package config

import "time"

// Default values for configuration fields.
const (
	// Client defaults
	DefaultModel            = "gemini-1.5-flash"
	DefaultMaxRetries       = 3
	DefaultRetryBackoffBase = time.Second

	// Generator defaults
	DefaultBaseURL          = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeneratorTimeout = 60 * time.Second
	DefaultMaxOutputTokens  = 2048

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsNamespace = "governor"
	DefaultMetricsSubsystem = "completion"
)

// Default histogram buckets. Package-level vars since Go constants cannot
// hold slices.
var (
	// DefaultRequestDurationBuckets covers generation latency in seconds.
	DefaultRequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}

	// DefaultTokenCountBuckets covers per-request token counts.
	DefaultTokenCountBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000}
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Client defaults
	if cfg.Client.DefaultModel == "" {
		cfg.Client.DefaultModel = DefaultModel
	}
	if cfg.Client.MaxRetries == 0 {
		cfg.Client.MaxRetries = DefaultMaxRetries
	}
	if cfg.Client.RetryBackoffBase == 0 {
		cfg.Client.RetryBackoffBase = DefaultRetryBackoffBase
	}

	// Generator defaults. The API key has no default; it comes from the
	// file or the environment.
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = DefaultBaseURL
	}
	if cfg.Generator.Timeout == 0 {
		cfg.Generator.Timeout = DefaultGeneratorTimeout
	}
	if cfg.Generator.MaxOutputTokens == 0 {
		cfg.Generator.MaxOutputTokens = DefaultMaxOutputTokens
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = DefaultRequestDurationBuckets
	}
	if len(cfg.Telemetry.Metrics.TokenCountBuckets) == 0 {
		cfg.Telemetry.Metrics.TokenCountBuckets = DefaultTokenCountBuckets
	}
}
