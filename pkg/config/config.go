package config

import (
	"time"

	"dewey-hq/governor/pkg/ratelimit"
)

// Config is the root configuration structure for Governor. It contains all
// configuration sections for the completion client, the Gemini generator
// transport, per-model rate limit tiers, and telemetry.
type Config struct {
	// Client contains completion client configuration: default models,
	// retry budget, and backoff.
	Client ClientConfig `yaml:"client"`

	// Generator contains configuration for the Gemini HTTP transport.
	Generator GeneratorConfig `yaml:"generator"`

	// Limits contains per-model rate limit tier overrides.
	Limits LimitsConfig `yaml:"limits"`

	// Telemetry contains observability configuration for logging and
	// metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ClientConfig contains configuration for the completion client.
type ClientConfig struct {
	// DefaultModel is the model used when a request does not name one.
	// Default: "gemini-1.5-flash"
	DefaultModel string `yaml:"default_model"`

	// FallbackModel is attempted once, with a fresh retry budget, after
	// the primary model's attempts are exhausted. Empty disables
	// fallback. A fallback equal to the primary is ignored.
	// Default: "" (no fallback)
	FallbackModel string `yaml:"fallback_model"`

	// MaxRetries is the number of retries after the first attempt, per
	// model. A value of 3 means up to 4 generation calls per model.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// RetryBackoffBase is the base for exponential retry backoff. The
	// wait before retry n is RetryBackoffBase * 2^n.
	// Default: 1s
	RetryBackoffBase time.Duration `yaml:"retry_backoff_base"`
}

// GeneratorConfig contains configuration for the Gemini generator transport.
type GeneratorConfig struct {
	// APIKey authenticates against the Generative Language API. It is
	// usually supplied through the GEMINI_API_KEY or GOVERNOR_API_KEY
	// environment variable rather than the file. Not required at load
	// time; the transport rejects construction without one.
	APIKey string `yaml:"api_key"`

	// BaseURL is the API endpoint base.
	// Default: "https://generativelanguage.googleapis.com/v1beta"
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-call HTTP timeout.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxOutputTokens caps the candidate length requested from the API.
	// Default: 2048
	MaxOutputTokens int `yaml:"max_output_tokens"`

	// Temperature is the sampling temperature, 0.0 to 2.0. Zero omits
	// the field from requests so the model's own default applies.
	// Default: 0 (model default)
	Temperature float64 `yaml:"temperature"`
}

// LimitsConfig contains per-model rate limit tier overrides.
type LimitsConfig struct {
	// Models maps model ids to partial tier overrides. Each override is
	// merged over the model's built-in tier (or the default tier for an
	// unknown model) at startup and again on live reload.
	Models map[string]ratelimit.Override `yaml:"models"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Namespace is the metric name prefix.
	// Default: "governor"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name for completion metrics.
	// Default: "completion"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for generation
	// duration (seconds).
	// Default: [0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`

	// TokenCountBuckets defines histogram buckets for per-request token
	// counts.
	// Default: [100, 500, 1000, 5000, 10000, 50000, 100000]
	TokenCountBuckets []float64 `yaml:"token_count_buckets"`
}
