package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "client.max_retries").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateClient(&cfg.Client)...)
	errs = append(errs, validateGenerator(&cfg.Generator)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateClient validates completion client configuration.
func validateClient(cfg *ClientConfig) []FieldError {
	var errs []FieldError

	if cfg.DefaultModel == "" {
		errs = append(errs, FieldError{
			Field:   "client.default_model",
			Message: "default model is required",
		})
	}

	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "client.max_retries",
			Message: "max retries must be non-negative",
		})
	}

	if cfg.RetryBackoffBase < 0 {
		errs = append(errs, FieldError{
			Field:   "client.retry_backoff_base",
			Message: "retry backoff base must be non-negative",
		})
	}

	return errs
}

// validateGenerator validates generator transport configuration.
func validateGenerator(cfg *GeneratorConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "generator.base_url",
			Message: "base URL is required",
		})
	} else {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			errs = append(errs, FieldError{
				Field:   "generator.base_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, FieldError{
				Field:   "generator.base_url",
				Message: fmt.Sprintf("unsupported scheme %q (must be http or https)", u.Scheme),
			})
		}
	}

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "generator.timeout",
			Message: "timeout must be non-negative",
		})
	}

	if cfg.MaxOutputTokens < 0 {
		errs = append(errs, FieldError{
			Field:   "generator.max_output_tokens",
			Message: "max output tokens must be non-negative",
		})
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{
			Field:   "generator.temperature",
			Message: "temperature must be between 0.0 and 2.0",
		})
	}

	return errs
}

// validateLimits validates per-model tier overrides.
func validateLimits(cfg *LimitsConfig) []FieldError {
	var errs []FieldError

	for model, override := range cfg.Models {
		field := func(name string) string {
			return fmt.Sprintf("limits.models.%s.%s", model, name)
		}

		if model == "" {
			errs = append(errs, FieldError{
				Field:   "limits.models",
				Message: "model name must not be empty",
			})
			continue
		}

		if override.RPM != nil && *override.RPM < 0 {
			errs = append(errs, FieldError{
				Field:   field("rpm"),
				Message: "rpm must be non-negative (0 disables the check)",
			})
		}
		if override.TPM != nil && *override.TPM < 0 {
			errs = append(errs, FieldError{
				Field:   field("tpm"),
				Message: "tpm must be non-negative (0 disables the advisory ceiling)",
			})
		}
		if override.RPD != nil && *override.RPD < 0 {
			errs = append(errs, FieldError{
				Field:   field("rpd"),
				Message: "rpd must be non-negative (0 disables the check)",
			})
		}
		if override.MinRequestInterval != nil && *override.MinRequestInterval < 0 {
			errs = append(errs, FieldError{
				Field:   field("min_request_interval"),
				Message: "minimum request interval must be non-negative",
			})
		}
		if override.CircuitBreakerThreshold != nil && *override.CircuitBreakerThreshold < 0 {
			errs = append(errs, FieldError{
				Field:   field("circuit_breaker_threshold"),
				Message: "circuit breaker threshold must be non-negative (0 disables the breaker)",
			})
		}
		if override.CircuitBreakerTimeout != nil && *override.CircuitBreakerTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   field("circuit_breaker_timeout"),
				Message: "circuit breaker timeout must be non-negative",
			})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	for i, b := range cfg.Metrics.RequestDurationBuckets {
		if b <= 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.request_duration_buckets",
				Message: fmt.Sprintf("bucket %d must be positive, got %v", i, b),
			})
			break
		}
	}

	for i, b := range cfg.Metrics.TokenCountBuckets {
		if b <= 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.token_count_buckets",
				Message: fmt.Sprintf("bucket %d must be positive, got %v", i, b),
			})
			break
		}
	}

	return errs
}
