package ratelimit

import "time"

// DefaultTier is the limits key applied to models without an explicit tier.
const DefaultTier = "default"

// ModelLimits defines the rate limit tier for a single model.
//
// A zero value for RPM, TPM, RPD, or MinRequestInterval disables that
// check. A zero CircuitBreakerThreshold disables the circuit breaker.
type ModelLimits struct {
	// RPM is the maximum number of requests allowed in any trailing
	// 60-second window.
	RPM int

	// TPM is the advisory ceiling on estimated tokens in any trailing
	// 60-second window. Exceeding it is logged and counted but never
	// rejects a request.
	TPM int

	// RPD is the maximum number of requests allowed in a rolling
	// 24-hour window.
	RPD int

	// MinRequestInterval is the minimum spacing between two consecutive
	// requests to the same model.
	MinRequestInterval time.Duration

	// CircuitBreakerThreshold is the number of consecutive failures
	// that opens the circuit for the model.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open once
	// tripped.
	CircuitBreakerTimeout time.Duration
}

// Override is a partial ModelLimits suitable for YAML configuration.
// Nil fields keep the base tier's value when merged.
type Override struct {
	RPM                     *int           `yaml:"rpm"`
	TPM                     *int           `yaml:"tpm"`
	RPD                     *int           `yaml:"rpd"`
	MinRequestInterval      *time.Duration `yaml:"min_request_interval"`
	CircuitBreakerThreshold *int           `yaml:"circuit_breaker_threshold"`
	CircuitBreakerTimeout   *time.Duration `yaml:"circuit_breaker_timeout"`
}

// merge returns a copy of base with every non-nil override field applied.
func (o Override) merge(base ModelLimits) ModelLimits {
	merged := base
	if o.RPM != nil {
		merged.RPM = *o.RPM
	}
	if o.TPM != nil {
		merged.TPM = *o.TPM
	}
	if o.RPD != nil {
		merged.RPD = *o.RPD
	}
	if o.MinRequestInterval != nil {
		merged.MinRequestInterval = *o.MinRequestInterval
	}
	if o.CircuitBreakerThreshold != nil {
		merged.CircuitBreakerThreshold = *o.CircuitBreakerThreshold
	}
	if o.CircuitBreakerTimeout != nil {
		merged.CircuitBreakerTimeout = *o.CircuitBreakerTimeout
	}
	return merged
}

// builtinLimits returns the built-in tier table. The values mirror the
// free-tier quotas published for the Gemini model family; deployments with
// paid quotas raise them through Configure.
//
// The DefaultTier entry applies to any model without its own tier, so an
// unknown model is throttled conservatively rather than left unlimited.
func builtinLimits() map[string]ModelLimits {
	return map[string]ModelLimits{
		"gemini-1.5-flash": {
			RPM:                     15,
			TPM:                     1_000_000,
			RPD:                     1500,
			MinRequestInterval:      0,
			CircuitBreakerThreshold: 3,
			CircuitBreakerTimeout:   60 * time.Second,
		},
		"gemini-1.5-pro": {
			RPM:                     2,
			TPM:                     32_000,
			RPD:                     50,
			MinRequestInterval:      2 * time.Second,
			CircuitBreakerThreshold: 3,
			CircuitBreakerTimeout:   60 * time.Second,
		},
		"gemini-2.0-flash": {
			RPM:                     15,
			TPM:                     1_000_000,
			RPD:                     1500,
			MinRequestInterval:      0,
			CircuitBreakerThreshold: 3,
			CircuitBreakerTimeout:   60 * time.Second,
		},
		DefaultTier: {
			RPM:                     10,
			TPM:                     250_000,
			RPD:                     500,
			MinRequestInterval:      0,
			CircuitBreakerThreshold: 3,
			CircuitBreakerTimeout:   60 * time.Second,
		},
	}
}
