package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for branching on the rejection reason with errors.Is().
var (
	// ErrCircuitOpen is matched when the model's circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRPMExceeded is matched when the trailing-minute request window is full.
	ErrRPMExceeded = errors.New("rpm limit exceeded")

	// ErrRPDExceeded is matched when the rolling 24-hour request ceiling is hit.
	ErrRPDExceeded = errors.New("daily request limit exceeded")

	// ErrMinInterval is matched when a request arrives before the minimum
	// inter-request interval has elapsed.
	ErrMinInterval = errors.New("minimum request interval not met")
)

// Kind identifies which limit rejected a request.
type Kind string

// Rejection kinds. The values double as the reason label on metrics.
const (
	KindCircuitOpen Kind = "circuit_open"
	KindRPM         Kind = "rpm"
	KindRPD         Kind = "rpd"
	KindMinInterval Kind = "min_interval"
)

// Error is returned by Check when a request would exceed a limit or the
// model's circuit breaker is open. It is always locally recoverable: the
// caller may wait RetryAfter, switch to another model, or surface the
// rejection to its own caller.
type Error struct {
	// Model is the model whose limit rejected the request.
	Model string

	// Kind identifies the violated limit.
	Kind Kind

	// Message is a human-readable description of the rejection.
	Message string

	// RetryAfter is how long until the violated limit would admit the
	// request, when that is knowable. Zero means unknown.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s for model %q (retry after %s)", e.Message, e.Model, e.RetryAfter.Round(time.Millisecond))
	}
	return fmt.Sprintf("%s for model %q", e.Message, e.Model)
}

// Is implements error matching for errors.Is().
func (e *Error) Is(target error) bool {
	switch target {
	case ErrCircuitOpen:
		return e.Kind == KindCircuitOpen
	case ErrRPMExceeded:
		return e.Kind == KindRPM
	case ErrRPDExceeded:
		return e.Kind == KindRPD
	case ErrMinInterval:
		return e.Kind == KindMinInterval
	}
	return false
}
