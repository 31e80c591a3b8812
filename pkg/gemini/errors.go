package gemini

import (
	"errors"
	"fmt"
	"time"
)

// Construction errors.
var (
	// ErrNoAPIKey is returned by New when the configuration has no API key.
	ErrNoAPIKey = errors.New("api key is required")

	// ErrNoModelID is returned by Model for an empty model id.
	ErrNoModelID = errors.New("model id cannot be empty")
)

// APIError represents a request the API rejected: an invalid request
// (HTTP 400) or a server-side failure (5xx).
type APIError struct {
	// Model is the model the request targeted.
	Model string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Status is the API's RPC status string (e.g. "INVALID_ARGUMENT"),
	// empty when the error body could not be parsed.
	Status string

	// Message is the error message from the API.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("model %q request failed (status %d %s): %s",
			e.Model, e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("model %q request failed (status %d): %s",
		e.Model, e.StatusCode, e.Message)
}

// AuthError represents an authentication failure (HTTP 401 or 403).
type AuthError struct {
	// Model is the model the request targeted.
	Model string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the API.
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for model %q (status %d): %s",
		e.Model, e.StatusCode, e.Message)
}

// RateLimitedError represents an upstream quota rejection (HTTP 429). This
// is the API throttling the caller, distinct from the local rate limiter's
// rejections.
type RateLimitedError struct {
	// Model is the model the request targeted.
	Model string

	// RetryAfter is the server's Retry-After hint. Zero when absent.
	RetryAfter time.Duration

	// Message is the error message from the API.
	Message string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("model %q rate limited upstream (retry after %s): %s",
			e.Model, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("model %q rate limited upstream: %s", e.Model, e.Message)
}

// TimeoutError represents a request that exceeded the configured timeout
// or was cut short by its context deadline.
type TimeoutError struct {
	// Model is the model the request targeted.
	Model string

	// Timeout is the configured request timeout.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("model %q request timed out after %s", e.Model, e.Timeout)
}
