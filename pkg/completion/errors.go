package completion

import (
	"errors"
	"fmt"
)

// Common completion errors that can be checked with errors.Is().
var (
	// ErrNoLimiter is returned by New when no rate limiter is provided.
	ErrNoLimiter = errors.New("rate limiter cannot be nil")

	// ErrNoFactory is returned by New when no model handle factory is
	// provided.
	ErrNoFactory = errors.New("model handle factory cannot be nil")

	// ErrNoModel is returned by Generate when neither the request nor the
	// client configuration names a model.
	ErrNoModel = errors.New("no model specified")

	// ErrEmptyPrompt is returned by Generate for an empty or
	// whitespace-only prompt.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrEmptyResponse is matched when a model returned no usable text.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// Error is the terminal error returned by Generate. It records the last
// model attempted, the number of generation calls made against it, and the
// underlying cause.
//
// The cause is reachable with errors.Is and errors.As, so a throttled
// request still surfaces its *ratelimit.Error to callers.
type Error struct {
	// Model is the last model attempted. Empty when the request failed
	// before a model was resolved.
	Model string

	// Attempts is the number of generation calls made against Model. Zero
	// means the request never reached the model, for example because the
	// limiter rejected it.
	Attempts int

	// Err is the last underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("completion failed: %v", e.Err)
	}
	return fmt.Sprintf("completion failed for model %q after %d attempts: %v", e.Model, e.Attempts, e.Err)
}

// Unwrap returns the underlying error for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// EmptyResponseError reports a generation call that returned no usable
// text. Safety-blocked responses arrive here with the blocking reason.
type EmptyResponseError struct {
	// Model is the model that returned the empty response.
	Model string

	// FinishReason is the transport's reason, when it reported one
	// (e.g. "SAFETY").
	FinishReason string
}

// Error implements the error interface.
func (e *EmptyResponseError) Error() string {
	if e.FinishReason != "" {
		return fmt.Sprintf("model %q returned an empty response (finish reason %s)", e.Model, e.FinishReason)
	}
	return fmt.Sprintf("model %q returned an empty response", e.Model)
}

// Is implements error matching for errors.Is().
func (e *EmptyResponseError) Is(target error) bool {
	return target == ErrEmptyResponse
}
