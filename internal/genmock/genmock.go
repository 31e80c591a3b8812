// Package genmock provides scriptable model handles for tests and
// examples. A Handle consumes queued steps in order and falls back to a
// default outcome once the script is exhausted.
package genmock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dewey-hq/governor/pkg/completion"
)

// Step is one scripted outcome for a Handle.
type Step struct {
	// Result is returned when Err is nil. A nil Result with a nil Err
	// yields the canned success response.
	Result *completion.Result

	// Err is returned instead of a result.
	Err error

	// Latency delays the call before returning, honoring cancellation.
	Latency time.Duration
}

// Text returns a step that succeeds with the given text.
func Text(text string) Step {
	return Step{Result: &completion.Result{Text: text, FinishReason: "STOP"}}
}

// Fail returns a step that fails with err.
func Fail(err error) Step {
	return Step{Err: err}
}

// Empty returns a step that produces an empty response with the given
// finish reason, as a safety-blocked upstream response would.
func Empty(finishReason string) Step {
	return Step{Result: &completion.Result{FinishReason: finishReason}}
}

// Handle is a scriptable completion.ModelHandle. It is safe for concurrent
// use.
type Handle struct {
	model string

	mu      sync.Mutex
	steps   []Step
	calls   int
	prompts []string
}

// NewHandle creates a handle for model that plays back steps in order.
// Once the script is exhausted, calls succeed with a canned response.
func NewHandle(model string, steps ...Step) *Handle {
	return &Handle{
		model: model,
		steps: append([]Step(nil), steps...),
	}
}

// Generate implements completion.ModelHandle.
func (h *Handle) Generate(ctx context.Context, prompt string) (*completion.Result, error) {
	h.mu.Lock()
	h.calls++
	h.prompts = append(h.prompts, prompt)

	var step Step
	if len(h.steps) > 0 {
		step = h.steps[0]
		h.steps = h.steps[1:]
	}
	h.mu.Unlock()

	if step.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(step.Latency):
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if step.Err != nil {
		return nil, step.Err
	}
	if step.Result != nil {
		return step.Result, nil
	}
	return &completion.Result{Text: "mock response from " + h.model, FinishReason: "STOP"}, nil
}

// Model returns the model id this handle serves.
func (h *Handle) Model() string {
	return h.model
}

// Calls returns the number of Generate calls made so far.
func (h *Handle) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

// Prompts returns a copy of the prompts received so far, in order.
func (h *Handle) Prompts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.prompts...)
}

// Enqueue appends further steps to the script.
func (h *Handle) Enqueue(steps ...Step) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.steps = append(h.steps, steps...)
}

// Factory returns a completion.Factory that serves the given handles by
// model id and fails for any other model.
func Factory(handles ...*Handle) completion.Factory {
	byModel := make(map[string]*Handle, len(handles))
	for _, h := range handles {
		byModel[h.model] = h
	}

	return func(model string) (completion.ModelHandle, error) {
		h, ok := byModel[model]
		if !ok {
			return nil, fmt.Errorf("no mock handle for model %q", model)
		}
		return h, nil
	}
}
