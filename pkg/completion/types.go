package completion

import "context"

// Result is the outcome of one generation call against a model.
type Result struct {
	// Text is the generated completion text. The client treats empty or
	// whitespace-only text as a failed attempt.
	Text string

	// FinishReason is the transport's reason for ending generation, when
	// it reports one (e.g. "STOP", "MAX_TOKENS", "SAFETY").
	FinishReason string

	// Usage holds token counts when the transport reports them.
	Usage *Usage
}

// Usage is the token accounting for a single generation call.
type Usage struct {
	// PromptTokens is the token count of the prompt.
	PromptTokens int

	// CompletionTokens is the token count of the generated text.
	CompletionTokens int

	// TotalTokens is the transport-reported total.
	TotalTokens int
}

// ModelHandle is the generation capability for a single model. The client
// does not care whether a handle is backed by HTTP, local inference, or a
// test double; it only calls Generate.
//
// Implementations must respect context cancellation and return promptly
// when the context is cancelled.
type ModelHandle interface {
	// Generate produces a completion for the prompt. A nil error with
	// empty Text is valid at this layer (for example a safety-blocked
	// response); the client decides what to do with it.
	Generate(ctx context.Context, prompt string) (*Result, error)
}

// Factory constructs a handle for a model id. The client memoizes
// successful results per model, so a factory runs at most once per model
// for the life of the client. Factory errors are not memoized; the next
// request for the model retries construction.
type Factory func(model string) (ModelHandle, error)

// Request describes a single completion request. Zero fields fall back to
// the client configuration.
type Request struct {
	// Prompt is the text sent to the model. Required.
	Prompt string

	// Model overrides the client's default model when set.
	Model string

	// FallbackModel overrides the client's fallback model when set. A
	// fallback equal to the resolved model disables fallback for this
	// request.
	FallbackModel string

	// Retries overrides the client's retry budget when positive. This is
	// the number of retries after the first attempt, so a value of 3
	// allows up to four generation calls per model.
	Retries int
}
