// Package completion provides the model-facing client for text generation.
// It orchestrates a single completion request end to end: resolving the
// target model, consulting the rate limiter before every attempt, retrying
// failed generations with exponential backoff, and deflecting to a fallback
// model once the primary is exhausted.
//
// # Architecture
//
// The client knows nothing about transports. Generation capability is
// supplied as a ModelHandle, constructed on demand by a Factory and
// memoized per model for the life of the client. The production factory is
// gemini.Client.Model; tests substitute scripted handles.
//
// Every attempt passes through ratelimit.Limiter.Check first, so rpm, rpd,
// minimum-interval, and circuit-breaker policy apply uniformly no matter
// which handle serves the model. A rejection from the limiter ends the
// model's attempts immediately: a throttled model stays throttled for the
// near term, and hammering it with the retry budget would only waste the
// window.
//
// # Retry and fallback
//
// Each model gets a budget of MaxRetries retries after the first attempt.
// Failures back off exponentially (RetryBackoffBase doubling per retry) and
// the wait honors context cancellation. Empty or safety-blocked responses
// take the same retry path as transport errors.
//
// When the primary model's attempts are exhausted and a fallback model is
// configured, the fallback is attempted once with its own fresh budget.
// There are no chains: a fallback's failure never deflects to a third
// model, and a fallback equal to the primary is ignored.
//
// # Usage
//
//	limiter := ratelimit.New(logger.Slog())
//	client, err := completion.New(cfg.Client, limiter, gem.Model)
//	if err != nil {
//		return err
//	}
//
//	text, err := client.Generate(ctx, completion.Request{
//		Prompt: "Summarize the meeting notes.",
//	})
//	if err != nil {
//		var throttled *ratelimit.Error
//		if errors.As(err, &throttled) {
//			// wait throttled.RetryAfter and try again
//		}
//		return err
//	}
//
// Errors returned by Generate are always *Error wrapping the underlying
// cause, so callers can branch with errors.Is and errors.As without string
// matching.
package completion
