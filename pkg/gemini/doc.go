// Package gemini is the HTTP transport for the Google Generative Language
// API. It turns one model id into one completion.ModelHandle backed by the
// v1beta models/{model}:generateContent endpoint.
//
// # Architecture
//
// A single Client owns one pooled HTTP transport; every handle returned by
// Model shares it. Client.Model has the completion.Factory signature, so a
// client plugs directly into the completion client:
//
//	gem, err := gemini.New(gemini.Config{APIKey: key})
//	if err != nil {
//		return err
//	}
//	defer gem.Close()
//
//	client, err := completion.New(cfg.Client, limiter, gem.Model)
//
// # One round trip per call
//
// A handle's Generate performs exactly one HTTP round trip. Retry policy
// lives in the completion client; retrying here as well would multiply the
// attempt count and defeat the rate limiter's bookkeeping.
//
// # Error mapping
//
// Non-2xx statuses map to typed errors: 401 and 403 to *AuthError, 429 to
// *RateLimitedError carrying the Retry-After hint, 400 and server errors
// to *APIError, and timeouts to *TimeoutError. Safety-blocked and
// candidate-less 200 responses are not errors at this layer; they produce
// a Result with empty text and the block reason as FinishReason, and the
// completion client decides how to treat them.
//
// The API key travels in the x-goog-api-key header and is never logged.
package gemini
