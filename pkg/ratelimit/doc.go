// Package ratelimit enforces per-model request budgets for language model
// calls and protects failing models with a circuit breaker.
//
// # Overview
//
// The package tracks usage for each model independently and enforces three
// hard ceilings plus a spacing rule:
//
//   - Requests per minute (rpm) over a trailing 60-second sliding window
//   - Requests per day (rpd) over a rolling 24-hour window
//   - Minimum interval between consecutive requests
//   - Circuit breaker: after a configured number of consecutive failures the
//     model is rejected outright until a cooldown elapses
//
// Tokens per minute (tpm) is tracked advisorily from pre-call estimates: an
// overrun is logged and counted in metrics but never rejects a request.
//
// # Check Ordering
//
// Check evaluates conditions in a fixed order and returns on the first
// violation: circuit breaker, rpm window, daily ceiling, minimum interval.
// The circuit breaker is evaluated first since an open circuit marks a
// known-bad model and short-circuits all other accounting.
//
// When every check passes, the request is reserved immediately: the
// timestamp joins the sliding window, the daily counter increments, and the
// last-request time advances. The reservation is optimistic. A generation
// that later fails does not return its slot.
//
// # Usage
//
//	limiter := ratelimit.New(logger)
//	limiter.Configure(cfg.Limits.Models)
//
//	if err := limiter.Check("gemini-1.5-flash", prompt); err != nil {
//	    var rlErr *ratelimit.Error
//	    if errors.As(err, &rlErr) {
//	        // Wait rlErr.RetryAfter, switch model, or surface upstream.
//	    }
//	}
//
//	// After the generation call:
//	limiter.RecordSuccess("gemini-1.5-flash")
//	// or
//	limiter.RecordFailure("gemini-1.5-flash")
//
// # Thread Safety
//
// A single mutex guards all limiter state. Check runs as one critical
// section, so two callers racing for a model's last rpm slot cannot both
// win. Check never sleeps; callers waiting out a rejection do so outside
// the limiter.
package ratelimit
