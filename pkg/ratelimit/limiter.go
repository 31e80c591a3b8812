package ratelimit

import (
	"log/slog"
	"sync"
	"time"

	"dewey-hq/governor/pkg/tokens"
)

const (
	// windowDuration is the span of the sliding rpm and tpm windows.
	windowDuration = time.Minute

	// dailyWindow is the span of the rolling rpd window.
	dailyWindow = 24 * time.Hour
)

// tokenSample is one advisory token estimate inside the trailing-minute window.
type tokenSample struct {
	at        time.Time
	estimated int
}

// Limiter tracks per-model usage and enforces the effective tier for each
// model. One Limiter serves the whole process; construct it once and share
// it across clients.
//
// All state lives behind a single mutex. Check, RecordSuccess, and
// RecordFailure each run as one critical section, so the check-then-reserve
// sequence cannot interleave between callers racing for the same model's
// last slot.
type Limiter struct {
	mu sync.Mutex

	// limits holds the effective tier per model: built-in tiers merged
	// with any Configure overrides.
	limits map[string]ModelLimits

	// requestWindows holds each model's request timestamps inside the
	// trailing 60-second window, oldest first. Pruned lazily on access.
	requestWindows map[string][]time.Time

	// tokenWindows holds advisory token estimates over the same window.
	tokenWindows map[string][]tokenSample

	// dailyRequests counts requests since dailyStart, per model. The
	// window rolls lazily once 24 hours elapse.
	dailyRequests map[string]int
	dailyStart    map[string]time.Time

	// lastRequest enforces the minimum inter-request interval.
	lastRequest map[string]time.Time

	// failureCounts is the current run of consecutive failures, reset
	// on success or on a circuit trip.
	failureCounts map[string]int

	// circuitOpenUntil marks the circuit open while now precedes the
	// stored time. A past value means closed; nothing clears it.
	circuitOpenUntil map[string]time.Time

	estimator tokens.Estimator
	logger    *slog.Logger

	// now is the clock. Tests substitute a controlled clock.
	now func() time.Time
}

// New creates a Limiter seeded with the built-in tiers.
// A nil logger defaults to slog.Default(). File-based tiers are applied
// afterwards with Configure.
func New(logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Limiter{
		limits:           builtinLimits(),
		requestWindows:   make(map[string][]time.Time),
		tokenWindows:     make(map[string][]tokenSample),
		dailyRequests:    make(map[string]int),
		dailyStart:       make(map[string]time.Time),
		lastRequest:      make(map[string]time.Time),
		failureCounts:    make(map[string]int),
		circuitOpenUntil: make(map[string]time.Time),
		estimator:        tokens.NewSimpleEstimator(),
		logger:           logger,
		now:              time.Now,
	}
}

// Configure merges each override into the model's current effective tier,
// or into the default tier for a model seen for the first time. The merged
// tier governs all subsequent checks for that model. Configure is the
// live-reload entry point.
func (l *Limiter) Configure(overrides map[string]Override) {
	if len(overrides) == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for model, override := range overrides {
		base, ok := l.limits[model]
		if !ok {
			base = l.limits[DefaultTier]
		}
		merged := override.merge(base)
		l.limits[model] = merged

		l.logger.Debug("Model limits configured",
			"model", model,
			"rpm", merged.RPM,
			"tpm", merged.TPM,
			"rpd", merged.RPD,
			"min_request_interval", merged.MinRequestInterval,
			"circuit_breaker_threshold", merged.CircuitBreakerThreshold,
			"circuit_breaker_timeout", merged.CircuitBreakerTimeout,
		)
	}

	l.logger.Info("Limiter configuration applied", "models", len(overrides))
}

// Check reports whether a request for model may proceed right now. It
// returns nil and reserves the slot, or a *Error describing the first
// violated limit in the fixed order: circuit breaker, rpm window, daily
// ceiling, minimum interval.
//
// The reservation is optimistic: the request joins the windows before the
// generation call happens, and a failed generation does not give the slot
// back. Check never sleeps; callers wait out Error.RetryAfter themselves.
//
// The prompt is used only to estimate tokens for the advisory tpm window.
func (l *Limiter) Check(model, prompt string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	limits := l.limitsForLocked(model)
	now := l.now()

	// An open circuit marks a known-bad model and supersedes every
	// other limit: fail fast without touching the windows.
	if until, ok := l.circuitOpenUntil[model]; ok && now.Before(until) {
		return l.rejectLocked(&Error{
			Model:      model,
			Kind:       KindCircuitOpen,
			Message:    "Circuit breaker open",
			RetryAfter: until.Sub(now),
		})
	}

	window := l.pruneRequestWindowLocked(model, now)
	if limits.RPM > 0 && len(window) >= limits.RPM {
		return l.rejectLocked(&Error{
			Model:      model,
			Kind:       KindRPM,
			Message:    "Rate limit (rpm) exceeded",
			RetryAfter: window[0].Add(windowDuration).Sub(now),
		})
	}

	// Roll the daily window before testing the ceiling, so an exhausted
	// counter clears as soon as 24 hours have elapsed.
	start, ok := l.dailyStart[model]
	if !ok {
		start = now
		l.dailyStart[model] = now
	} else if now.Sub(start) >= dailyWindow {
		start = now
		l.dailyStart[model] = now
		l.dailyRequests[model] = 0
	}

	if limits.RPD > 0 && l.dailyRequests[model] >= limits.RPD {
		return l.rejectLocked(&Error{
			Model:      model,
			Kind:       KindRPD,
			Message:    "Daily rate limit exceeded",
			RetryAfter: start.Add(dailyWindow).Sub(now),
		})
	}

	if limits.MinRequestInterval > 0 {
		if last, ok := l.lastRequest[model]; ok {
			if since := now.Sub(last); since < limits.MinRequestInterval {
				return l.rejectLocked(&Error{
					Model:      model,
					Kind:       KindMinInterval,
					Message:    "Minimum request interval not met",
					RetryAfter: limits.MinRequestInterval - since,
				})
			}
		}
	}

	l.requestWindows[model] = append(window, now)
	l.dailyRequests[model]++
	l.lastRequest[model] = now

	estimate := l.recordTokenEstimateLocked(model, prompt, now, limits)
	recordCheckAllowed(model, len(l.requestWindows[model]), estimate)
	return nil
}

// RecordSuccess marks a successful generation for model, ending the current
// run of consecutive failures. It never touches an open circuit.
func (l *Limiter) RecordSuccess(model string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failureCounts[model] != 0 {
		l.failureCounts[model] = 0
		l.logger.Debug("Failure streak cleared", "model", model)
	}
}

// RecordFailure marks a failed generation for model. Reaching the tier's
// CircuitBreakerThreshold opens the circuit for CircuitBreakerTimeout and
// restarts the failure count, so after the timeout the breaker re-opens
// only on a fresh run of failures.
func (l *Limiter) RecordFailure(model string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	limits := l.limitsForLocked(model)
	l.failureCounts[model]++
	count := l.failureCounts[model]

	if limits.CircuitBreakerThreshold <= 0 || count < limits.CircuitBreakerThreshold {
		l.logger.Debug("Generation failure recorded",
			"model", model,
			"consecutive_failures", count,
		)
		return
	}

	until := l.now().Add(limits.CircuitBreakerTimeout)
	l.circuitOpenUntil[model] = until
	l.failureCounts[model] = 0

	recordCircuitTrip(model)
	l.logger.Warn("Circuit breaker opened",
		"model", model,
		"consecutive_failures", count,
		"timeout", limits.CircuitBreakerTimeout,
		"open_until", until,
	)
}

// Usage is a point-in-time snapshot of one model's limiter state.
type Usage struct {
	// Model is the model this snapshot describes.
	Model string

	// WindowRequests is the number of requests in the trailing
	// 60-second window.
	WindowRequests int

	// WindowTokenEstimate is the estimated token total over the same
	// window.
	WindowTokenEstimate int

	// DailyRequests is the request count in the current 24-hour window.
	DailyRequests int

	// ConsecutiveFailures is the current run of failures.
	ConsecutiveFailures int

	// CircuitOpen reports whether the circuit breaker is currently open.
	CircuitOpen bool

	// CircuitOpenUntil is when an open circuit closes. Zero when closed.
	CircuitOpenUntil time.Time

	// Limits is the model's effective tier.
	Limits ModelLimits
}

// Usage returns a snapshot of model's current windows, counters, and
// circuit state. Windows are pruned before counting.
func (l *Limiter) Usage(model string) Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	window := l.pruneRequestWindowLocked(model, now)
	tokenEstimate := l.pruneTokenWindowLocked(model, now)

	u := Usage{
		Model:               model,
		WindowRequests:      len(window),
		WindowTokenEstimate: tokenEstimate,
		DailyRequests:       l.dailyRequests[model],
		ConsecutiveFailures: l.failureCounts[model],
		Limits:              l.limitsForLocked(model),
	}

	if until, ok := l.circuitOpenUntil[model]; ok && now.Before(until) {
		u.CircuitOpen = true
		u.CircuitOpenUntil = until
	}

	return u
}

// LimitsFor returns the effective tier for model, falling back to the
// default tier for models without one.
func (l *Limiter) LimitsFor(model string) ModelLimits {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limitsForLocked(model)
}

// limitsForLocked resolves the effective tier. Caller must hold the mutex.
func (l *Limiter) limitsForLocked(model string) ModelLimits {
	if limits, ok := l.limits[model]; ok {
		return limits
	}
	return l.limits[DefaultTier]
}

// rejectLocked records and logs a rejection. Caller must hold the mutex.
func (l *Limiter) rejectLocked(err *Error) error {
	recordCheckRejected(err.Model, err.Kind)
	l.logger.Debug("Request rejected",
		"model", err.Model,
		"reason", string(err.Kind),
		"retry_after", err.RetryAfter,
	)
	return err
}

// pruneRequestWindowLocked drops request timestamps older than the trailing
// 60-second window and returns the surviving window, oldest first. Caller
// must hold the mutex.
func (l *Limiter) pruneRequestWindowLocked(model string, now time.Time) []time.Time {
	window := l.requestWindows[model]
	cutoff := now.Add(-windowDuration)

	keep := 0
	for keep < len(window) && !window[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		window = window[keep:]
		l.requestWindows[model] = window
	}
	return window
}

// pruneTokenWindowLocked drops expired token samples and returns the
// estimated token total remaining in the window. Caller must hold the mutex.
func (l *Limiter) pruneTokenWindowLocked(model string, now time.Time) int {
	samples := l.tokenWindows[model]
	cutoff := now.Add(-windowDuration)

	keep := 0
	for keep < len(samples) && !samples[keep].at.After(cutoff) {
		keep++
	}
	if keep > 0 {
		samples = samples[keep:]
		l.tokenWindows[model] = samples
	}

	total := 0
	for _, s := range samples {
		total += s.estimated
	}
	return total
}

// recordTokenEstimateLocked appends the prompt's token estimate to the
// advisory window and returns the window total. An overrun of the tier's
// tpm ceiling is logged and counted but never rejects the request. Caller
// must hold the mutex.
func (l *Limiter) recordTokenEstimateLocked(model, prompt string, now time.Time, limits ModelLimits) int {
	estimated := l.estimator.EstimateText(prompt, model)
	l.tokenWindows[model] = append(l.tokenWindows[model], tokenSample{at: now, estimated: estimated})

	total := l.pruneTokenWindowLocked(model, now)
	if limits.TPM > 0 && total > limits.TPM {
		recordTPMAdvisoryExceeded(model)
		l.logger.Warn("Estimated token usage exceeds tpm ceiling",
			"model", model,
			"estimated_window_tokens", total,
			"tpm", limits.TPM,
		)
	}
	return total
}
