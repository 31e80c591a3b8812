package ratelimit

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// testClock is a controllable clock so window and breaker tests never sleep.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter() (*Limiter, *testClock) {
	clock := newTestClock()
	limiter := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	limiter.now = clock.Now
	return limiter, clock
}

// configureModel installs a fully explicit tier for model so tests do not
// depend on built-in values.
func configureModel(l *Limiter, model string, rpm, tpm, rpd int, interval time.Duration, threshold int, timeout time.Duration) {
	l.Configure(map[string]Override{
		model: {
			RPM:                     intPtr(rpm),
			TPM:                     intPtr(tpm),
			RPD:                     intPtr(rpd),
			MinRequestInterval:      durationPtr(interval),
			CircuitBreakerThreshold: intPtr(threshold),
			CircuitBreakerTimeout:   durationPtr(timeout),
		},
	})
}

// ============================================================================
// Sliding Window Tests
// ============================================================================

func TestLimiter_Check_AllowsUnderRPM(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 5, 0, 0, 0, 3, time.Minute)

	for i := 0; i < 5; i++ {
		if err := limiter.Check("m", "x"); err != nil {
			t.Fatalf("Check %d: expected nil, got %v", i+1, err)
		}
	}
}

func TestLimiter_Check_RejectsAtRPM(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 3, 0, 0, 0, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := limiter.Check("m", "x"); err != nil {
			t.Fatalf("Check %d: expected nil, got %v", i+1, err)
		}
	}

	err := limiter.Check("m", "x")
	if err == nil {
		t.Fatal("Expected rpm rejection, got nil")
	}
	if !errors.Is(err, ErrRPMExceeded) {
		t.Errorf("Expected errors.Is(err, ErrRPMExceeded), got %v", err)
	}
	if !strings.Contains(err.Error(), "rpm") {
		t.Errorf("Expected message to contain 'rpm', got %q", err.Error())
	}

	var rlErr *Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if rlErr.Model != "m" {
		t.Errorf("Expected model 'm', got %q", rlErr.Model)
	}
	if rlErr.Kind != KindRPM {
		t.Errorf("Expected kind %q, got %q", KindRPM, rlErr.Kind)
	}
}

func TestLimiter_Check_RPMRetryAfter(t *testing.T) {
	limiter, clock := newTestLimiter()
	configureModel(limiter, "m", 1, 0, 0, 0, 3, time.Minute)

	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("First check: expected nil, got %v", err)
	}

	clock.Advance(10 * time.Second)

	err := limiter.Check("m", "x")
	var rlErr *Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("Expected *Error, got %v", err)
	}

	// The slot frees when the oldest window entry ages past 60s.
	if rlErr.RetryAfter != 50*time.Second {
		t.Errorf("Expected RetryAfter 50s, got %v", rlErr.RetryAfter)
	}
}

func TestLimiter_Check_WindowSlides(t *testing.T) {
	limiter, clock := newTestLimiter()
	configureModel(limiter, "m", 2, 0, 0, 0, 3, time.Minute)

	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("Check at t0: expected nil, got %v", err)
	}

	clock.Advance(30 * time.Second)
	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("Check at t0+30s: expected nil, got %v", err)
	}

	clock.Advance(15 * time.Second)
	if err := limiter.Check("m", "x"); !errors.Is(err, ErrRPMExceeded) {
		t.Fatalf("Check at t0+45s: expected rpm rejection, got %v", err)
	}

	// At t0+61s the t0 entry has aged out; one slot is free again.
	clock.Advance(16 * time.Second)
	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("Check at t0+61s: expected nil, got %v", err)
	}

	// The window now holds t0+30s and t0+61s, so the next check rejects.
	if err := limiter.Check("m", "x"); !errors.Is(err, ErrRPMExceeded) {
		t.Fatalf("Expected rpm rejection with a full window, got %v", err)
	}
}

func TestLimiter_Check_ZeroRPMDisablesWindowCheck(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 0, 0, 0, 0, 0, 0)

	for i := 0; i < 100; i++ {
		if err := limiter.Check("m", "x"); err != nil {
			t.Fatalf("Check %d: expected nil with rpm disabled, got %v", i+1, err)
		}
	}
}

func TestLimiter_Check_ModelsIsolated(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "a", 1, 0, 0, 0, 3, time.Minute)
	configureModel(limiter, "b", 1, 0, 0, 0, 3, time.Minute)

	if err := limiter.Check("a", "x"); err != nil {
		t.Fatalf("Check a: expected nil, got %v", err)
	}
	if err := limiter.Check("a", "x"); !errors.Is(err, ErrRPMExceeded) {
		t.Fatalf("Expected a to be throttled, got %v", err)
	}

	// Model b has its own window.
	if err := limiter.Check("b", "x"); err != nil {
		t.Fatalf("Check b: expected nil, got %v", err)
	}
}

// ============================================================================
// Daily Ceiling Tests
// ============================================================================

func TestLimiter_Check_RejectsAtRPD(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 100, 0, 3, 0, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := limiter.Check("m", "x"); err != nil {
			t.Fatalf("Check %d: expected nil, got %v", i+1, err)
		}
	}

	err := limiter.Check("m", "x")
	if !errors.Is(err, ErrRPDExceeded) {
		t.Fatalf("Expected errors.Is(err, ErrRPDExceeded), got %v", err)
	}
	if !strings.Contains(err.Error(), "Daily rate limit exceeded") {
		t.Errorf("Expected message to contain 'Daily rate limit exceeded', got %q", err.Error())
	}
}

func TestLimiter_Check_DailyRollover(t *testing.T) {
	limiter, clock := newTestLimiter()
	configureModel(limiter, "m", 100, 0, 2, 0, 3, time.Minute)

	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("First check: expected nil, got %v", err)
	}
	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("Second check: expected nil, got %v", err)
	}
	if err := limiter.Check("m", "x"); !errors.Is(err, ErrRPDExceeded) {
		t.Fatalf("Expected daily rejection with ceiling exhausted, got %v", err)
	}

	// The counter resets once 24 hours elapse, even from an exhausted state.
	clock.Advance(24 * time.Hour)
	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("Check after rollover: expected nil, got %v", err)
	}

	usage := limiter.Usage("m")
	if usage.DailyRequests != 1 {
		t.Errorf("Expected daily count 1 after rollover, got %d", usage.DailyRequests)
	}
}

func TestLimiter_Check_RPDRetryAfter(t *testing.T) {
	limiter, clock := newTestLimiter()
	configureModel(limiter, "m", 100, 0, 1, 0, 3, time.Minute)

	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("First check: expected nil, got %v", err)
	}

	clock.Advance(6 * time.Hour)

	err := limiter.Check("m", "x")
	var rlErr *Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if rlErr.RetryAfter != 18*time.Hour {
		t.Errorf("Expected RetryAfter 18h, got %v", rlErr.RetryAfter)
	}
}

// ============================================================================
// Minimum Interval Tests
// ============================================================================

func TestLimiter_Check_MinInterval(t *testing.T) {
	limiter, clock := newTestLimiter()
	configureModel(limiter, "m", 100, 0, 0, 5*time.Second, 3, time.Minute)

	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("First check: expected nil, got %v", err)
	}

	clock.Advance(2 * time.Second)

	err := limiter.Check("m", "x")
	if !errors.Is(err, ErrMinInterval) {
		t.Fatalf("Expected errors.Is(err, ErrMinInterval), got %v", err)
	}
	if !strings.Contains(err.Error(), "Minimum request interval") {
		t.Errorf("Expected message to contain 'Minimum request interval', got %q", err.Error())
	}

	var rlErr *Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if rlErr.RetryAfter != 3*time.Second {
		t.Errorf("Expected RetryAfter 3s, got %v", rlErr.RetryAfter)
	}

	clock.Advance(3 * time.Second)
	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("Check after interval elapsed: expected nil, got %v", err)
	}
}

func TestLimiter_Check_MinIntervalSkipsFirstRequest(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 100, 0, 0, time.Hour, 3, time.Minute)

	// No previous request recorded, so the spacing rule cannot apply.
	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("First check: expected nil, got %v", err)
	}
}

// ============================================================================
// Circuit Breaker Tests
// ============================================================================

func TestLimiter_CircuitBreaker_OpensAtThreshold(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 100, 0, 0, 0, 3, time.Minute)

	limiter.RecordFailure("m")
	limiter.RecordFailure("m")

	// Two of three failures: still closed.
	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("Check below threshold: expected nil, got %v", err)
	}

	limiter.RecordFailure("m")

	err := limiter.Check("m", "x")
	if err == nil {
		t.Fatal("Expected circuit rejection, got nil")
	}
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected errors.Is(err, ErrCircuitOpen), got %v", err)
	}
	if !strings.Contains(err.Error(), "Circuit breaker open") {
		t.Errorf("Expected message to contain 'Circuit breaker open', got %q", err.Error())
	}
}

func TestLimiter_CircuitBreaker_ClosesAfterTimeout(t *testing.T) {
	limiter, clock := newTestLimiter()
	configureModel(limiter, "m", 100, 0, 0, 0, 2, 30*time.Second)

	limiter.RecordFailure("m")
	limiter.RecordFailure("m")

	if err := limiter.Check("m", "x"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Expected open circuit, got %v", err)
	}

	clock.Advance(29 * time.Second)
	if err := limiter.Check("m", "x"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Expected circuit still open before timeout, got %v", err)
	}

	clock.Advance(time.Second)
	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("Expected circuit closed after timeout, got %v", err)
	}
}

func TestLimiter_CircuitBreaker_RetryAfter(t *testing.T) {
	limiter, clock := newTestLimiter()
	configureModel(limiter, "m", 100, 0, 0, 0, 1, time.Minute)

	limiter.RecordFailure("m")

	clock.Advance(15 * time.Second)

	err := limiter.Check("m", "x")
	var rlErr *Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if rlErr.Kind != KindCircuitOpen {
		t.Errorf("Expected kind %q, got %q", KindCircuitOpen, rlErr.Kind)
	}
	if rlErr.RetryAfter != 45*time.Second {
		t.Errorf("Expected RetryAfter 45s, got %v", rlErr.RetryAfter)
	}
}

func TestLimiter_CircuitBreaker_SuccessResetsStreak(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 100, 0, 0, 0, 3, time.Minute)

	// Two failures, a success, then two more failures: the streak never
	// reaches three, so the breaker must not trip.
	limiter.RecordFailure("m")
	limiter.RecordFailure("m")
	limiter.RecordSuccess("m")
	limiter.RecordFailure("m")
	limiter.RecordFailure("m")

	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("Expected closed circuit after interleaved success, got %v", err)
	}

	usage := limiter.Usage("m")
	if usage.ConsecutiveFailures != 2 {
		t.Errorf("Expected 2 consecutive failures, got %d", usage.ConsecutiveFailures)
	}
}

func TestLimiter_CircuitBreaker_FreshStreakAfterTrip(t *testing.T) {
	limiter, clock := newTestLimiter()
	configureModel(limiter, "m", 100, 0, 0, 0, 2, 30*time.Second)

	limiter.RecordFailure("m")
	limiter.RecordFailure("m")

	if err := limiter.Check("m", "x"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Expected open circuit, got %v", err)
	}

	clock.Advance(31 * time.Second)

	// The trip reset the streak, so one failure after the timeout must
	// not re-open the breaker.
	limiter.RecordFailure("m")
	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("Expected closed circuit after single post-timeout failure, got %v", err)
	}

	limiter.RecordFailure("m")
	if err := limiter.Check("m", "x"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Expected re-opened circuit after fresh streak, got %v", err)
	}
}

func TestLimiter_RecordSuccess_DoesNotCloseCircuit(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 100, 0, 0, 0, 1, time.Minute)

	limiter.RecordFailure("m")

	if err := limiter.Check("m", "x"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Expected open circuit, got %v", err)
	}

	// A success only clears the failure streak. The open circuit runs
	// out its timeout regardless.
	limiter.RecordSuccess("m")
	if err := limiter.Check("m", "x"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Expected circuit still open after RecordSuccess, got %v", err)
	}
}

func TestLimiter_CircuitBreaker_SupersedesOtherLimits(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 1, 0, 1, time.Hour, 1, time.Minute)

	limiter.RecordFailure("m")

	// Every other limit would also reject here; the circuit answers first.
	err := limiter.Check("m", "x")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Expected circuit rejection to win, got %v", err)
	}
}

func TestLimiter_CircuitBreaker_ZeroThresholdDisablesBreaker(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 100, 0, 0, 0, 0, time.Minute)

	for i := 0; i < 50; i++ {
		limiter.RecordFailure("m")
	}

	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("Expected no circuit with threshold 0, got %v", err)
	}
}

// ============================================================================
// Reservation Tests
// ============================================================================

func TestLimiter_Check_ReservationIsOptimistic(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 1, 0, 0, 0, 3, time.Minute)

	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("First check: expected nil, got %v", err)
	}

	// A failed generation does not give the rpm slot back.
	limiter.RecordFailure("m")

	if err := limiter.Check("m", "x"); !errors.Is(err, ErrRPMExceeded) {
		t.Fatalf("Expected rpm rejection after failed generation, got %v", err)
	}

	usage := limiter.Usage("m")
	if usage.WindowRequests != 1 {
		t.Errorf("Expected 1 request in window, got %d", usage.WindowRequests)
	}
	if usage.DailyRequests != 1 {
		t.Errorf("Expected 1 daily request, got %d", usage.DailyRequests)
	}
}

func TestLimiter_Check_RejectionReservesNothing(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 1, 0, 10, 0, 3, time.Minute)

	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("First check: expected nil, got %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := limiter.Check("m", "x"); err == nil {
			t.Fatalf("Check %d: expected rejection", i+2)
		}
	}

	// Rejected checks must not consume daily budget or window slots.
	usage := limiter.Usage("m")
	if usage.WindowRequests != 1 {
		t.Errorf("Expected 1 request in window, got %d", usage.WindowRequests)
	}
	if usage.DailyRequests != 1 {
		t.Errorf("Expected 1 daily request, got %d", usage.DailyRequests)
	}
}

// ============================================================================
// Configure Tests
// ============================================================================

func TestLimiter_Configure_OverridesExistingTier(t *testing.T) {
	limiter, _ := newTestLimiter()

	limiter.Configure(map[string]Override{
		"gemini-1.5-flash": {RPM: intPtr(2)},
	})

	got := limiter.LimitsFor("gemini-1.5-flash")
	if got.RPM != 2 {
		t.Errorf("Expected rpm 2, got %d", got.RPM)
	}

	// Untouched fields keep the built-in tier's values.
	want := builtinLimits()["gemini-1.5-flash"]
	if got.TPM != want.TPM {
		t.Errorf("Expected tpm %d, got %d", want.TPM, got.TPM)
	}
	if got.RPD != want.RPD {
		t.Errorf("Expected rpd %d, got %d", want.RPD, got.RPD)
	}
}

func TestLimiter_Configure_UnknownModelStartsFromDefault(t *testing.T) {
	limiter, _ := newTestLimiter()

	limiter.Configure(map[string]Override{
		"custom-model": {RPM: intPtr(7)},
	})

	got := limiter.LimitsFor("custom-model")
	if got.RPM != 7 {
		t.Errorf("Expected rpm 7, got %d", got.RPM)
	}

	def := builtinLimits()[DefaultTier]
	if got.RPD != def.RPD {
		t.Errorf("Expected default rpd %d, got %d", def.RPD, got.RPD)
	}
	if got.CircuitBreakerThreshold != def.CircuitBreakerThreshold {
		t.Errorf("Expected default threshold %d, got %d", def.CircuitBreakerThreshold, got.CircuitBreakerThreshold)
	}
}

func TestLimiter_Configure_AppliesToSubsequentChecks(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 10, 0, 0, 0, 3, time.Minute)

	if err := limiter.Check("m", "x"); err != nil {
		t.Fatalf("Check before tightening: expected nil, got %v", err)
	}

	// Tighten rpm below the already-used slot count.
	limiter.Configure(map[string]Override{
		"m": {RPM: intPtr(1)},
	})

	if err := limiter.Check("m", "x"); !errors.Is(err, ErrRPMExceeded) {
		t.Fatalf("Expected rpm rejection under tightened tier, got %v", err)
	}
}

func TestLimiter_Configure_SecondOverrideMergesOntoFirst(t *testing.T) {
	limiter, _ := newTestLimiter()

	limiter.Configure(map[string]Override{
		"m": {RPM: intPtr(5)},
	})
	limiter.Configure(map[string]Override{
		"m": {RPD: intPtr(99)},
	})

	got := limiter.LimitsFor("m")
	if got.RPM != 5 {
		t.Errorf("Expected rpm 5 to survive second configure, got %d", got.RPM)
	}
	if got.RPD != 99 {
		t.Errorf("Expected rpd 99, got %d", got.RPD)
	}
}

func TestLimiter_Check_UnknownModelUsesDefaultTier(t *testing.T) {
	limiter, _ := newTestLimiter()
	def := builtinLimits()[DefaultTier]

	for i := 0; i < def.RPM; i++ {
		if err := limiter.Check("never-configured", "x"); err != nil {
			t.Fatalf("Check %d: expected nil, got %v", i+1, err)
		}
	}

	if err := limiter.Check("never-configured", "x"); !errors.Is(err, ErrRPMExceeded) {
		t.Fatalf("Expected default-tier rpm rejection, got %v", err)
	}
}

// ============================================================================
// Advisory TPM Tests
// ============================================================================

func TestLimiter_Check_TPMIsAdvisoryOnly(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 100, 1, 0, 0, 3, time.Minute)

	// Every prompt exceeds a tpm of 1 on its own; checks must still pass.
	prompt := strings.Repeat("a", 400)
	for i := 0; i < 10; i++ {
		if err := limiter.Check("m", prompt); err != nil {
			t.Fatalf("Check %d: expected advisory tpm to never reject, got %v", i+1, err)
		}
	}

	usage := limiter.Usage("m")
	if usage.WindowTokenEstimate <= 1 {
		t.Errorf("Expected token estimate above the advisory ceiling, got %d", usage.WindowTokenEstimate)
	}
}

func TestLimiter_Check_TokenWindowSlides(t *testing.T) {
	limiter, clock := newTestLimiter()
	configureModel(limiter, "m", 100, 1000, 0, 0, 3, time.Minute)

	if err := limiter.Check("m", strings.Repeat("a", 400)); err != nil {
		t.Fatalf("Check: expected nil, got %v", err)
	}

	before := limiter.Usage("m").WindowTokenEstimate
	if before == 0 {
		t.Fatal("Expected non-zero token estimate in window")
	}

	clock.Advance(61 * time.Second)

	after := limiter.Usage("m").WindowTokenEstimate
	if after != 0 {
		t.Errorf("Expected token estimate 0 after window slid, got %d", after)
	}
}

// ============================================================================
// Usage Snapshot Tests
// ============================================================================

func TestLimiter_Usage_Snapshot(t *testing.T) {
	limiter, _ := newTestLimiter()
	configureModel(limiter, "m", 10, 1000, 100, 0, 3, time.Minute)

	for i := 0; i < 4; i++ {
		if err := limiter.Check("m", "hello"); err != nil {
			t.Fatalf("Check %d: expected nil, got %v", i+1, err)
		}
	}
	limiter.RecordFailure("m")

	usage := limiter.Usage("m")
	if usage.Model != "m" {
		t.Errorf("Expected model 'm', got %q", usage.Model)
	}
	if usage.WindowRequests != 4 {
		t.Errorf("Expected 4 requests in window, got %d", usage.WindowRequests)
	}
	if usage.DailyRequests != 4 {
		t.Errorf("Expected 4 daily requests, got %d", usage.DailyRequests)
	}
	if usage.WindowTokenEstimate <= 0 {
		t.Errorf("Expected positive token estimate, got %d", usage.WindowTokenEstimate)
	}
	if usage.ConsecutiveFailures != 1 {
		t.Errorf("Expected 1 consecutive failure, got %d", usage.ConsecutiveFailures)
	}
	if usage.CircuitOpen {
		t.Error("Expected circuit closed")
	}
	if !usage.CircuitOpenUntil.IsZero() {
		t.Errorf("Expected zero CircuitOpenUntil for closed circuit, got %v", usage.CircuitOpenUntil)
	}
	if usage.Limits.RPM != 10 {
		t.Errorf("Expected tier rpm 10 in snapshot, got %d", usage.Limits.RPM)
	}
}

func TestLimiter_Usage_OpenCircuit(t *testing.T) {
	limiter, clock := newTestLimiter()
	configureModel(limiter, "m", 10, 0, 0, 0, 1, time.Minute)

	limiter.RecordFailure("m")

	usage := limiter.Usage("m")
	if !usage.CircuitOpen {
		t.Fatal("Expected open circuit in snapshot")
	}
	want := clock.Now().Add(time.Minute)
	if !usage.CircuitOpenUntil.Equal(want) {
		t.Errorf("Expected CircuitOpenUntil %v, got %v", want, usage.CircuitOpenUntil)
	}

	clock.Advance(61 * time.Second)

	usage = limiter.Usage("m")
	if usage.CircuitOpen {
		t.Error("Expected closed circuit after timeout in snapshot")
	}
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestLimiter_Check_ConcurrentNeverOverAdmits(t *testing.T) {
	limiter := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	configureModel(limiter, "m", 50, 0, 0, 0, 3, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Check("m", "x"); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	// The check-then-reserve critical section must admit exactly rpm.
	if admitted != 50 {
		t.Errorf("Expected exactly 50 admitted, got %d", admitted)
	}
}

func TestLimiter_ConcurrentRecordAndCheck(t *testing.T) {
	limiter := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	configureModel(limiter, "m", 1000, 0, 0, 0, 1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = limiter.Check("m", "x")
			if n%2 == 0 {
				limiter.RecordSuccess("m")
			} else {
				limiter.RecordFailure("m")
			}
			_ = limiter.Usage("m")
		}(i)
	}

	wg.Wait()

	usage := limiter.Usage("m")
	if usage.WindowRequests != 50 {
		t.Errorf("Expected 50 requests in window, got %d", usage.WindowRequests)
	}
}

// ============================================================================
// Benchmarks
// ============================================================================

func BenchmarkLimiter_Check(b *testing.B) {
	limiter := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	configureModel(limiter, "bench", 1<<30, 1<<30, 1<<30, 0, 3, time.Minute)

	// Step the clock so the windows reach a steady size instead of
	// growing with b.N.
	clock := newTestClock()
	limiter.now = clock.Now

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		clock.Advance(100 * time.Millisecond)
		_ = limiter.Check("bench", "benchmark prompt text")
	}
}

func BenchmarkLimiter_CheckRejected(b *testing.B) {
	limiter := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	configureModel(limiter, "bench", 1, 0, 0, 0, 3, time.Minute)

	// Freeze the clock so the consumed slot never ages out.
	clock := newTestClock()
	limiter.now = clock.Now
	_ = limiter.Check("bench", "x")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = limiter.Check("bench", "x")
	}
}

func BenchmarkLimiter_Usage(b *testing.B) {
	limiter := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	configureModel(limiter, "bench", 1<<30, 1<<30, 1<<30, 0, 3, time.Minute)
	for i := 0; i < 100; i++ {
		_ = limiter.Check("bench", "x")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = limiter.Usage("bench")
	}
}
