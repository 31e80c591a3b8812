package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dewey-hq/governor/pkg/config"
	"dewey-hq/governor/pkg/ratelimit"
	"dewey-hq/governor/pkg/telemetry/logging"
	"dewey-hq/governor/pkg/telemetry/metrics"
)

// Outcome labels recorded on the completion request counter.
const (
	outcomeSuccess   = "success"
	outcomeFallback  = "fallback"
	outcomeThrottled = "throttled"
	outcomeError     = "error"
)

// Client orchestrates completion requests across the rate limiter, the
// retry policy, and the fallback model. It is safe for concurrent use.
type Client struct {
	// cfg holds the resolved client configuration.
	cfg config.ClientConfig

	// limiter gates every generation attempt.
	limiter *ratelimit.Limiter

	// factory constructs model handles on first use.
	factory Factory

	// logger receives the client's structured logs.
	logger *slog.Logger

	// metrics records request, retry, and fallback metrics when set.
	metrics *metrics.Collector

	// handles memoizes constructed model handles for the life of the
	// client. Entries are never evicted.
	mu      sync.Mutex
	handles map[string]ModelHandle

	// now and sleep are indirected so tests can control time.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Options carries the optional collaborators for a Client.
type Options struct {
	// Logger receives the client's structured logs.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records request, retry, and fallback metrics when set.
	Metrics *metrics.Collector
}

// New creates a completion client with default options. The limiter and
// factory are required; configuration zero values are filled with the
// package defaults.
func New(cfg config.ClientConfig, limiter *ratelimit.Limiter, factory Factory) (*Client, error) {
	return NewWithOptions(cfg, limiter, factory, Options{})
}

// NewWithOptions creates a completion client with explicit options.
func NewWithOptions(cfg config.ClientConfig, limiter *ratelimit.Limiter, factory Factory, opts Options) (*Client, error) {
	if limiter == nil {
		return nil, ErrNoLimiter
	}
	if factory == nil {
		return nil, ErrNoFactory
	}

	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoffBase <= 0 {
		cfg.RetryBackoffBase = config.DefaultRetryBackoffBase
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:     cfg,
		limiter: limiter,
		factory: factory,
		logger:  logger,
		metrics: opts.Metrics,
		handles: make(map[string]ModelHandle),
		now:     time.Now,
		sleep:   sleepContext,
	}, nil
}

// Generate produces a completion for req.
//
// The resolved model is attempted with the full retry budget. If every
// attempt fails, or the limiter rejects the model outright, and a fallback
// model is configured, the fallback is attempted once with a fresh budget.
// A fallback's failure never deflects to a third model.
//
// The returned error is always a *Error wrapping the last underlying
// cause; raw transport errors never escape unwrapped. Throttling surfaces
// as a *Error wrapping a *ratelimit.Error.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.DefaultModel
	}
	if model == "" {
		return "", &Error{Err: ErrNoModel}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", &Error{Model: model, Err: ErrEmptyPrompt}
	}

	fallback := req.FallbackModel
	if fallback == "" {
		fallback = c.cfg.FallbackModel
	}
	// A fallback equal to the primary would retry the same model with a
	// doubled budget, so it is treated as no fallback.
	if fallback == model {
		fallback = ""
	}

	retries := c.cfg.MaxRetries
	if req.Retries > 0 {
		retries = req.Retries
	}

	requestID := uuid.New().String()
	ctx = logging.WithRequestID(ctx, requestID)

	start := c.now()
	log := c.logger.With("request_id", requestID, "model", model)

	log.Debug("Completion request started",
		"prompt_chars", len(req.Prompt),
		"retries", retries,
		"fallback_model", fallback,
	)

	res, attempts, err := c.generateWithModel(ctx, log, model, req.Prompt, retries)
	if err == nil {
		c.recordCompletion(model, outcomeSuccess, start, res)
		log.Info("Completion succeeded",
			"attempts", attempts,
			"duration", c.now().Sub(start),
			"finish_reason", res.FinishReason,
		)
		return res.Text, nil
	}

	if fallback != "" {
		log.Warn("Primary model exhausted, deflecting to fallback",
			"attempts", attempts,
			"fallback_model", fallback,
			"error", err,
		)
		if c.metrics != nil {
			c.metrics.RecordFallback(model, fallback)
		}

		fbLog := c.logger.With("request_id", requestID, "model", fallback)
		res, fbAttempts, fbErr := c.generateWithModel(ctx, fbLog, fallback, req.Prompt, retries)
		if fbErr == nil {
			c.recordCompletion(fallback, outcomeFallback, start, res)
			fbLog.Info("Completion succeeded on fallback",
				"attempts", fbAttempts,
				"duration", c.now().Sub(start),
				"finish_reason", res.FinishReason,
			)
			return res.Text, nil
		}

		model = fallback
		attempts = fbAttempts
		err = fbErr
		log = fbLog
	}

	outcome := outcomeError
	var throttled *ratelimit.Error
	if errors.As(err, &throttled) {
		outcome = outcomeThrottled
	}
	c.recordCompletion(model, outcome, start, nil)

	log.Error("Completion failed",
		"attempts", attempts,
		"duration", c.now().Sub(start),
		"error", err,
	)
	return "", &Error{Model: model, Attempts: attempts, Err: err}
}

// generateWithModel runs the attempt loop for a single model. It returns
// the result, the number of generation calls made, and the last error.
//
// Every attempt passes through the limiter first. A limiter rejection ends
// the loop immediately: the model will stay throttled for the near term,
// and burning the retry budget against it would not help.
func (c *Client) generateWithModel(ctx context.Context, log *slog.Logger, model, prompt string, retries int) (*Result, int, error) {
	ctx = logging.WithModel(ctx, model)

	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.cfg.RetryBackoffBase
			log.Warn("Retrying generation",
				"attempt", attempt,
				"max_retries", retries,
				"backoff", backoff,
				"error", lastErr,
			)
			if c.metrics != nil {
				c.metrics.RecordRetry(model)
			}

			// Back off outside any lock, honoring cancellation.
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, attempts, err
			}
		}

		if err := c.limiter.Check(model, prompt); err != nil {
			return nil, attempts, err
		}

		handle, err := c.handleFor(model)
		if err != nil {
			return nil, attempts, err
		}

		attempts++
		log.Debug("Generation attempt", "attempt", attempts)

		res, err := handle.Generate(ctx, prompt)
		if err == nil && res != nil && strings.TrimSpace(res.Text) != "" {
			c.limiter.RecordSuccess(model)
			return res, attempts, nil
		}

		if err == nil {
			// Empty and safety-blocked responses are failures; they
			// take the same retry path as transport errors.
			reason := ""
			if res != nil {
				reason = res.FinishReason
			}
			err = &EmptyResponseError{Model: model, FinishReason: reason}
		}

		c.limiter.RecordFailure(model)
		lastErr = err
	}

	return nil, attempts, lastErr
}

// handleFor returns the memoized handle for model, constructing it via the
// factory on first use. Factory errors are returned without being cached,
// so a later request retries construction.
func (c *Client) handleFor(model string) (ModelHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if handle, ok := c.handles[model]; ok {
		return handle, nil
	}

	handle, err := c.factory(model)
	if err != nil {
		return nil, fmt.Errorf("constructing handle for model %q: %w", model, err)
	}

	c.handles[model] = handle
	return handle, nil
}

// recordCompletion records the terminal metrics for one Generate call.
func (c *Client) recordCompletion(model, outcome string, start time.Time, res *Result) {
	if c.metrics == nil {
		return
	}

	var promptTokens, completionTokens int
	if res != nil && res.Usage != nil {
		promptTokens = res.Usage.PromptTokens
		completionTokens = res.Usage.CompletionTokens
	}

	c.metrics.RecordCompletion(model, outcome, c.now().Sub(start), promptTokens, completionTokens)
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
