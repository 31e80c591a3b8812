package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"dewey-hq/governor/pkg/completion"
	"dewey-hq/governor/pkg/telemetry/logging"
	"dewey-hq/governor/pkg/telemetry/metrics"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultBaseURL             = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTimeout             = 60 * time.Second
	DefaultMaxOutputTokens     = 2048
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second
)

// Config holds the transport configuration.
type Config struct {
	// APIKey authenticates against the API. Required.
	APIKey string

	// BaseURL is the API root, including the version segment.
	// Default: DefaultBaseURL.
	BaseURL string

	// Timeout bounds one full round trip.
	// Default: DefaultTimeout.
	Timeout time.Duration

	// MaxOutputTokens caps the generated text per call.
	// Default: DefaultMaxOutputTokens.
	MaxOutputTokens int

	// Temperature tunes sampling randomness. Zero leaves the API default
	// in effect.
	Temperature float64

	// Connection pool tuning.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// Client is an HTTP client for the Generative Language API. All model
// handles returned by Model share its pooled transport. A Client is safe
// for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// Options carries the optional collaborators for a Client.
type Options struct {
	// Logger receives the transport's structured logs.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records per-round-trip request, latency, and error metrics
	// when set.
	Metrics *metrics.Collector
}

// New creates a client with default options.
func New(cfg Config) (*Client, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a client with explicit options. The API key is
// required; every other zero Config field receives its default.
func NewWithOptions(cfg Config, opts Options) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = DefaultMaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = DefaultIdleConnTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger:  logger,
		metrics: opts.Metrics,
	}

	logger.Info("Gemini client initialized",
		"base_url", cfg.BaseURL,
		"timeout", cfg.Timeout,
		"max_output_tokens", cfg.MaxOutputTokens,
	)

	return c, nil
}

// Model returns the generation handle for a model id. Model has the
// completion.Factory signature, so a *Client plugs directly into
// completion.New.
func (c *Client) Model(id string) (completion.ModelHandle, error) {
	if id == "" {
		return nil, ErrNoModelID
	}
	return &modelHandle{client: c, model: id}, nil
}

// Close releases idle connections. Handles created by Model must not be
// used afterwards.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	c.logger.Debug("Gemini client closed")
	return nil
}

// generationConfig builds the per-request generation parameters from the
// client configuration.
func (c *Client) generationConfig() *GenerationConfig {
	gc := &GenerationConfig{MaxOutputTokens: c.cfg.MaxOutputTokens}
	if c.cfg.Temperature > 0 {
		t := c.cfg.Temperature
		gc.Temperature = &t
	}
	return gc
}

func (c *Client) recordError(model, errorType string) {
	if c.metrics != nil {
		c.metrics.RecordGeneratorError(model, errorType)
	}
}

// modelHandle is the completion.ModelHandle for a single model. All
// handles share the client's pooled transport.
type modelHandle struct {
	client *Client
	model  string
}

// Generate performs exactly one generateContent round trip. Retry policy
// belongs to the completion client; retrying here as well would multiply
// the attempt count and defeat the rate limiter's bookkeeping.
func (h *modelHandle) Generate(ctx context.Context, prompt string) (*completion.Result, error) {
	c := h.client

	payload := GenerateContentRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: prompt}}},
		},
		GenerationConfig: c.generationConfig(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request for model %q: %w", h.model, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), h.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request for model %q: %w", h.model, err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key travels in a header so URL logging can never leak it.
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	log := c.logger.With("model", h.model)
	if requestID := logging.GetRequestID(ctx); requestID != "" {
		log = log.With("request_id", requestID)
	}
	log.Debug("Sending generateContent request", "prompt_chars", len(prompt))

	if c.metrics != nil {
		c.metrics.RecordGeneratorRequest(h.model)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if c.metrics != nil {
		c.metrics.RecordGeneratorLatency(h.model, duration.Seconds())
	}

	if err != nil {
		var netErr net.Error
		if ctx.Err() != nil || (errors.As(err, &netErr) && netErr.Timeout()) {
			c.recordError(h.model, "timeout")
			log.Warn("Request timed out", "duration", duration)
			return nil, &TimeoutError{Model: h.model, Timeout: c.cfg.Timeout}
		}
		c.recordError(h.model, "network")
		log.Warn("Request failed", "duration", duration, "error", err)
		return nil, fmt.Errorf("sending request for model %q: %w", h.model, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordError(h.model, "network")
		return nil, fmt.Errorf("reading response for model %q: %w", h.model, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, h.statusError(log, resp, respBody, duration)
	}

	var parsed GenerateContentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		c.recordError(h.model, "parse")
		return nil, fmt.Errorf("decoding response for model %q: %w", h.model, err)
	}

	result := buildResult(&parsed)
	if strings.TrimSpace(result.Text) == "" {
		if blocked(&parsed) {
			c.recordError(h.model, "safety_block")
			log.Warn("Generation blocked",
				"finish_reason", result.FinishReason,
				"duration", duration,
			)
		} else {
			c.recordError(h.model, "empty_response")
			log.Warn("Generation returned no text",
				"finish_reason", result.FinishReason,
				"duration", duration,
			)
		}
		return result, nil
	}

	log.Debug("Generation succeeded",
		"status", resp.StatusCode,
		"duration", duration,
		"finish_reason", result.FinishReason,
	)
	return result, nil
}

// statusError maps a non-2xx response to the typed error for its status.
func (h *modelHandle) statusError(log *slog.Logger, resp *http.Response, body []byte, duration time.Duration) error {
	c := h.client
	status, message := parseErrorBody(body)

	log.Warn("Generation request rejected",
		"status", resp.StatusCode,
		"api_status", status,
		"duration", duration,
	)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.recordError(h.model, "auth")
		return &AuthError{Model: h.model, StatusCode: resp.StatusCode, Message: message}

	case http.StatusTooManyRequests:
		c.recordError(h.model, "rate_limit")
		return &RateLimitedError{
			Model:      h.model,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    message,
		}

	case http.StatusBadRequest:
		c.recordError(h.model, "invalid_request")
		return &APIError{Model: h.model, StatusCode: resp.StatusCode, Status: status, Message: message}

	default:
		c.recordError(h.model, "server_error")
		return &APIError{Model: h.model, StatusCode: resp.StatusCode, Status: status, Message: message}
	}
}

// buildResult flattens a generateContent response into a completion.Result.
// Safety-blocked and candidate-less responses yield empty text with the
// block reason as FinishReason; the empty-response policy lives in the
// completion client.
func buildResult(resp *GenerateContentResponse) *completion.Result {
	result := &completion.Result{}

	if resp.UsageMetadata != nil {
		result.Usage = &completion.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		result.FinishReason = resp.PromptFeedback.BlockReason
		return result
	}

	if len(resp.Candidates) == 0 {
		return result
	}

	candidate := resp.Candidates[0]
	result.FinishReason = candidate.FinishReason

	var text strings.Builder
	if candidate.Content != nil {
		for _, p := range candidate.Content.Parts {
			text.WriteString(p.Text)
		}
	}
	result.Text = text.String()
	return result
}

// blocked reports whether the response was refused on safety grounds,
// either at the prompt or at the candidate level.
func blocked(resp *GenerateContentResponse) bool {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return true
	}
	return len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == "SAFETY"
}

// parseErrorBody extracts the API error envelope. Unparseable bodies fall
// back to the raw text.
func parseErrorBody(body []byte) (status, message string) {
	var envelope ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error.Status, envelope.Error.Message
	}
	return "", strings.TrimSpace(string(body))
}

// parseRetryAfter parses a Retry-After header value. It supports both
// delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
