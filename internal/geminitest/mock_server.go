// Package geminitest provides a mock Generative Language API server for
// transport tests. It serves canned generateContent responses and records
// every request it receives.
package geminitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Response defines a canned response for one endpoint.
type Response struct {
	StatusCode int
	Body       interface{}
	Headers    map[string]string

	// Delay holds the response back to simulate a slow upstream.
	Delay time.Duration
}

// RecordedRequest captures one request received by the server.
type RecordedRequest struct {
	// Path is the request URL path, including the model and method
	// (e.g. "/models/gemini-1.5-flash:generateContent").
	Path string

	// APIKey is the x-goog-api-key header value.
	APIKey string

	// Body is the raw request body.
	Body []byte
}

// MockServer simulates the Generative Language API.
type MockServer struct {
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]Response
	requests  []RecordedRequest
}

// NewMockServer creates and starts a mock server. Paths without a
// configured response return 404.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]Response),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the server's base URL, suitable as a client BaseURL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close shuts the server down.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse configures the canned response for a URL path.
func (ms *MockServer) SetResponse(path string, response Response) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// SetModelResponse configures the canned response for a model's
// generateContent endpoint.
func (ms *MockServer) SetModelResponse(model string, response Response) {
	ms.SetResponse("/models/"+model+":generateContent", response)
}

// RequestCount returns the number of requests received so far.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.requests)
}

// Requests returns a copy of the recorded requests, in order.
func (ms *MockServer) Requests() []RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]RecordedRequest(nil), ms.requests...)
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requests = append(ms.requests, RecordedRequest{
		Path:   r.URL.Path,
		APIKey: r.Header.Get("x-goog-api-key"),
		Body:   body,
	})
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		time.Sleep(response.Delay)
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(response.StatusCode)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

// GenerateBody builds a successful generateContent response body with the
// given text and a fixed 10/20/30 usage block.
func GenerateBody(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role": "model",
					"parts": []map[string]interface{}{
						{"text": text},
					},
				},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]interface{}{
			"promptTokenCount":     10,
			"candidatesTokenCount": 20,
			"totalTokenCount":      30,
		},
	}
}

// MultiPartBody builds a successful response whose candidate text is split
// across several parts.
func MultiPartBody(parts ...string) map[string]interface{} {
	wireParts := make([]map[string]interface{}, 0, len(parts))
	for _, p := range parts {
		wireParts = append(wireParts, map[string]interface{}{"text": p})
	}
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": wireParts,
				},
				"finishReason": "STOP",
			},
		},
	}
}

// SafetyBlockedBody builds a response whose prompt was blocked outright:
// no candidates, only prompt feedback with the block reason.
func SafetyBlockedBody(reason string) map[string]interface{} {
	return map[string]interface{}{
		"promptFeedback": map[string]interface{}{
			"blockReason": reason,
			"safetyRatings": []map[string]interface{}{
				{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "probability": "HIGH"},
			},
		},
	}
}

// ErrorBody builds the API error envelope returned with non-2xx statuses.
func ErrorBody(code int, status, message string) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"status":  status,
			"message": message,
		},
	}
}

// RateLimited builds a 429 response with a Retry-After header.
func RateLimited(retryAfterSeconds int) Response {
	return Response{
		StatusCode: http.StatusTooManyRequests,
		Body:       ErrorBody(http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "Quota exceeded"),
		Headers: map[string]string{
			"Retry-After": fmt.Sprintf("%d", retryAfterSeconds),
		},
	}
}

// AuthError builds a 401 or 403 response.
func AuthError(statusCode int) Response {
	return Response{
		StatusCode: statusCode,
		Body:       ErrorBody(statusCode, "PERMISSION_DENIED", "API key not valid"),
	}
}

// ServerError builds a 500 response.
func ServerError() Response {
	return Response{
		StatusCode: http.StatusInternalServerError,
		Body:       ErrorBody(http.StatusInternalServerError, "INTERNAL", "Internal error encountered"),
	}
}
