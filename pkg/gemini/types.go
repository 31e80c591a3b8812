package gemini

// Wire types for the v1beta models/{model}:generateContent endpoint.

// GenerateContentRequest is the request envelope.
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is one conversational turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a fragment of a turn. Only text parts are used here.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig tunes a single generation. Temperature is a pointer so
// an unset value is omitted rather than sent as zero.
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// GenerateContentResponse is the response envelope.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
}

// Candidate is one generated alternative. The API returns a single
// candidate unless asked otherwise; only the first is used.
type Candidate struct {
	Content       *Content       `json:"content,omitempty"`
	FinishReason  string         `json:"finishReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

// PromptFeedback reports prompt-level safety screening. A non-empty
// BlockReason means the prompt was refused and no candidates exist.
type PromptFeedback struct {
	BlockReason   string         `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

// SafetyRating is one harm category's screening verdict.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
}

// UsageMetadata is the token accounting reported by the API.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// ErrorResponse is the error envelope returned with non-2xx statuses.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail carries the API's error fields.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
