package tokens

import "strings"

// defaultRatios maps model families to characters-per-token ratios.
// Keys are matched exactly first, then as prefixes, then "default".
var defaultRatios = map[string]float64{
	"gemini":  4.0,
	"claude":  3.5,
	"gpt":     4.0,
	"default": 4.0,
}

// SimpleEstimator implements character-based token estimation.
// It uses model-family characters-per-token ratios and is immutable after
// construction, so it is safe for concurrent use without locking.
type SimpleEstimator struct {
	ratios map[string]float64
}

// NewSimpleEstimator creates an estimator with the built-in model ratios.
func NewSimpleEstimator() *SimpleEstimator {
	return NewSimpleEstimatorWithRatios(nil)
}

// NewSimpleEstimatorWithRatios creates an estimator with custom
// characters-per-token ratios merged over the built-in ones.
func NewSimpleEstimatorWithRatios(ratios map[string]float64) *SimpleEstimator {
	merged := make(map[string]float64, len(defaultRatios)+len(ratios))
	for model, ratio := range defaultRatios {
		merged[model] = ratio
	}
	for model, ratio := range ratios {
		if ratio > 0 {
			merged[model] = ratio
		}
	}
	return &SimpleEstimator{ratios: merged}
}

// EstimateText estimates tokens for a single text string using the
// model's characters-per-token ratio.
func (e *SimpleEstimator) EstimateText(text string, model string) int {
	if text == "" {
		return 0
	}

	charsPerToken := e.charsPerToken(model)
	estimated := float64(len(text)) / charsPerToken
	if estimated < 1.0 {
		estimated = 1.0 // minimum 1 token for non-empty text
	}

	return int(estimated + 0.5) // round to nearest integer
}

// charsPerToken returns the characters-per-token ratio for a model.
// Lookup order: exact match, then family prefix (e.g. "gemini" matches
// "gemini-1.5-flash"), then the "default" entry.
func (e *SimpleEstimator) charsPerToken(model string) float64 {
	if ratio, ok := e.ratios[model]; ok {
		return ratio
	}

	for pattern, ratio := range e.ratios {
		if pattern != "default" && strings.HasPrefix(model, pattern) {
			return ratio
		}
	}

	if ratio, ok := e.ratios["default"]; ok {
		return ratio
	}

	return 4.0
}
