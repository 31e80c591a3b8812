package tokens

// Estimator estimates token counts for prompt text.
// Implementations may use different algorithms (character-based, BPE, etc.).
type Estimator interface {
	// EstimateText estimates tokens for a single text string.
	// Estimation cannot fail; unknown models use a default ratio.
	EstimateText(text string, model string) int
}
