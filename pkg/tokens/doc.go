// Package tokens provides pre-call token estimation for prompts.
//
// Estimates feed the advisory tokens-per-minute accounting in the rate
// limiter. They are computed from prompt length alone, before any request
// is sent, so they are approximations: actual token counts are only known
// once a response returns, and nothing in this package corrects for them.
//
// # Estimation Accuracy
//
// The character-based algorithm uses model-family ratios and stays within
// a few percent of real tokenizer output for plain prose:
//
//   - Gemini family: ~4 characters per token
//   - Claude family: ~3.5 characters per token
//
// # Usage
//
//	estimator := tokens.NewSimpleEstimator()
//	n := estimator.EstimateText(prompt, "gemini-1.5-flash")
package tokens
