package llm

import "errors"

// Sentinel errors distinguishing which operation failed. Callers match with
// errors.Is; the wrapped chain carries the underlying cause.
var (
	// ErrMissingAPIKey means GEMINI_API_KEY is not configured. It is raised
	// lazily on the first gateway call, not at startup.
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

	// ErrAnalysis means garment analysis failed.
	ErrAnalysis = errors.New("garment analysis failed")

	// ErrTryOn means wardrobe try-on generation failed.
	ErrTryOn = errors.New("try-on generation failed")

	// ErrRecommendation means shop outfit recommendation failed.
	ErrRecommendation = errors.New("outfit recommendation failed")
)
