// Package llm is the sole boundary to the Gemini service. It owns prompt
// construction, response schemas, response parsing, and failure
// translation for the four model-backed operations.
package llm

import (
	"context"

	"github.com/ycwei/smartlook/internal/wardrobe"
)

// Brand is the closed catalog of retail brands the shopping flow may
// recommend from.
type Brand string

const (
	BrandUniqlo Brand = "Uniqlo"
	BrandGU     Brand = "GU"
	BrandLativ  Brand = "Lativ"
)

// Brands lists every supported brand.
var Brands = []Brand{BrandUniqlo, BrandGU, BrandLativ}

// IsValid reports whether b is a known brand.
func (b Brand) IsValid() bool {
	for _, known := range Brands {
		if b == known {
			return true
		}
	}
	return false
}

// AnalysisResult is the classification of a single garment photo. Raw keeps
// the unparsed model response for audit.
type AnalysisResult struct {
	Category    wardrobe.Category `json:"category"`
	Description string            `json:"description"`
	StylingTips string            `json:"stylingTips"`
	Raw         string            `json:"-"`
}

// GeneratedImage is one inline image returned by an image-generation call.
type GeneratedImage struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mimeType"`
}

// TryOnResult is the outcome of a try-on generation. Image and Advice are
// independent outputs of one call: a nil Image with non-empty Advice is a
// valid text-only result, not a failure.
type TryOnResult struct {
	Image  *GeneratedImage `json:"image,omitempty"`
	Advice string          `json:"advice"`
}

// ShopItem is a single recommended catalog item.
type ShopItem struct {
	Brand       Brand   `json:"brand"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Reason      string  `json:"reason"`
	PurchaseURL string  `json:"purchaseUrl"`
}

// ShopRecommendation is the full output of one recommendation call. Items
// is non-empty whenever the call succeeds.
type ShopRecommendation struct {
	StyleAnalysis string     `json:"styleAnalysis"`
	Items         []ShopItem `json:"items"`
}

// Usage contains token usage and cost information for one model call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Gateway exposes the four model-backed operations. Analysis, wardrobe
// try-on and recommendation propagate failures as errors; shop try-on is
// fail-soft and returns a nil image instead.
type Gateway interface {
	// AnalyzeGarment classifies a clothing photo into a category with a
	// description and styling tips.
	AnalyzeGarment(ctx context.Context, image []byte, mimeType string) (*AnalysisResult, error)

	// GenerateWardrobeTryOn composes the user portrait with the garment
	// images, preserving the given garment order. The result image may be
	// nil when the model returns advice only.
	GenerateWardrobeTryOn(ctx context.Context, userImage []byte, garmentImages [][]byte) (*TryOnResult, error)

	// RecommendShopOutfit picks an outfit from the given brands based on
	// the user photo. brands must be non-empty.
	RecommendShopOutfit(ctx context.Context, userImage []byte, brands []Brand) (*ShopRecommendation, error)

	// GenerateShopTryOn renders the user wearing the described items.
	// Returns nil on any failure rather than an error.
	GenerateShopTryOn(ctx context.Context, userImage []byte, itemsDescription string) *GeneratedImage
}
