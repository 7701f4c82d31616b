// Package shopping runs the two-step recommend-then-render pipeline for
// the simulated retail catalog.
package shopping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ycwei/smartlook/internal/capture"
	"github.com/ycwei/smartlook/internal/llm"
)

var (
	// ErrNoUserPhoto means there is no body photo to analyze.
	ErrNoUserPhoto = errors.New("no user photo uploaded")

	// ErrNoBrands means the brand set is empty.
	ErrNoBrands = errors.New("no brands selected")
)

// Result is the outcome of one shopping run. Recommendation is always
// present on success; Image may be nil when synthesis failed or returned
// nothing, in which case the caller shows the plain user photo instead.
type Result struct {
	Recommendation *llm.ShopRecommendation `json:"recommendation"`
	Image          *llm.GeneratedImage     `json:"image,omitempty"`
}

// Orchestrator sequences the recommendation and image-synthesis calls.
type Orchestrator struct {
	gateway llm.Gateway
}

func NewOrchestrator(gateway llm.Gateway) *Orchestrator {
	return &Orchestrator{gateway: gateway}
}

// Run executes the pipeline. The second call's input is derived from the
// first call's output, so the steps cannot overlap. A step-1 failure aborts
// the run; a step-2 failure still yields the recommendation (partial
// success by contract).
func (o *Orchestrator) Run(ctx context.Context, userPhoto capture.Photo, brands []llm.Brand) (*Result, error) {
	if userPhoto.IsZero() {
		return nil, ErrNoUserPhoto
	}
	if len(brands) == 0 {
		return nil, ErrNoBrands
	}

	rec, err := o.gateway.RecommendShopOutfit(ctx, userPhoto.Data, brands)
	if err != nil {
		return nil, err
	}

	desc := describeItems(rec.Items)
	image := o.gateway.GenerateShopTryOn(ctx, userPhoto.Data, desc)
	if image == nil {
		log.Info().Int("items", len(rec.Items)).Msg("shop try-on degraded to text-only recommendation")
	}

	return &Result{Recommendation: rec, Image: image}, nil
}

// describeItems concatenates the recommended items into the descriptive
// text handed verbatim to the image-synthesis call.
func describeItems(items []llm.ShopItem) string {
	descriptions := make([]string, len(items))
	for i, item := range items {
		descriptions[i] = fmt.Sprintf("%s 的 %s (%s)", item.Brand, item.Name, item.Category)
	}
	return strings.Join(descriptions, ", ")
}

// TotalPrice sums the item prices with no rounding or fees.
func TotalPrice(items []llm.ShopItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price
	}
	return total
}
