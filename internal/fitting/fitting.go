// Package fitting resolves a user photo and a wardrobe selection into one
// try-on generation call.
package fitting

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ycwei/smartlook/internal/capture"
	"github.com/ycwei/smartlook/internal/llm"
	"github.com/ycwei/smartlook/internal/wardrobe"
)

var (
	// ErrNoUserPhoto means the session has no body photo to compose onto.
	ErrNoUserPhoto = errors.New("no user photo uploaded")

	// ErrEmptySelection means no garments were selected.
	ErrEmptySelection = errors.New("no garments selected")
)

// Orchestrator turns a selection of wardrobe ids into a try-on result.
type Orchestrator struct {
	gateway llm.Gateway
}

func NewOrchestrator(gateway llm.Gateway) *Orchestrator {
	return &Orchestrator{gateway: gateway}
}

// Generate resolves each selected id to its stored image, preserving the
// caller's order, and forwards everything in a single gateway call. On
// failure nothing is mutated; the selection and user photo are left for a
// manual retry.
func (o *Orchestrator) Generate(ctx context.Context, userPhoto capture.Photo, store *wardrobe.Store, selectionIDs []string) (*llm.TryOnResult, error) {
	if userPhoto.IsZero() {
		return nil, ErrNoUserPhoto
	}
	if len(selectionIDs) == 0 {
		return nil, ErrEmptySelection
	}

	garmentImages := make([][]byte, 0, len(selectionIDs))
	for _, id := range selectionIDs {
		entry, ok := store.Get(id)
		if !ok {
			return nil, fmt.Errorf("selected garment %s is not in the wardrobe", id)
		}
		garmentImages = append(garmentImages, entry.Image.Data)
	}

	result, err := o.gateway.GenerateWardrobeTryOn(ctx, userPhoto.Data, garmentImages)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("garments", len(garmentImages)).
		Bool("hasImage", result.Image != nil).
		Msg("try-on generated")

	return result, nil
}
