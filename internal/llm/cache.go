package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"

	"github.com/ycwei/smartlook/internal/storage"
	"github.com/ycwei/smartlook/internal/wardrobe"
)

// CachedGateway wraps a Gateway with SQLite caching of garment analyses.
// Generation and recommendation calls pass through untouched: their output
// depends on the whole request, not just one image.
type CachedGateway struct {
	inner Gateway
	store storage.CacheStore
}

// NewCachedGateway creates a caching wrapper around inner.
func NewCachedGateway(inner Gateway, store storage.CacheStore) *CachedGateway {
	return &CachedGateway{inner: inner, store: store}
}

func hashImage(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// AnalyzeGarment implements Gateway with caching. Cache failures degrade to
// a direct model call.
func (c *CachedGateway) AnalyzeGarment(ctx context.Context, image []byte, mimeType string) (*AnalysisResult, error) {
	hash := hashImage(image)

	if c.store != nil {
		cached, err := c.store.GetAnalysisCache(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check analysis cache")
		} else if cached != nil {
			log.Debug().Str("hash", hash[:16]).Msg("analysis cache hit")
			return &AnalysisResult{
				Category:    wardrobe.Category(cached.Category),
				Description: cached.Description,
				StylingTips: cached.StylingTips,
				Raw:         cached.Raw,
			}, nil
		}
	}

	result, err := c.inner.AnalyzeGarment(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		entry := &storage.AnalysisCacheEntry{
			Category:    string(result.Category),
			Description: result.Description,
			StylingTips: result.StylingTips,
			Raw:         result.Raw,
		}
		if err := c.store.SetAnalysisCache(hash, entry); err != nil {
			log.Warn().Err(err).Msg("failed to cache analysis result")
		} else {
			log.Debug().Str("hash", hash[:16]).Msg("cached analysis result")
		}
	}

	return result, nil
}

// GenerateWardrobeTryOn implements Gateway.
func (c *CachedGateway) GenerateWardrobeTryOn(ctx context.Context, userImage []byte, garmentImages [][]byte) (*TryOnResult, error) {
	return c.inner.GenerateWardrobeTryOn(ctx, userImage, garmentImages)
}

// RecommendShopOutfit implements Gateway.
func (c *CachedGateway) RecommendShopOutfit(ctx context.Context, userImage []byte, brands []Brand) (*ShopRecommendation, error) {
	return c.inner.RecommendShopOutfit(ctx, userImage, brands)
}

// GenerateShopTryOn implements Gateway.
func (c *CachedGateway) GenerateShopTryOn(ctx context.Context, userImage []byte, itemsDescription string) *GeneratedImage {
	return c.inner.GenerateShopTryOn(ctx, userImage, itemsDescription)
}
