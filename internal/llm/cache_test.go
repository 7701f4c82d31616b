package llm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycwei/smartlook/internal/storage"
	"github.com/ycwei/smartlook/internal/wardrobe"
)

func newTestCacheStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCachedGateway_SecondAnalysisSkipsModel(t *testing.T) {
	calls := 0
	inner := &MockGateway{
		AnalyzeGarmentFunc: func(ctx context.Context, image []byte, mimeType string) (*AnalysisResult, error) {
			calls++
			return &AnalysisResult{
				Category:    wardrobe.CategoryTop,
				Description: "白色T恤",
				StylingTips: "搭配牛仔褲",
				Raw:         `{"category":"上衣"}`,
			}, nil
		},
	}
	gateway := NewCachedGateway(inner, newTestCacheStore(t))
	image := []byte("fake jpeg bytes")

	first, err := gateway.AnalyzeGarment(context.Background(), image, "image/jpeg")
	require.NoError(t, err)

	second, err := gateway.AnalyzeGarment(context.Background(), image, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second analysis of the same image must come from cache")
	assert.Equal(t, first, second)
}

func TestCachedGateway_DifferentImagesMiss(t *testing.T) {
	calls := 0
	inner := &MockGateway{
		AnalyzeGarmentFunc: func(ctx context.Context, image []byte, mimeType string) (*AnalysisResult, error) {
			calls++
			return &AnalysisResult{Category: wardrobe.CategoryTop, Description: "x"}, nil
		},
	}
	gateway := NewCachedGateway(inner, newTestCacheStore(t))

	_, err := gateway.AnalyzeGarment(context.Background(), []byte("image one"), "image/jpeg")
	require.NoError(t, err)
	_, err = gateway.AnalyzeGarment(context.Background(), []byte("image two"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestCachedGateway_FailedAnalysisNotCached(t *testing.T) {
	calls := 0
	inner := &MockGateway{
		AnalyzeGarmentFunc: func(ctx context.Context, image []byte, mimeType string) (*AnalysisResult, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("model unavailable")
			}
			return &AnalysisResult{Category: wardrobe.CategoryTop, Description: "x"}, nil
		},
	}
	gateway := NewCachedGateway(inner, newTestCacheStore(t))
	image := []byte("fake jpeg bytes")

	_, err := gateway.AnalyzeGarment(context.Background(), image, "image/jpeg")
	require.Error(t, err)

	_, err = gateway.AnalyzeGarment(context.Background(), image, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCachedGateway_NilStorePassesThrough(t *testing.T) {
	calls := 0
	inner := &MockGateway{
		AnalyzeGarmentFunc: func(ctx context.Context, image []byte, mimeType string) (*AnalysisResult, error) {
			calls++
			return &AnalysisResult{Category: wardrobe.CategoryTop}, nil
		},
	}
	gateway := NewCachedGateway(inner, nil)
	image := []byte("fake jpeg bytes")

	for i := 0; i < 2; i++ {
		_, err := gateway.AnalyzeGarment(context.Background(), image, "image/jpeg")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestCachedGateway_GenerationPassesThrough(t *testing.T) {
	inner := &MockGateway{
		GenerateWardrobeTryOnFunc: func(ctx context.Context, userImage []byte, garmentImages [][]byte) (*TryOnResult, error) {
			return &TryOnResult{Advice: "建議"}, nil
		},
		GenerateShopTryOnFunc: func(ctx context.Context, userImage []byte, itemsDescription string) *GeneratedImage {
			return &GeneratedImage{Data: []byte{1}, MIMEType: "image/png"}
		},
	}
	gateway := NewCachedGateway(inner, newTestCacheStore(t))

	tryOn, err := gateway.GenerateWardrobeTryOn(context.Background(), []byte("u"), [][]byte{{1}})
	require.NoError(t, err)
	assert.Equal(t, "建議", tryOn.Advice)

	image := gateway.GenerateShopTryOn(context.Background(), []byte("u"), "desc")
	require.NotNil(t, image)
	assert.Equal(t, "image/png", image.MIMEType)
}
