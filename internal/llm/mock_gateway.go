package llm

import (
	"context"
	"errors"
)

// MockGateway is a function-field test double for Gateway.
type MockGateway struct {
	AnalyzeGarmentFunc        func(ctx context.Context, image []byte, mimeType string) (*AnalysisResult, error)
	GenerateWardrobeTryOnFunc func(ctx context.Context, userImage []byte, garmentImages [][]byte) (*TryOnResult, error)
	RecommendShopOutfitFunc   func(ctx context.Context, userImage []byte, brands []Brand) (*ShopRecommendation, error)
	GenerateShopTryOnFunc     func(ctx context.Context, userImage []byte, itemsDescription string) *GeneratedImage
}

var errMockNotImplemented = errors.New("mock: not implemented")

func (m *MockGateway) AnalyzeGarment(ctx context.Context, image []byte, mimeType string) (*AnalysisResult, error) {
	if m.AnalyzeGarmentFunc == nil {
		return nil, errMockNotImplemented
	}
	return m.AnalyzeGarmentFunc(ctx, image, mimeType)
}

func (m *MockGateway) GenerateWardrobeTryOn(ctx context.Context, userImage []byte, garmentImages [][]byte) (*TryOnResult, error) {
	if m.GenerateWardrobeTryOnFunc == nil {
		return nil, errMockNotImplemented
	}
	return m.GenerateWardrobeTryOnFunc(ctx, userImage, garmentImages)
}

func (m *MockGateway) RecommendShopOutfit(ctx context.Context, userImage []byte, brands []Brand) (*ShopRecommendation, error) {
	if m.RecommendShopOutfitFunc == nil {
		return nil, errMockNotImplemented
	}
	return m.RecommendShopOutfitFunc(ctx, userImage, brands)
}

func (m *MockGateway) GenerateShopTryOn(ctx context.Context, userImage []byte, itemsDescription string) *GeneratedImage {
	if m.GenerateShopTryOnFunc == nil {
		return nil
	}
	return m.GenerateShopTryOnFunc(ctx, userImage, itemsDescription)
}
