package shopping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycwei/smartlook/internal/capture"
	"github.com/ycwei/smartlook/internal/llm"
)

var portrait = capture.Photo{Data: []byte("portrait"), MIMEType: "image/jpeg"}

func sampleRecommendation() *llm.ShopRecommendation {
	return &llm.ShopRecommendation{
		StyleAnalysis: "簡約休閒風",
		Items: []llm.ShopItem{
			{Brand: llm.BrandUniqlo, Name: "Airism T-shirt", Price: 390, Category: "上衣", Reason: "透氣", PurchaseURL: "https://www.google.com/search?q=Uniqlo+Airism+T-shirt"},
			{Brand: llm.BrandGU, Name: "寬褲", Price: 590, Category: "下著", Reason: "百搭", PurchaseURL: "https://www.google.com/search?q=GU+寬褲"},
		},
	}
}

func TestRun_FullSuccess(t *testing.T) {
	var gotDescription string
	gateway := &llm.MockGateway{
		RecommendShopOutfitFunc: func(ctx context.Context, userImage []byte, brands []llm.Brand) (*llm.ShopRecommendation, error) {
			return sampleRecommendation(), nil
		},
		GenerateShopTryOnFunc: func(ctx context.Context, userImage []byte, itemsDescription string) *llm.GeneratedImage {
			gotDescription = itemsDescription
			return &llm.GeneratedImage{Data: []byte{7}, MIMEType: "image/png"}
		},
	}
	o := NewOrchestrator(gateway)

	result, err := o.Run(context.Background(), portrait, llm.Brands)
	require.NoError(t, err)
	require.NotNil(t, result.Recommendation)
	require.NotNil(t, result.Image)
	assert.Equal(t, "image/png", result.Image.MIMEType)
	assert.Equal(t, "Uniqlo 的 Airism T-shirt (上衣), GU 的 寬褲 (下著)", gotDescription)
}

func TestRun_RecommendationFailureAborts(t *testing.T) {
	synthesisCalled := false
	gateway := &llm.MockGateway{
		RecommendShopOutfitFunc: func(ctx context.Context, userImage []byte, brands []llm.Brand) (*llm.ShopRecommendation, error) {
			return nil, llm.ErrRecommendation
		},
		GenerateShopTryOnFunc: func(ctx context.Context, userImage []byte, itemsDescription string) *llm.GeneratedImage {
			synthesisCalled = true
			return nil
		},
	}
	o := NewOrchestrator(gateway)

	_, err := o.Run(context.Background(), portrait, llm.Brands)
	require.ErrorIs(t, err, llm.ErrRecommendation)
	assert.False(t, synthesisCalled, "synthesis must not run when recommendation fails")
}

func TestRun_SynthesisFailureIsPartialSuccess(t *testing.T) {
	gateway := &llm.MockGateway{
		RecommendShopOutfitFunc: func(ctx context.Context, userImage []byte, brands []llm.Brand) (*llm.ShopRecommendation, error) {
			return sampleRecommendation(), nil
		},
		GenerateShopTryOnFunc: func(ctx context.Context, userImage []byte, itemsDescription string) *llm.GeneratedImage {
			return nil
		},
	}
	o := NewOrchestrator(gateway)

	result, err := o.Run(context.Background(), portrait, llm.Brands)
	require.NoError(t, err)
	require.NotNil(t, result.Recommendation)
	assert.Nil(t, result.Image)
	assert.Equal(t, "簡約休閒風", result.Recommendation.StyleAnalysis)
}

func TestRun_NoUserPhoto(t *testing.T) {
	o := NewOrchestrator(&llm.MockGateway{})
	_, err := o.Run(context.Background(), capture.Photo{}, llm.Brands)
	assert.ErrorIs(t, err, ErrNoUserPhoto)
}

func TestRun_NoBrands(t *testing.T) {
	o := NewOrchestrator(&llm.MockGateway{})
	_, err := o.Run(context.Background(), portrait, nil)
	assert.ErrorIs(t, err, ErrNoBrands)
}

func TestDescribeItems(t *testing.T) {
	items := []llm.ShopItem{
		{Brand: llm.BrandLativ, Name: "polo衫", Category: "上衣"},
	}
	assert.Equal(t, "Lativ 的 polo衫 (上衣)", describeItems(items))
}

func TestTotalPrice(t *testing.T) {
	items := sampleRecommendation().Items
	assert.Equal(t, 980.0, TotalPrice(items))
	assert.Zero(t, TotalPrice(nil))
}
