package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/ycwei/smartlook/internal/wardrobe"
)

const (
	geminiModel      = "gemini-2.5-flash"
	geminiImageModel = "gemini-2.5-flash-image"
)

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion       = 0.30 // $0.30 per 1M input tokens (text/image)
	geminiOutputPricePerMillion      = 2.50 // $2.50 per 1M output tokens
	geminiImageInputPricePerMillion  = 0.30
	geminiImageOutputPricePerMillion = 30.00 // image output tokens
)

const analysisSystemInstruction = `你是專業的智能櫥窗管理員。請分析圖片中的衣物。
請嚴格按照以下 JSON 格式回傳，不要有 Markdown 標記。
類別(category)只能是以下之一： '上衣', '下著', '內搭', '外套', '鞋子', '配飾', '其他'。`

const analysisPrompt = `分析這件衣物。請提供類別、詳細描述(材質、風格)以及3個穿搭建議(包含場合)。`

const wardrobeTryOnPrompt = `這是一位使用者的照片(第一張圖)以及他想嘗試的衣物(後續圖片)。
任務：
1. 生成一張這名使用者穿著這些衣物的照片。請保持使用者的人臉特徵、體型和背景氛圍。
2. 根據使用者的臉型和服裝風格，提供髮型建議。

請回傳生成的圖片以及針對整體造型的文字建議。`

const shopRecommendPrompt = `分析這張用戶照片的風格、身形和膚色。
請從以下台灣品牌中：%s，挑選一套適合他的當季穿搭(2-3件單品)。
請提供具體的商品名稱(不需要完全準確的型號，但要符合該品牌風格)、預估台幣價格、以及推薦理由。

重要：請為每件商品生成一個 'purchaseUrl'。這應該是一個 Google 搜尋連結，格式為：
'https://www.google.com/search?q=' 加上 '品牌 名稱' (例如：https://www.google.com/search?q=Uniqlo+Airism+T-shirt)。

回傳格式必須為 JSON。`

const shopTryOnPrompt = `這是使用者的照片。請生成一張他穿著以下服裝的逼真照片：
%s

請保持：
1. 使用者的人臉特徵和體型。
2. 服裝的質感與品牌風格 (Uniqlo/GU/Lativ 風格)。
3. 自然的光影。

只回傳圖片。`

// GeminiGateway implements Gateway against the Gemini API.
//
// The underlying client is constructed lazily on first use so that a
// missing GEMINI_API_KEY surfaces as an error on the first call rather
// than at startup.
type GeminiGateway struct {
	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiGateway creates a gateway. No credential check happens here.
func NewGeminiGateway() *GeminiGateway {
	return &GeminiGateway{}
}

func (g *GeminiGateway) conn(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	return client, nil
}

// analysisSchema constrains the classification response: the category must
// be one of the closed enum values.
func analysisSchema() *genai.Schema {
	categories := make([]string, len(wardrobe.Categories))
	for i, c := range wardrobe.Categories {
		categories[i] = string(c)
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"category":    {Type: genai.TypeString, Enum: categories},
			"description": {Type: genai.TypeString},
			"stylingTips": {Type: genai.TypeString},
		},
		Required: []string{"category", "description", "stylingTips"},
	}
}

func shopRecommendationSchema() *genai.Schema {
	brands := make([]string, len(Brands))
	for i, b := range Brands {
		brands[i] = string(b)
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"styleAnalysis": {Type: genai.TypeString, Description: "對用戶風格的分析"},
			"items": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"brand":       {Type: genai.TypeString, Enum: brands},
						"name":        {Type: genai.TypeString},
						"price":       {Type: genai.TypeNumber},
						"category":    {Type: genai.TypeString},
						"reason":      {Type: genai.TypeString},
						"purchaseUrl": {Type: genai.TypeString, Description: "購買連結 (Google Search URL)"},
					},
					Required: []string{"brand", "name", "price", "category", "reason", "purchaseUrl"},
				},
			},
		},
		Required: []string{"styleAnalysis", "items"},
	}
}

// AnalyzeGarment implements Gateway.
func (g *GeminiGateway) AnalyzeGarment(ctx context.Context, image []byte, mimeType string) (*AnalysisResult, error) {
	client, err := g.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: image, MIMEType: mimeType}},
		genai.NewPartFromText(analysisPrompt),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(analysisSystemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    analysisSchema(),
	}

	result, err := client.Models.GenerateContent(ctx, geminiModel, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response from gemini", ErrAnalysis)
	}

	raw := result.Text()
	analysis, err := parseAnalysis(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}

	logUsage("garment analysis", geminiModel, result, geminiInputPricePerMillion, geminiOutputPricePerMillion)

	return analysis, nil
}

// parseAnalysis decodes a classification response and rejects categories
// outside the closed enum. The schema constrains the category already, but
// an out-of-enum value is still a contract violation and must not reach
// the wardrobe.
func parseAnalysis(raw string) (*AnalysisResult, error) {
	jsonStr, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var analysis AnalysisResult
	if err := json.Unmarshal([]byte(jsonStr), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w (response: %s)", err, jsonStr)
	}
	if !analysis.Category.IsValid() {
		return nil, fmt.Errorf("model returned unknown category %q", analysis.Category)
	}
	analysis.Raw = raw
	return &analysis, nil
}

// GenerateWardrobeTryOn implements Gateway. The portrait goes first and the
// garment images follow in the given order; the order is never rearranged.
func (g *GeminiGateway) GenerateWardrobeTryOn(ctx context.Context, userImage []byte, garmentImages [][]byte) (*TryOnResult, error) {
	client, err := g.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTryOn, err)
	}
	if len(garmentImages) == 0 {
		return nil, fmt.Errorf("%w: no garment images provided", ErrTryOn)
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: userImage, MIMEType: "image/jpeg"}},
	}
	for _, img := range garmentImages {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img, MIMEType: "image/jpeg"},
		})
	}
	parts = append(parts, genai.NewPartFromText(wardrobeTryOnPrompt))

	result, err := client.Models.GenerateContent(ctx, geminiImageModel, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTryOn, err)
	}

	image, advice := splitImageAndText(result)
	if image == nil && advice == "" {
		return nil, fmt.Errorf("%w: empty response from gemini", ErrTryOn)
	}

	logUsage("wardrobe try-on", geminiImageModel, result, geminiImageInputPricePerMillion, geminiImageOutputPricePerMillion)

	return &TryOnResult{Image: image, Advice: advice}, nil
}

// RecommendShopOutfit implements Gateway.
func (g *GeminiGateway) RecommendShopOutfit(ctx context.Context, userImage []byte, brands []Brand) (*ShopRecommendation, error) {
	client, err := g.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecommendation, err)
	}
	if len(brands) == 0 {
		return nil, fmt.Errorf("%w: no brands selected", ErrRecommendation)
	}
	for _, b := range brands {
		if !b.IsValid() {
			return nil, fmt.Errorf("%w: unknown brand %q", ErrRecommendation, b)
		}
	}

	brandNames := make([]string, len(brands))
	for i, b := range brands {
		brandNames[i] = string(b)
	}
	prompt := formatPrompt(shopRecommendPrompt, strings.Join(brandNames, "、"))

	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: userImage, MIMEType: "image/jpeg"}},
		genai.NewPartFromText(prompt),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   shopRecommendationSchema(),
	}

	result, err := client.Models.GenerateContent(ctx, geminiModel, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecommendation, err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response from gemini", ErrRecommendation)
	}

	raw := result.Text()
	rec, err := parseRecommendation(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecommendation, err)
	}

	logUsage("shop recommendation", geminiModel, result, geminiInputPricePerMillion, geminiOutputPricePerMillion)

	return rec, nil
}

// parseRecommendation decodes a recommendation response and normalizes the
// purchase links. An empty item list is a contract violation.
func parseRecommendation(raw string) (*ShopRecommendation, error) {
	jsonStr, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var rec ShopRecommendation
	if err := json.Unmarshal([]byte(jsonStr), &rec); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w (response: %s)", err, jsonStr)
	}
	if len(rec.Items) == 0 {
		return nil, fmt.Errorf("model returned no items")
	}
	for i, item := range rec.Items {
		if !item.Brand.IsValid() {
			return nil, fmt.Errorf("model returned unknown brand %q", item.Brand)
		}
		rec.Items[i].PurchaseURL = normalizePurchaseURL(item)
	}
	return &rec, nil
}

// GenerateShopTryOn implements Gateway. Any failure degrades to a nil
// image; the recommendation text retains value without it.
func (g *GeminiGateway) GenerateShopTryOn(ctx context.Context, userImage []byte, itemsDescription string) *GeneratedImage {
	client, err := g.conn(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("shop try-on unavailable")
		return nil
	}

	prompt := formatPrompt(shopTryOnPrompt, itemsDescription)
	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: userImage, MIMEType: "image/jpeg"}},
		genai.NewPartFromText(prompt),
	}

	result, err := client.Models.GenerateContent(ctx, geminiImageModel, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, nil)
	if err != nil {
		log.Warn().Err(err).Msg("shop try-on generation failed")
		return nil
	}

	image, _ := splitImageAndText(result)
	if image == nil {
		log.Warn().Msg("shop try-on returned no image")
		return nil
	}

	logUsage("shop try-on", geminiImageModel, result, geminiImageInputPricePerMillion, geminiImageOutputPricePerMillion)

	return image
}

// splitImageAndText unpacks a mixed-part response: the first inline-image
// part becomes the result image and all text parts are concatenated.
func splitImageAndText(result *genai.GenerateContentResponse) (*GeneratedImage, string) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, ""
	}

	var image *GeneratedImage
	var advice strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		switch {
		case part.InlineData != nil && image == nil:
			image = &GeneratedImage{
				Data:     part.InlineData.Data,
				MIMEType: part.InlineData.MIMEType,
			}
		case part.Text != "":
			advice.WriteString(part.Text)
		}
	}
	return image, strings.TrimSpace(advice.String())
}

// extractJSONObject extracts a JSON object from text that may contain
// markdown code blocks or other formatting.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}

// normalizePurchaseURL keeps the model's link when it is a well-formed
// http(s) URL, otherwise synthesizes the documented search link from brand
// and name.
func normalizePurchaseURL(item ShopItem) string {
	if u, err := url.Parse(item.PurchaseURL); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return item.PurchaseURL
	}
	query := url.QueryEscape(fmt.Sprintf("%s %s", item.Brand, item.Name))
	return "https://www.google.com/search?q=" + query
}

func logUsage(op, model string, result *genai.GenerateContentResponse, inputPrice, outputPrice float64) {
	if result.UsageMetadata == nil {
		return
	}
	usage := Usage{
		InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
		OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
	}
	usage.CostUSD = calculateGeminiCost(usage.InputTokens, usage.OutputTokens, inputPrice, outputPrice)

	log.Info().
		Str("model", model).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg(op + " llm call")
}

func calculateGeminiCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}
