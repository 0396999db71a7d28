package models

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/kris-hansen/scribe/utils/config"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIImageGenerator renders images through the OpenAI images endpoint
type OpenAIImageGenerator struct {
	model   string
	client  *openai.Client
	verbose bool
}

// NewOpenAIImageGenerator creates an image generator from the image config
func NewOpenAIImageGenerator(cfg config.ImageConfig) (*OpenAIImageGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for OpenAI image generation")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = NormalizeBaseURL(cfg.Endpoint)
	}
	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &OpenAIImageGenerator{model: model, client: openai.NewClientWithConfig(clientConfig)}, nil
}

// NewImageGenerator builds the image generator named by cfg.Provider.
func NewImageGenerator(cfg config.ImageConfig) (ImageGenerator, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIImageGenerator(cfg)
	default:
		return nil, fmt.Errorf("image provider %q not supported", cfg.Provider)
	}
}

// SetVerbose enables or disables verbose mode
func (g *OpenAIImageGenerator) SetVerbose(verbose bool) {
	g.verbose = verbose
}

// GenerateImages implements ImageGenerator.
func (g *OpenAIImageGenerator) GenerateImages(ctx context.Context, prompt string, dim Dimensions, count int) ([][]byte, error) {
	if count < 1 {
		count = 1
	}
	size := ClosestImageSize(dim)
	if g.verbose {
		fmt.Printf("[DEBUG][OpenAI] Generating %d image(s) at %s for requested %dx%d\n", count, size, dim.Width, dim.Height)
	}

	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              count,
		Size:           size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, openAIError("openai-images", err)
	}

	images := make([][]byte, 0, len(resp.Data))
	for i, d := range resp.Data {
		data, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image %d: %w", i+1, err)
		}
		images = append(images, data)
	}
	return images, nil
}

// ClosestImageSize picks the supported output size whose aspect ratio is
// nearest to dim. Unknown or zero dimensions fall back to widescreen.
func ClosestImageSize(dim Dimensions) string {
	if dim.Width <= 0 || dim.Height <= 0 {
		return openai.CreateImageSize1792x1024
	}
	ratio := float64(dim.Width) / float64(dim.Height)
	candidates := []struct {
		size  string
		ratio float64
	}{
		{openai.CreateImageSize1024x1024, 1},
		{openai.CreateImageSize1792x1024, 1792.0 / 1024.0},
		{openai.CreateImageSize1024x1792, 1024.0 / 1792.0},
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if math.Abs(ratio-c.ratio) < math.Abs(ratio-best.ratio) {
			best = c
		}
	}
	return best.size
}
