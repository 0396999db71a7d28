package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/kris-hansen/scribe/utils/config"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// CompatibleProvider talks to OpenAI-compatible chat endpoints (DeepSeek,
// self-hosted gateways) through the official SDK. The SDK's own retries are
// disabled; Retrying owns the retry policy.
type CompatibleProvider struct {
	model   string
	config  config.ProviderConfig
	opts    []option.RequestOption
	verbose bool
}

// NewCompatibleProvider creates a provider for an OpenAI-compatible base URL
func NewCompatibleProvider(cfg config.ProviderConfig) (*CompatibleProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required for compatible provider")
	}
	if cfg.Model == "" {
		return nil, errors.New("model is required for compatible provider")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("compatible provider requires endpoint (OpenAI-compatible base URL)")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(NormalizeBaseURL(cfg.Endpoint) + "/"),
		option.WithMaxRetries(0),
	}
	return &CompatibleProvider{model: cfg.Model, config: cfg, opts: opts}, nil
}

// Name returns the provider name
func (c *CompatibleProvider) Name() string {
	return "compatible"
}

func (c *CompatibleProvider) debugf(format string, args ...interface{}) {
	if c.verbose {
		fmt.Printf("[DEBUG][Compatible] "+format+"\n", args...)
	}
}

// Generate sends the system and user prompts as a chat completion
func (c *CompatibleProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (Result, error) {
	client := openaisdk.NewClient(c.opts...)

	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(systemPrompt),
			openaisdk.UserMessage(userPrompt),
		},
	}
	if c.config.Temperature > 0 {
		params.Temperature = openaisdk.Float(c.config.Temperature)
	}
	if c.config.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(c.config.MaxTokens))
	}

	c.debugf("Sending prompt to model %s", c.model)
	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openaisdk.Error
		if errors.As(err, &apiErr) {
			return Result{}, &ProviderError{Provider: "compatible", StatusCode: apiErr.StatusCode, Message: apiErr.Error(), Err: err}
		}
		if errors.Is(err, context.Canceled) {
			return Result{}, err
		}
		return Result{}, &ProviderError{Provider: "compatible", Message: err.Error(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return Result{}, &ProviderError{Provider: "compatible", Message: "empty choices"}
	}

	text := resp.Choices[0].Message.Content
	c.debugf("API call completed, response length: %d characters", len(text))
	return Result{
		Text: text,
		Usage: &Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// SetVerbose enables or disables verbose mode
func (c *CompatibleProvider) SetVerbose(verbose bool) {
	c.verbose = verbose
}
