package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kris-hansen/scribe/utils/config"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider handles OpenAI chat completion models
type OpenAIProvider struct {
	model   string
	config  config.ProviderConfig
	client  *openai.Client
	verbose bool
}

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider(cfg config.ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for OpenAI provider")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required for OpenAI provider")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = NormalizeBaseURL(cfg.Endpoint)
	}

	return &OpenAIProvider{
		model:  cfg.Model,
		config: cfg,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// NormalizeBaseURL accepts either a base URL or a full chat completions
// endpoint and returns the base URL the SDKs expect.
func NormalizeBaseURL(endpoint string) string {
	u := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	u = strings.TrimSuffix(u, "/chat/completions")
	return strings.TrimRight(u, "/")
}

// Name returns the provider name
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// debugf prints debug information if verbose mode is enabled
func (o *OpenAIProvider) debugf(format string, args ...interface{}) {
	if o.verbose {
		fmt.Printf("[DEBUG][OpenAI] "+format+"\n", args...)
	}
}

// isNewModelSeries checks if the model only accepts fixed sampling parameters
func (o *OpenAIProvider) isNewModelSeries(modelName string) bool {
	modelName = strings.ToLower(modelName)
	for _, prefix := range []string{"o1", "o3", "o4"} {
		if strings.HasPrefix(modelName, prefix) {
			return true
		}
	}
	return false
}

// createChatCompletionRequest creates a ChatCompletionRequest with the appropriate parameters
func (o *OpenAIProvider) createChatCompletionRequest(systemPrompt, userPrompt string) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}

	if o.isNewModelSeries(o.model) {
		req.MaxCompletionTokens = o.config.MaxTokens
		o.debugf("Using fixed sampling parameters for %s", o.model)
	} else {
		req.MaxTokens = o.config.MaxTokens
		req.Temperature = float32(o.config.Temperature)
	}
	return req
}

// Generate sends the prompts to the configured model and returns the response
func (o *OpenAIProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (Result, error) {
	o.debugf("Sending prompt to model %s (system %d chars, user %d chars)", o.model, len(systemPrompt), len(userPrompt))

	resp, err := o.client.CreateChatCompletion(ctx, o.createChatCompletionRequest(systemPrompt, userPrompt))
	if err != nil {
		return Result{}, openAIError("openai", err)
	}

	if len(resp.Choices) == 0 {
		return Result{}, &ProviderError{Provider: "openai", Message: "no response choices returned"}
	}

	text := resp.Choices[0].Message.Content
	o.debugf("API call completed, response length: %d characters", len(text))

	return Result{
		Text: text,
		Usage: &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// SetVerbose enables or disables verbose mode
func (o *OpenAIProvider) SetVerbose(verbose bool) {
	o.verbose = verbose
}

// openAIError maps go-openai errors onto ProviderError.
func openAIError(provider string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: provider, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Provider: provider, StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error(), Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &ProviderError{Provider: provider, Message: err.Error(), Err: err}
}
