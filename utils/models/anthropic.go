package models

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kris-hansen/scribe/utils/config"
)

const anthropicEndpoint = "https://api.anthropic.com/v1/messages"

// AnthropicProvider handles Anthropic family of models over the Messages API
type AnthropicProvider struct {
	apiKey   string
	endpoint string
	model    string
	config   config.ProviderConfig
	client   *http.Client
	verbose  bool
}

// NewAnthropicProvider creates a new Anthropic provider instance
func NewAnthropicProvider(cfg config.ProviderConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Anthropic provider")
	}
	if !strings.HasPrefix(strings.ToLower(cfg.Model), "claude-") {
		return nil, fmt.Errorf("invalid Anthropic model: %s", cfg.Model)
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = anthropicEndpoint
	}
	return &AnthropicProvider{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		model:    cfg.Model,
		config:   cfg,
		client:   &http.Client{},
	}, nil
}

// debugf prints debug information if verbose mode is enabled
func (a *AnthropicProvider) debugf(format string, args ...interface{}) {
	if a.verbose {
		fmt.Printf("[DEBUG][Anthropic] "+format+"\n", args...)
	}
}

// Name returns the provider name
func (a *AnthropicProvider) Name() string {
	return "anthropic"
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends the prompts to the Messages API and returns the response
func (a *AnthropicProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (Result, error) {
	a.debugf("Preparing to send prompt to model: %s", a.model)

	maxTokens := a.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	reqBody := anthropicRequest{
		Model:       a.model,
		System:      systemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: userPrompt}},
		MaxTokens:   maxTokens,
		Temperature: a.config.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Result{}, err
		}
		return Result{}, &ProviderError{Provider: "anthropic", Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &ProviderError{Provider: "anthropic", Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, &ProviderError{Provider: "anthropic", StatusCode: resp.StatusCode, Message: string(body)}
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if response.Error != nil {
		return Result{}, fmt.Errorf("API error: %s", response.Error.Message)
	}

	var sb strings.Builder
	for _, c := range response.Content {
		if c.Type == "" || c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return Result{}, &ProviderError{Provider: "anthropic", Message: "no response content returned"}
	}

	a.debugf("API call completed, response length: %d characters", sb.Len())
	return Result{
		Text: sb.String(),
		Usage: &Usage{
			PromptTokens:     response.Usage.InputTokens,
			CompletionTokens: response.Usage.OutputTokens,
		},
	}, nil
}

// SetVerbose enables or disables verbose mode
func (a *AnthropicProvider) SetVerbose(verbose bool) {
	a.verbose = verbose
}
