package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/kris-hansen/scribe/utils/config"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

// GoogleProvider handles Google AI (Gemini) family of models
type GoogleProvider struct {
	apiKey  string
	model   string
	config  config.ProviderConfig
	verbose bool
}

// NewGoogleProvider creates a new Google provider instance
func NewGoogleProvider(cfg config.ProviderConfig) (*GoogleProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Google provider")
	}
	if !strings.HasPrefix(strings.ToLower(cfg.Model), "gemini-") {
		return nil, fmt.Errorf("invalid Google model: %s", cfg.Model)
	}
	return &GoogleProvider{apiKey: cfg.APIKey, model: cfg.Model, config: cfg}, nil
}

// Name returns the provider name
func (g *GoogleProvider) Name() string {
	return "google"
}

// debugf prints debug information if verbose mode is enabled
func (g *GoogleProvider) debugf(format string, args ...interface{}) {
	if g.verbose {
		fmt.Printf("[DEBUG][Google] "+format+"\n", args...)
	}
}

// Generate sends the prompt pair to Gemini, using the system prompt as the
// model's system instruction
func (g *GoogleProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (Result, error) {
	g.debugf("Preparing to send prompt to model: %s", g.model)

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create Google AI client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	if g.config.Temperature > 0 {
		model.SetTemperature(float32(g.config.Temperature))
	}
	if g.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(g.config.MaxTokens))
	}
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return Result{}, googleError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Result{}, &ProviderError{Provider: "google", Message: "no response candidates returned"}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	res := Result{Text: sb.String()}
	if md := resp.UsageMetadata; md != nil {
		res.Usage = &Usage{
			PromptTokens:     int(md.PromptTokenCount),
			CompletionTokens: int(md.CandidatesTokenCount),
		}
	}
	g.debugf("API call completed, response length: %d characters", len(res.Text))
	return res, nil
}

// SetVerbose enables or disables verbose mode
func (g *GoogleProvider) SetVerbose(verbose bool) {
	g.verbose = verbose
}

// grpcToHTTP maps the gRPC codes Gemini returns onto the HTTP statuses the
// retry policy understands.
var grpcToHTTP = map[codes.Code]int{
	codes.ResourceExhausted: http.StatusTooManyRequests,
	codes.Unavailable:       http.StatusServiceUnavailable,
	codes.Internal:          http.StatusInternalServerError,
	codes.DeadlineExceeded:  http.StatusGatewayTimeout,
	codes.InvalidArgument:   http.StatusBadRequest,
	codes.PermissionDenied:  http.StatusForbidden,
	codes.Unauthenticated:   http.StatusUnauthorized,
	codes.NotFound:          http.StatusNotFound,
}

func googleError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &ProviderError{Provider: "google", StatusCode: gErr.Code, Message: gErr.Message, Err: err}
	}
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.HTTPCode()
		if status <= 0 && apiErr.GRPCStatus() != nil {
			status = grpcToHTTP[apiErr.GRPCStatus().Code()]
		}
		if status < 0 {
			status = 0
		}
		return &ProviderError{Provider: "google", StatusCode: status, Message: apiErr.Error(), Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &ProviderError{Provider: "google", Message: err.Error(), Err: err}
}
