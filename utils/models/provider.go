package models

import "context"

// Usage is the token accounting reported by a provider for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Result is a single text completion.
type Result struct {
	Text  string
	Usage *Usage
}

// Generator produces text from a system and a user prompt. Implementations
// are stateless per call and may fail transiently; see Retrying.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (Result, error)
}

// Dimensions is a requested image size in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// ImageGenerator renders count images for prompt and returns their bytes in order.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, prompt string, dim Dimensions, count int) ([][]byte, error)
}

// Provider is a named text generator backed by a model API
type Provider interface {
	Generator
	Name() string
	SetVerbose(verbose bool)
}
