package models

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Call records one request seen by Mock.
type Call struct {
	System string
	User   string
}

// Mock is a scripted Generator for tests and dry runs. Respond decides the
// reply for each call; when nil, a placeholder section echoing the user
// prompt is returned. Every call is recorded.
type Mock struct {
	mu      sync.Mutex
	calls   []Call
	Respond func(n int, system, user string) (Result, error)
}

// Generate implements Generator.
func (m *Mock) Generate(_ context.Context, systemPrompt, userPrompt string) (Result, error) {
	m.mu.Lock()
	n := len(m.calls)
	m.calls = append(m.calls, Call{System: systemPrompt, User: userPrompt})
	respond := m.Respond
	m.mu.Unlock()

	if respond != nil {
		return respond(n, systemPrompt, userPrompt)
	}
	return PlaceholderResult(userPrompt), nil
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// PlaceholderResult builds a deterministic reply used by dry runs.
func PlaceholderResult(userPrompt string) Result {
	var sb strings.Builder
	sb.WriteString("## ")
	sb.WriteString(strings.TrimSpace(userPrompt))
	sb.WriteString("\n\nPlaceholder content generated without calling a model.\n")
	return Result{
		Text:  sb.String(),
		Usage: &Usage{PromptTokens: len(userPrompt) / 4, CompletionTokens: sb.Len() / 4},
	}
}

// MockImages is a scripted ImageGenerator.
type MockImages struct {
	mu      sync.Mutex
	Prompts []string
	Err     error
}

// GenerateImages implements ImageGenerator with tiny fake payloads.
func (m *MockImages) GenerateImages(_ context.Context, prompt string, dim Dimensions, count int) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]byte, count)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("image-%d-%dx%d", len(m.Prompts), dim.Width, dim.Height))
	}
	return out, nil
}
