package models

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kris-hansen/scribe/utils/config"
)

// Global registry instance
var registry = &ProviderRegistry{
	factories: make(map[string]Factory),
}

// ProviderRegistry manages registered provider factories
type ProviderRegistry struct {
	factories map[string]Factory
	mutex     sync.RWMutex
}

// Factory creates provider instances and provides metadata
type Factory interface {
	CreateProvider(cfg config.ProviderConfig) (Provider, error)
	GetMetadata() ProviderMetadata
}

// ProviderFactory is a reusable factory for all provider types
type ProviderFactory struct {
	constructor func(cfg config.ProviderConfig) (Provider, error)
	metadata    ProviderMetadata
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(constructor func(cfg config.ProviderConfig) (Provider, error), metadata ProviderMetadata) *ProviderFactory {
	return &ProviderFactory{
		constructor: constructor,
		metadata:    metadata,
	}
}

// CreateProvider creates a new provider instance using the constructor function
func (f *ProviderFactory) CreateProvider(cfg config.ProviderConfig) (Provider, error) {
	return f.constructor(cfg)
}

// GetMetadata returns the provider metadata
func (f *ProviderFactory) GetMetadata() ProviderMetadata {
	return f.metadata
}

// ProviderMetadata contains information about a provider
type ProviderMetadata struct {
	Name        string
	Description string
	Aliases     []string
}

// RegisterProvider adds a provider factory to the registry
func RegisterProvider(name string, factory Factory) error {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	names := append([]string{name}, factory.GetMetadata().Aliases...)
	for _, n := range names {
		if _, exists := registry.factories[n]; exists {
			return fmt.Errorf("provider %s already registered", n)
		}
	}
	for _, n := range names {
		registry.factories[n] = factory
	}
	config.DebugLog("[Registry] Registered provider: %s", name)
	return nil
}

func init() {
	builtins := []struct {
		name    string
		factory Factory
	}{
		{"openai", NewProviderFactory(
			func(cfg config.ProviderConfig) (Provider, error) { return NewOpenAIProvider(cfg) },
			ProviderMetadata{Name: "openai", Description: "OpenAI chat completions"},
		)},
		{"compatible", NewProviderFactory(
			func(cfg config.ProviderConfig) (Provider, error) { return NewCompatibleProvider(cfg) },
			ProviderMetadata{Name: "compatible", Description: "OpenAI-compatible endpoints (DeepSeek, gateways)", Aliases: []string{"deepseek"}},
		)},
		{"google", NewProviderFactory(
			func(cfg config.ProviderConfig) (Provider, error) { return NewGoogleProvider(cfg) },
			ProviderMetadata{Name: "google", Description: "Google Gemini"},
		)},
		{"anthropic", NewProviderFactory(
			func(cfg config.ProviderConfig) (Provider, error) { return NewAnthropicProvider(cfg) },
			ProviderMetadata{Name: "anthropic", Description: "Anthropic Messages API"},
		)},
	}
	for _, b := range builtins {
		if err := RegisterProvider(b.name, b.factory); err != nil {
			panic(err)
		}
	}
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(cfg config.ProviderConfig) (Provider, error) {
	registry.mutex.RLock()
	factory, ok := registry.factories[strings.ToLower(cfg.Provider)]
	registry.mutex.RUnlock()

	if !ok {
		return nil, fmt.Errorf("text provider %q not supported (available: %s)",
			cfg.Provider, strings.Join(ListRegisteredProviders(), ", "))
	}
	config.DebugLog("[Registry] Selected provider %s for model %s", factory.GetMetadata().Name, cfg.Model)
	return factory.CreateProvider(cfg)
}

// NewGenerator builds the configured provider wrapped in the retry policy.
func NewGenerator(cfg config.ProviderConfig, retry config.RetryConfig) (Generator, error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	p.SetVerbose(config.Verbose)
	return NewRetrying(p, retry.Attempts, retry.BaseDelay), nil
}

// GetAvailableProviders returns metadata for every registered provider, once each.
func GetAvailableProviders() []ProviderMetadata {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()

	seen := make(map[string]bool)
	var providers []ProviderMetadata
	for _, factory := range registry.factories {
		md := factory.GetMetadata()
		if seen[md.Name] {
			continue
		}
		seen[md.Name] = true
		providers = append(providers, md)
	}

	sort.Slice(providers, func(i, j int) bool {
		return providers[i].Name < providers[j].Name
	})
	return providers
}

// ListRegisteredProviders returns names of all registered providers and aliases
func ListRegisteredProviders() []string {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()

	var names []string
	for name := range registry.factories {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}
