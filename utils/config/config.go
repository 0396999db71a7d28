package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is used when neither --config nor SCRIBE_CONFIG is set.
const DefaultConfigFile = "scribe.yaml"

// ProviderConfig identifies one model endpoint. It is built once at start-up
// and handed to the generators; nothing looks a client up from global state.
type ProviderConfig struct {
	Provider    string  `yaml:"provider"`
	Endpoint    string  `yaml:"endpoint,omitempty"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
}

// ImageConfig configures the optional image phase.
type ImageConfig struct {
	Provider string `yaml:"provider"`
	Endpoint string `yaml:"endpoint,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	Model    string `yaml:"model"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
}

// RetryConfig bounds the provider retry loop.
type RetryConfig struct {
	Attempts  int           `yaml:"attempts"`
	BaseDelay time.Duration `yaml:"base_delay"`
}

// PacingConfig holds the courtesy pauses between provider calls.
type PacingConfig struct {
	SectionPause time.Duration `yaml:"section_pause"`
	PlanPause    time.Duration `yaml:"plan_pause"`
}

// RatesConfig is expressed in USD per million tokens.
type RatesConfig struct {
	InputPerMillion  float64 `yaml:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million"`
}

// Config is the complete pipeline configuration
type Config struct {
	OutputDir       string         `yaml:"output_dir"`
	Input           string         `yaml:"input"`
	Text            ProviderConfig `yaml:"text"`
	Image           ImageConfig    `yaml:"image"`
	Retry           RetryConfig    `yaml:"retry"`
	Pacing          PacingConfig   `yaml:"pacing"`
	Rates           RatesConfig    `yaml:"rates"`
	ContextTail     int            `yaml:"context_tail"`
	RenderHTML      bool           `yaml:"render_html"`
	EnrichLinks     bool           `yaml:"enrich_links"`
	ContinueOnError bool           `yaml:"continue_on_error"`
	Server          ServerConfig   `yaml:"server"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: "output",
		Input:     "content.csv",
		Text: ProviderConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			Temperature: 0.7,
			MaxTokens:   4000,
		},
		Image: ImageConfig{
			Provider: "openai",
			Model:    "dall-e-3",
			Width:    1408,
			Height:   768,
		},
		Retry: RetryConfig{
			Attempts:  3,
			BaseDelay: time.Second,
		},
		Pacing: PacingConfig{
			SectionPause: time.Second,
			PlanPause:    500 * time.Millisecond,
		},
		Rates: RatesConfig{
			InputPerMillion:  3.00,
			OutputPerMillion: 15.00,
		},
		ContextTail:     2000,
		RenderHTML:      true,
		ContinueOnError: true,
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// LoadConfig reads the YAML file at path on top of DefaultConfig. A missing
// file is reported with an error satisfying os.IsNotExist.
func LoadConfig(path string) (*Config, error) {
	DebugLog("Attempting to load configuration from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		DebugLog("Error reading configuration file: %v", err)
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		DebugLog("Error parsing configuration file: %v", err)
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	DebugLog("Successfully loaded configuration")
	return cfg, nil
}

// SaveConfig writes the configuration as YAML
func SaveConfig(path string, cfg *Config) error {
	DebugLog("Attempting to save configuration to: %s", path)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	DebugLog("Successfully saved configuration")
	return nil
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Text.Provider == "" {
		return fmt.Errorf("text.provider is required")
	}
	if c.Text.Model == "" {
		return fmt.Errorf("text.model is required")
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts)
	}
	if c.ContextTail < 0 {
		return fmt.Errorf("context_tail must not be negative")
	}
	if c.Image.Width < 0 || c.Image.Height < 0 {
		return fmt.Errorf("image dimensions must not be negative")
	}
	if c.Server.AuthEnabled && c.Server.BearerToken == "" {
		return fmt.Errorf("server.bearer_token is required when server.auth_enabled is set")
	}
	return nil
}
