package config

import (
	"fmt"
	"os"
	"strings"
)

// Verbose indicates whether verbose logging is enabled
var Verbose bool

// DebugLog prints debug information if verbose mode is enabled
func DebugLog(format string, args ...interface{}) {
	if Verbose {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

// GetConfigPath returns the configuration file path from SCRIBE_CONFIG or the default
func GetConfigPath() string {
	if path := os.Getenv("SCRIBE_CONFIG"); path != "" {
		DebugLog("Using configuration file from SCRIBE_CONFIG: %s", path)
		return path
	}
	DebugLog("Using default configuration file: %s", DefaultConfigFile)
	return DefaultConfigFile
}

// envLookup is swapped in tests.
var envLookup = os.LookupEnv

// ApplyEnvOverrides fills provider settings from the process environment.
// Values already present in the file win over the environment for API keys,
// so a checked-in config can pin a key per project.
func (c *Config) ApplyEnvOverrides() {
	lookup := func(name string) string {
		if v, ok := envLookup(name); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}

	switch c.Text.Provider {
	case "openai", "compatible", "deepseek":
		if c.Text.APIKey == "" {
			c.Text.APIKey = lookup("OPENAI_API_KEY")
		}
		if v := lookup("OPENAI_BASE_URL"); v != "" && c.Text.Endpoint == "" {
			c.Text.Endpoint = v
		}
		if v := lookup("OPENAI_MODEL_NAME"); v != "" {
			DebugLog("Model overridden by OPENAI_MODEL_NAME: %s", v)
			c.Text.Model = v
		}
	case "google":
		if c.Text.APIKey == "" {
			c.Text.APIKey = lookup("GOOGLE_API_KEY")
		}
	case "anthropic":
		if c.Text.APIKey == "" {
			c.Text.APIKey = lookup("ANTHROPIC_API_KEY")
		}
	}

	if c.Image.Provider == "openai" && c.Image.APIKey == "" {
		c.Image.APIKey = lookup("OPENAI_API_KEY")
	}
}
