package config

// ServerConfig holds configuration for the preview server
type ServerConfig struct {
	Port int `yaml:"port"`
	// AuthEnabled requires BearerToken on every request except /health.
	AuthEnabled bool   `yaml:"auth_enabled"`
	BearerToken string `yaml:"bearer_token,omitempty"`
}
