package cmd

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kris-hansen/scribe/utils/config"
)

func TestPromptConfig(t *testing.T) {
	input := strings.Join([]string{
		"ollama",         // rejected
		"Google",         // provider
		"gemini-1.5-pro", // model
		"",               // image model kept
		"out",            // output dir
		"",               // content sheet kept
	}, "\n") + "\n"

	cfg := config.DefaultConfig()
	var out bytes.Buffer
	err := promptConfig(bufio.NewReader(strings.NewReader(input)), &out, cfg, func() (string, error) {
		return "secret-key-123", nil
	})
	require.NoError(t, err)

	assert.Equal(t, "google", cfg.Text.Provider)
	assert.Equal(t, "gemini-1.5-pro", cfg.Text.Model)
	assert.Equal(t, "secret-key-123", cfg.Text.APIKey)
	assert.Equal(t, "dall-e-3", cfg.Image.Model)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "content.csv", cfg.Input)
	assert.Contains(t, out.String(), "Invalid provider")
}

func TestPromptConfigKeepsExistingKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Text.APIKey = "sk-existing-key"
	input := "compatible\nhttps://api.deepseek.com\ndeepseek-chat\n\n\n\n"

	var out bytes.Buffer
	err := promptConfig(bufio.NewReader(strings.NewReader(input)), &out, cfg, func() (string, error) {
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "compatible", cfg.Text.Provider)
	assert.Equal(t, "https://api.deepseek.com", cfg.Text.Endpoint)
	assert.Equal(t, "deepseek-chat", cfg.Text.Model)
	assert.Equal(t, "sk-existing-key", cfg.Text.APIKey)
	assert.Contains(t, out.String(), "sk-e*******-key")
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", maskKey(""))
	assert.Equal(t, "*****", maskKey("short"))
	assert.Equal(t, "abcd****ghij", maskKey("abcdefghghij"))
}

func TestListConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scribe.yaml")

	var out bytes.Buffer
	require.NoError(t, listConfiguration(&out, path))
	assert.Contains(t, out.String(), "No configuration found")

	cfg := config.DefaultConfig()
	cfg.Text.APIKey = "sk-1234567890"
	require.NoError(t, config.SaveConfig(path, cfg))

	out.Reset()
	require.NoError(t, listConfiguration(&out, path))
	assert.Contains(t, out.String(), "Text:   openai / gpt-4o (key sk-1*****7890)")
	assert.Contains(t, out.String(), "Output: output")
	assert.Contains(t, out.String(), "- anthropic: ")
	assert.NotContains(t, out.String(), "sk-1234567890")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { configFile = "" })

	t.Run("missing default falls back", func(t *testing.T) {
		configFile = ""
		t.Setenv("SCRIBE_CONFIG", filepath.Join(dir, "absent.yaml"))
		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, "output", cfg.OutputDir)
	})

	t.Run("missing explicit file fails", func(t *testing.T) {
		configFile = filepath.Join(dir, "absent.yaml")
		_, err := loadConfig()
		assert.Error(t, err)
	})

	t.Run("invalid file fails validation", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("retry:\n  attempts: 0\n"), 0644))
		configFile = path
		_, err := loadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry.attempts")
	})
}
