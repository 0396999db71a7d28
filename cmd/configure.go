package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kris-hansen/scribe/utils/config"
	"github.com/kris-hansen/scribe/utils/models"
)

var listFlag bool

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure the text model, image model and output directory",
	Long:  `Create or update the YAML configuration file interactively`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if listFlag {
			return listConfiguration(os.Stdout, path)
		}

		cfg, err := config.LoadConfig(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return err
			}
			cfg = config.DefaultConfig()
		}

		if err := promptConfig(bufio.NewReader(os.Stdin), os.Stdout, cfg, readSecret); err != nil {
			return err
		}

		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("error creating directory: %w", err)
			}
		}
		if err := config.SaveConfig(path, cfg); err != nil {
			return err
		}
		fmt.Printf("Configuration saved successfully to %s!\n", path)
		return nil
	},
}

// readSecret reads an API key without echo when stdin is a terminal.
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		return strings.TrimSpace(line), err
	}
	key, err := term.ReadPassword(fd)
	fmt.Println()
	return strings.TrimSpace(string(key)), err
}

// promptConfig asks for each setting in turn. An empty answer keeps the
// current value.
func promptConfig(reader *bufio.Reader, out io.Writer, cfg *config.Config, secret func() (string, error)) error {
	ask := func(label, current string) string {
		fmt.Fprintf(out, "%s [%s]: ", label, current)
		answer, _ := reader.ReadString('\n')
		if answer = strings.TrimSpace(answer); answer != "" {
			return answer
		}
		return current
	}

	available := models.ListRegisteredProviders()
	for {
		provider := strings.ToLower(ask(fmt.Sprintf("Text provider (%s)", strings.Join(available, "/")), cfg.Text.Provider))
		if contains(available, provider) {
			cfg.Text.Provider = provider
			break
		}
		fmt.Fprintf(out, "Invalid provider. Please enter one of: %s\n", strings.Join(available, ", "))
	}

	if cfg.Text.Provider == "compatible" || cfg.Text.Provider == "deepseek" {
		cfg.Text.Endpoint = ask("Endpoint", cfg.Text.Endpoint)
	}
	cfg.Text.Model = ask("Model name", cfg.Text.Model)

	fmt.Fprintf(out, "API key (leave empty to keep%s): ", keyHint(cfg.Text.APIKey))
	key, err := secret()
	if err != nil && err != io.EOF {
		return fmt.Errorf("error reading API key: %w", err)
	}
	if key != "" {
		cfg.Text.APIKey = key
	}

	cfg.Image.Model = ask("Image model", cfg.Image.Model)
	cfg.OutputDir = ask("Output directory", cfg.OutputDir)
	cfg.Input = ask("Content sheet", cfg.Input)
	return cfg.Validate()
}

func keyHint(key string) string {
	if key == "" {
		return ", or use the provider's environment variable"
	}
	return " " + maskKey(key)
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func listConfiguration(out io.Writer, path string) error {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(out, "No configuration found at %s\n", path)
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "Configuration from %s:\n\n", path)
	fmt.Fprintf(out, "Text:   %s / %s", cfg.Text.Provider, cfg.Text.Model)
	if cfg.Text.Endpoint != "" {
		fmt.Fprintf(out, " at %s", cfg.Text.Endpoint)
	}
	if cfg.Text.APIKey != "" {
		fmt.Fprintf(out, " (key %s)", maskKey(cfg.Text.APIKey))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Image:  %s / %s (%dx%d)\n", cfg.Image.Provider, cfg.Image.Model, cfg.Image.Width, cfg.Image.Height)
	fmt.Fprintf(out, "Input:  %s\n", cfg.Input)
	fmt.Fprintf(out, "Output: %s\n", cfg.OutputDir)
	fmt.Fprintf(out, "Retry:  %d attempts, base delay %s\n", cfg.Retry.Attempts, cfg.Retry.BaseDelay)

	fmt.Fprintln(out, "\nAvailable providers:")
	for _, md := range models.GetAvailableProviders() {
		fmt.Fprintf(out, "  - %s: %s\n", md.Name, md.Description)
	}
	return nil
}

func init() {
	configureCmd.Flags().BoolVar(&listFlag, "list", false, "show the current configuration")
	rootCmd.AddCommand(configureCmd)
}
