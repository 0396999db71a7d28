package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kris-hansen/scribe/utils/config"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Generate long-form articles from a content sheet",
	Long: `scribe reads a CSV content sheet of article outlines and writes each article
section by section with an LLM, resuming from whatever is already on disk.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Verbose = verbose
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $SCRIBE_CONFIG or scribe.yaml)")
}

// configPath resolves the file named by --config, SCRIBE_CONFIG or the default.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.GetConfigPath()
}

// loadConfig reads the config file with environment overrides applied. A
// missing default file falls back to the built-in defaults; a missing file
// named explicitly with --config is an error.
func loadConfig() (*config.Config, error) {
	path := configPath()
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if !os.IsNotExist(err) || configFile != "" {
			return nil, fmt.Errorf("error loading configuration from %s: %w", path, err)
		}
		config.DebugLog("No configuration at %s, using defaults", path)
		cfg = config.DefaultConfig()
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "unknown command") {
			arg := strings.Trim(strings.TrimPrefix(errMsg, "unknown command"), `"`+` for "scribe"`)
			fmt.Printf("To generate articles from a content sheet, use the 'generate' command:\n\n   scribe generate %s\n\n", arg)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
