package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kris-hansen/scribe/utils/server"
)

var (
	servePort  int
	serveToken string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a read-only preview server for generated articles",
	Long: `Start an HTTP server that lists the articles in the output directory and serves
their compiled posts and images. Nothing is generated or modified.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if serveToken != "" {
			cfg.Server.AuthEnabled = true
			cfg.Server.BearerToken = serveToken
		}
		return server.Run(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "require this bearer token")
	rootCmd.AddCommand(serveCmd)
}
