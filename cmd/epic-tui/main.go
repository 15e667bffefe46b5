package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/handiism/epic-downloader/internal/config"
	"github.com/handiism/epic-downloader/internal/logger"
	"github.com/handiism/epic-downloader/internal/tui"
)

func main() {
	var configPath, envFile string

	cmd := &cobra.Command{
		Use:          "epic-tui",
		Short:        "Interactive NASA EPIC image downloader",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// Log lines would tear the alternate screen.
			logger.InitLogger("error", logger.FormatText)

			apiKey, err := config.LoadAPIKey(settings.APIKeyEnv, envFile)
			if err != nil {
				return err
			}

			return tui.Run(settings, apiKey)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file path (YAML)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "load environment variables from this file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
