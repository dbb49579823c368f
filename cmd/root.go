package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/timkosters/edge-city-finder/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "edge-city-finder",
	Short: "Distressed property lead finder",
	Long:  "Searches listing platforms and local news for distressed rural properties, verifies candidates with Claude, and tracks them through a review funnel.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
