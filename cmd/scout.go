package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/timkosters/edge-city-finder/internal/pipeline"
	"github.com/timkosters/edge-city-finder/internal/scout"
)

var (
	scoutQuery      string
	scoutCategories []string
	scoutNoVerify   bool
)

var scoutCmd = &cobra.Command{
	Use:   "scout",
	Short: "Run one discovery pass and persist the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		categories := make([]scout.Category, 0, len(scoutCategories))
		for _, c := range scoutCategories {
			categories = append(categories, scout.Category(c))
		}

		result, err := env.Pipeline.Run(ctx, pipeline.Request{
			Query:      scoutQuery,
			Categories: categories,
			Verify:     !scoutNoVerify,
		})
		if err != nil {
			return err
		}

		fmt.Printf("discovered %d leads in %s (qualified %d, interesting %d, dismissed %d)\n",
			result.Discovered, result.Duration.Round(time.Second),
			result.Qualified, result.Interesting, result.Dismissed)
		for _, lead := range result.Leads {
			fmt.Printf("  [%s] %s\n        %s\n", lead.FunnelStage, lead.Title, lead.URL)
		}
		return nil
	},
}

func init() {
	scoutCmd.Flags().StringVar(&scoutQuery, "query", "", "custom search query instead of the built-in catalog")
	scoutCmd.Flags().StringSliceVar(&scoutCategories, "categories", nil, "catalog categories to search (platforms, news, distress)")
	scoutCmd.Flags().BoolVar(&scoutNoVerify, "no-verify", false, "skip verification, persist leads as discovered")
	rootCmd.AddCommand(scoutCmd)
}
