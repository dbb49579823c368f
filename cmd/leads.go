package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timkosters/edge-city-finder/internal/model"
	"github.com/timkosters/edge-city-finder/internal/store"
)

var (
	leadsStage            string
	leadsStatus           string
	leadsIncludeDismissed bool
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List leads in the funnel",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		filter := store.LeadFilter{IncludeDismissed: leadsIncludeDismissed}
		if leadsStage != "" {
			filter.FunnelStage = model.FunnelStage(leadsStage)
		}
		if leadsStatus != "" {
			filter.Status = model.Status(leadsStatus)
		}

		leads, err := st.ListLeads(ctx, filter)
		if err != nil {
			return err
		}

		if len(leads) == 0 {
			fmt.Println("no leads found")
			return nil
		}
		for _, lead := range leads {
			marker := " "
			if lead.IsNew {
				marker = "*"
			}
			fmt.Printf("%s %-12s %3d  %-40.40s  %-25.25s  %s\n",
				marker, lead.FunnelStage, lead.Score, lead.Title, lead.Location, lead.URL)
		}
		fmt.Printf("\n%d leads\n", len(leads))
		return nil
	},
}

func init() {
	leadsCmd.Flags().StringVar(&leadsStage, "stage", "", "filter by funnel stage")
	leadsCmd.Flags().StringVar(&leadsStatus, "status", "", "filter by review status")
	leadsCmd.Flags().BoolVar(&leadsIncludeDismissed, "include-dismissed", false, "include dismissed leads")
	rootCmd.AddCommand(leadsCmd)
}
