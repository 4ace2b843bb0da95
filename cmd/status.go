package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent match runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		count, err := st.CountWatchlist(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Watchlist: %d parcels\n\n", count)

		runs, err := st.ListMatchRuns(ctx, statusLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No match runs recorded.")
			return nil
		}

		for _, r := range runs {
			line := fmt.Sprintf("  %s  %-9s  processed=%d exact=%d fuzzy=%d review=%d",
				r.StartedAt.Format("2006-01-02 15:04"), r.Status,
				r.RecordsProcessed, r.ExactMatched, r.FuzzyMatched, r.NeedsReview)
			if r.ErrorMessage != nil {
				line += "  error: " + *r.ErrorMessage
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "max runs to list")
	rootCmd.AddCommand(statusCmd)
}
