package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/buildinghawk/deedwatch/internal/match"
)

var (
	matchStart  string
	matchEnd    string
	matchDryRun bool
	matchForce  bool
	matchLimit  int
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run a batch matching pass over unmatched deeds",
	Long:  "Evaluates each unmatched deed against the watchlist: direct APN, then lot/tract lookup, then fuzzy address. Deeds with transfer tax that resolve nowhere land in the review queue.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := match.RunOptions{
			Force:  matchForce,
			DryRun: matchDryRun,
			Limit:  matchLimit,
		}
		if matchStart != "" {
			t, err := time.Parse("2006-01-02", matchStart)
			if err != nil {
				return eris.Wrapf(err, "parse --start %q", matchStart)
			}
			opts.From = &t
		}
		if matchEnd != "" {
			t, err := time.Parse("2006-01-02", matchEnd)
			if err != nil {
				return eris.Wrapf(err, "parse --end %q", matchEnd)
			}
			opts.To = &t
		}

		matcher := match.NewMatcher(st, cfg.Match, cfg.Monitor)
		runner := match.NewRunner(st, matcher, cfg.Monitor.County)

		run, err := runner.Run(ctx, opts)
		if err != nil {
			return err
		}

		label := ""
		if matchDryRun {
			label = " (dry run, nothing written)"
		}
		fmt.Printf("Processed %d deeds%s: %d exact, %d fuzzy, %d for review\n",
			run.RecordsProcessed, label, run.ExactMatched, run.FuzzyMatched, run.NeedsReview)
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchStart, "start", "", "recording date lower bound (YYYY-MM-DD)")
	matchCmd.Flags().StringVar(&matchEnd, "end", "", "recording date upper bound (YYYY-MM-DD)")
	matchCmd.Flags().BoolVar(&matchDryRun, "dry-run", false, "evaluate without writing match results")
	matchCmd.Flags().BoolVar(&matchForce, "force", false, "re-evaluate deeds that already matched")
	matchCmd.Flags().IntVar(&matchLimit, "limit", 0, "max deeds to process (0 = all)")
	rootCmd.AddCommand(matchCmd)
}
