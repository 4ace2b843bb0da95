package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/buildinghawk/deedwatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "deedwatch",
	Short: "Deed recording monitor for watched commercial parcels",
	Long:  "Matches county deed recordings against a parcel watchlist by APN, lot/tract reference, and fuzzy address, and surfaces sales that need human review.",
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
