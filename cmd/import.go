package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildinghawk/deedwatch/internal/importer"
)

var (
	importInput   string
	importSheet   string
	importMapping string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load reference data files",
}

var importWatchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Import watchlist parcels from CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		im := importer.New(st, cfg.Import)
		n, err := im.ImportWatchlist(ctx, importInput, importSheet, importMapping)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d watchlist parcels from %s\n", n, importInput)
		return nil
	},
}

var importLotTractCmd = &cobra.Command{
	Use:   "lottract",
	Short: "Import lot/tract mappings from CSV, XLSX, or shapefile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		im := importer.New(st, cfg.Import)
		n, err := im.ImportLotTract(ctx, importInput, importSheet, importMapping)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d lot/tract mappings from %s\n", n, importInput)
		return nil
	},
}

func init() {
	importCmd.PersistentFlags().StringVar(&importInput, "input", "", "path to the source file (required)")
	importCmd.PersistentFlags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	importCmd.PersistentFlags().StringVar(&importMapping, "mapping", "", "YAML column mapping override")
	_ = importCmd.MarkPersistentFlagRequired("input")

	importCmd.AddCommand(importWatchlistCmd)
	importCmd.AddCommand(importLotTractCmd)
	rootCmd.AddCommand(importCmd)
}
