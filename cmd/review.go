package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reviewLimit int

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Print the manual review queue",
	Long:  "Lists deeds that carry transfer tax but could not be resolved to a watched parcel, most recent and highest value first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		deeds, err := st.ReviewQueue(ctx, reviewLimit)
		if err != nil {
			return err
		}
		if len(deeds) == 0 {
			fmt.Println("Review queue is empty.")
			return nil
		}

		fmt.Printf("%d deed(s) awaiting review:\n\n", len(deeds))
		for _, d := range deeds {
			price := "n/a"
			if d.CalculatedSalePrice != nil {
				price = fmt.Sprintf("$%.0f", *d.CalculatedSalePrice)
			}
			addr := "(no address)"
			if d.Address != nil && *d.Address != "" {
				addr = *d.Address
			}
			city := ""
			if d.City != nil {
				city = *d.City
			}
			fmt.Printf("  %s  %s  %-10s  %s, %s\n",
				d.RecordingDate.Format("2006-01-02"), d.DocNumber, price, addr, city)
		}
		return nil
	},
}

func init() {
	reviewCmd.Flags().IntVar(&reviewLimit, "limit", 50, "max deeds to list")
	rootCmd.AddCommand(reviewCmd)
}
