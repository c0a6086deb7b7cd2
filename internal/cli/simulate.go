package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateTitle string
	simulateOld   string
	simulateNew   string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive a synthetic drop through scoring and announcement",
	RunE: func(cmd *cobra.Command, args []string) error {
		oldPrice, err := decimal.NewFromString(simulateOld)
		if err != nil {
			return fmt.Errorf("invalid --old: %w", err)
		}
		newPrice, err := decimal.NewFromString(simulateNew)
		if err != nil {
			return fmt.Errorf("invalid --new: %w", err)
		}
		return getApp().SimulateDeal(cmd.Context(), simulateTitle, oldPrice, newPrice)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateTitle, "title", "Simulated Product", "Product title for the message")
	simulateCmd.Flags().StringVar(&simulateOld, "old", "1000", "Reference price")
	simulateCmd.Flags().StringVar(&simulateNew, "new", "850", "Current price")
}
