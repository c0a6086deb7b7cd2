package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"deal-radar/internal/app"
)

var (
	exportProduct string
	exportFrom    string
	exportTo      string
	exportCSV     string
	exportPNG     string
	exportMax     int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a product's trend-signal history as CSV and/or PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			ProductID: exportProduct,
			CSVPath:   exportCSV,
			PNGPath:   exportPNG,
			MaxPoints: exportMax,
		}

		if exportFrom != "" {
			parsed, err := parseTimeFlag(exportFrom)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			opts.From = &parsed
		}
		if exportTo != "" {
			parsed, err := parseTimeFlag(exportTo)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
			opts.To = &parsed
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func parseTimeFlag(v string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, v); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", v)
}

func init() {
	exportCmd.Flags().StringVar(&exportProduct, "product", "", "Product id to export")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Window start (RFC3339 or YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Window end (RFC3339 or YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportCSV, "csv", "", "Write CSV to this path")
	exportCmd.Flags().StringVar(&exportPNG, "png", "", "Write PNG chart to this path")
	exportCmd.Flags().IntVar(&exportMax, "max-points", 0, "Override export.max_data_points")
}
