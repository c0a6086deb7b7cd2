package cli

import (
	"github.com/spf13/cobra"
)

var radarCmd = &cobra.Command{
	Use:   "radar",
	Short: "Run the deals radar once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().RunRadarOnce(cmd.Context())
	},
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Run the trend finder once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().RunTrendsOnce(cmd.Context())
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ingest current retailer offers once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().RunWatchOnce(cmd.Context())
	},
}
