package cli

import (
	"github.com/spf13/cobra"

	"fx-monitor/internal/app"
)

var (
	exportPair      string
	exportFile      string
	exportRange     string
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a pair's derived series as CSV and/or PNG charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Pair:      exportPair,
			File:      exportFile,
			Range:     exportRange,
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPair, "pair", "EUR/USD", "Pair to export from the database")
	exportCmd.Flags().StringVar(&exportFile, "file", "", "Read the series from a JSON file instead of the database")
	exportCmd.Flags().StringVar(&exportRange, "range", "", "Time range: 30D, 90D, 365D or ALL (defaults to config)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write the rate chart; drawdown and histogram charts are written next to it")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
}
