package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fx-monitor/internal/app"
)

var (
	showPair   string
	showFile   string
	showRange  string
	showAlerts int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display KPIs and the snapshot for a pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showPair == "" && showFile == "" {
			return fmt.Errorf("--pair or --file must be provided")
		}

		opts := app.ShowOptions{
			Pair:   showPair,
			File:   showFile,
			Range:  showRange,
			Alerts: showAlerts,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showPair, "pair", "EUR/USD", "Pair to display from the database")
	showCmd.Flags().StringVar(&showFile, "file", "", "Read the series from a JSON file (or a directory with a manifest) instead of the database")
	showCmd.Flags().IntVar(&showAlerts, "alerts", 0, "Also list this many recent alerts from the database")
	showCmd.Flags().StringVar(&showRange, "range", "", "Time range: 30D, 90D, 365D or ALL (defaults to config)")
}
