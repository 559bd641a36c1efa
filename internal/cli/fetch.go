package cli

import (
	"github.com/spf13/cobra"

	"fx-monitor/internal/app"
)

var (
	fetchPairs  []string
	fetchStart  string
	fetchOutput string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the latest rates once and write the JSON files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Fetch(cmd.Context(), app.FetchOptions{
			Pairs:       fetchPairs,
			StartPeriod: fetchStart,
			OutputDir:   fetchOutput,
		})
	},
}

func init() {
	fetchCmd.Flags().StringSliceVar(&fetchPairs, "pair", nil, "Pairs to fetch (defaults to every configured pair)")
	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "First date to request (YYYY-MM-DD, defaults to config)")
	fetchCmd.Flags().StringVar(&fetchOutput, "out", "", "Directory for the JSON files (defaults to config)")
}
