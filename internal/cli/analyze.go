package cli

import (
	"github.com/spf13/cobra"

	"fx-monitor/internal/app"
)

var (
	analyzeInput  string
	analyzeOutput string
	analyzeRange  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute the dashboard for a series file offline",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Analyze(cmd.Context(), app.AnalyzeOptions{
			Input:  analyzeInput,
			Output: analyzeOutput,
			Range:  analyzeRange,
		})
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "Series JSON file to analyse")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "Where to write the report (defaults to stdout)")
	analyzeCmd.Flags().StringVar(&analyzeRange, "range", "", "Time range: 30D, 90D, 365D or ALL (defaults to config)")
	_ = analyzeCmd.MarkFlagRequired("input")
}
