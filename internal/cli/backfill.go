package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fx-monitor/internal/analytics"
	"fx-monitor/internal/app"
)

var (
	backfillFrom    string
	backfillPairs   []string
	backfillDryRun  bool
	backfillWorkers int
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Load historical reference rates into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.BackfillOptions{
			Pairs:   backfillPairs,
			DryRun:  backfillDryRun,
			Workers: backfillWorkers,
		}

		if backfillFrom != "" {
			from, err := time.Parse(analytics.DateLayout, backfillFrom)
			if err != nil {
				return fmt.Errorf("invalid --from value: %w", err)
			}
			opts.From = from
		}

		return getApp().Backfill(cmd.Context(), opts)
	},
}

func init() {
	backfillCmd.Flags().StringVar(&backfillFrom, "from", "", "Start date (YYYY-MM-DD, inclusive); empty resumes from the latest stored date")
	backfillCmd.Flags().StringSliceVar(&backfillPairs, "pair", nil, "Pairs to backfill (defaults to every configured pair)")
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "Run without writing to storage")
	backfillCmd.Flags().IntVar(&backfillWorkers, "workers", 2, "Number of concurrent workers")
}
