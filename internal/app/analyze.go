package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"fx-monitor/internal/analytics"
	"fx-monitor/internal/dataset"
)

// AnalysisReport is the offline analysis payload.
type AnalysisReport struct {
	Pair         string              `json:"pair"`
	Source       string              `json:"source"`
	GeneratedUTC string              `json:"generated_utc"`
	Dashboard    analytics.Dashboard `json:"dashboard"`
}

// Analyze builds the dashboard for a series file without touching the
// network or the database.
func (a *App) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	if opts.Input == "" {
		return errors.New("--input is required")
	}
	rng, err := a.Config.ResolveRange(opts.Range)
	if err != nil {
		return err
	}

	sf, err := dataset.LoadSeries(opts.Input)
	if err != nil {
		return err
	}

	report := AnalysisReport{
		Pair:         sf.Pair,
		Source:       sf.Source,
		GeneratedUTC: sf.GeneratedUTC,
		Dashboard:    analytics.BuildDashboard(sf.Series, rng, a.Config.AnalyticsOptions()),
	}
	a.Logger.Debug().Str("pair", sf.Pair).Str("range", string(rng)).Int("points", len(report.Dashboard.Series)).Msg("analysis complete")

	if opts.Output == "" {
		return encodeReport(a.Out, report)
	}
	if err := ensureDir(opts.Output); err != nil {
		return err
	}
	file, err := os.Create(opts.Output)
	if err != nil {
		return err
	}
	if err := encodeReport(file, report); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func encodeReport(w io.Writer, report AnalysisReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
