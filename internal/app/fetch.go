package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"fx-monitor/internal/service"
	"fx-monitor/internal/storage"
)

// Fetch runs one refresh: download every pair, persist when a database is
// configured, write the JSON files and the manifest.
func (a *App) Fetch(ctx context.Context, opts FetchOptions) error {
	pairs, err := a.selectPairs(opts.Pairs)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	var rateStore storage.RateStore
	if store != nil {
		rateStore = store
	}

	svc, err := service.New(a.Config, nil, a.newFetcher(), rateStore, nil, nil, nil, a.Logger)
	if err != nil {
		return err
	}
	svc.WithPairs(pairs)
	if opts.StartPeriod != "" {
		svc.WithStartPeriod(opts.StartPeriod)
	}
	if opts.OutputDir != "" {
		svc.WithOutputDir(opts.OutputDir)
	}

	results, err := svc.Refresh(ctx)
	printResults(a, results)
	return err
}

func printResults(a *App, results []service.PairResult) {
	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Pair\tPoints\tLatest\tRegime\tStatus")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = sanitizeInline(r.Err.Error())
		}
		latest := "-"
		if r.Dashboard.Snapshot.LatestDate != nil {
			latest = *r.Dashboard.Snapshot.LatestDate
		}
		fmt.Fprintf(writer, "%s\t%d\t%s\t%s\t%s\n", r.Pair.Pair, r.Points, latest, r.Dashboard.Snapshot.VolatilityRegime, status)
	}
	writer.Flush()
}
