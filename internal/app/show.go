package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"fx-monitor/internal/analytics"
)

// Show prints the KPI and snapshot block for one pair and range.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	rng, err := a.Config.ResolveRange(opts.Range)
	if err != nil {
		return err
	}

	pair, series, err := a.loadSeries(ctx, opts.Pair, opts.File)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		fmt.Fprintln(a.Out, "no rates found")
		return nil
	}

	d := analytics.BuildDashboard(series, rng, a.Config.AnalyticsOptions())
	k := d.Kpis
	s := d.Snapshot

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Pair\t%s\n", pair)
	fmt.Fprintf(writer, "Range\t%s\n", d.Range)
	fmt.Fprintf(writer, "Latest date\t%s\n", formatText(s.LatestDate))
	fmt.Fprintf(writer, "Observations\t%d\n", s.Observations)
	fmt.Fprintf(writer, "Latest\t%s\n", formatFloat(k.Latest, 4, ""))
	fmt.Fprintf(writer, "Change 1D\t%s\n", formatFloat(k.Change1d, 2, "%"))
	fmt.Fprintf(writer, "Change 1W\t%s\n", formatFloat(k.Change1w, 2, "%"))
	fmt.Fprintf(writer, "Change 1M\t%s\n", formatFloat(k.Change1m, 2, "%"))
	fmt.Fprintf(writer, "Range min / max\t%s / %s\n", formatFloat(k.Min, 4, ""), formatFloat(k.Max, 4, ""))
	fmt.Fprintf(writer, "MA 30\t%s\n", formatFloat(k.MA30, 4, ""))
	fmt.Fprintf(writer, "Vol 30D\t%s\n", formatFloat(k.Vol30LogReturnPct, 3, "%"))
	fmt.Fprintf(writer, "Trend 30D\t%s\n", formatFloat(s.Trend30dPct, 2, "%"))
	fmt.Fprintf(writer, "Regime\t%s\n", s.VolatilityRegime)
	if len(d.Events) > 0 {
		labels := make([]string, 0, len(d.Events))
		for _, e := range d.Events {
			labels = append(labels, fmt.Sprintf("%s %s", e.Date, e.Label))
		}
		fmt.Fprintf(writer, "Events\t%s\n", strings.Join(labels, "; "))
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if opts.Alerts > 0 {
		return a.showAlerts(ctx, opts.Alerts)
	}
	return nil
}

func (a *App) showAlerts(ctx context.Context, limit int) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot list alerts")
	}
	defer closeStore()

	alerts, err := store.ListRecentAlerts(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.Out)
	if len(alerts) == 0 {
		fmt.Fprintln(a.Out, "no alerts recorded")
		return nil
	}
	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tPair\tKind\tValue\tThreshold\tChannels\tRecorded (UTC)")
	for _, al := range alerts {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			al.Date.Format(analytics.DateLayout),
			al.Pair,
			al.Kind,
			al.Value.StringFixed(3),
			al.Threshold.StringFixed(2),
			strings.Join(al.Channels, ","),
			al.CreatedAt.UTC().Format(time.RFC3339),
		)
	}
	return writer.Flush()
}

func formatFloat(v *float64, places int, suffix string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.*f%s", places, *v, suffix)
}

func formatText(v *string) string {
	if v == nil {
		return "n/a"
	}
	return *v
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
