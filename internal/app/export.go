package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"fx-monitor/internal/analytics"
)

// exportRow is one date of the derived series. Metrics that do not exist
// for the date (first return, vol warm-up) are nil.
type exportRow struct {
	Date      time.Time
	Rate      float64
	LogReturn *float64
	Vol       *float64
	Drawdown  *float64
}

// Export renders a pair's derived series as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	rng, err := a.Config.ResolveRange(opts.Range)
	if err != nil {
		return err
	}
	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	pair, series, err := a.loadSeries(ctx, opts.Pair, opts.File)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		a.Logger.Info().Str("pair", pair).Msg("no rates found for export")
		return nil
	}

	d := analytics.BuildDashboard(series, rng, a.Config.AnalyticsOptions())
	rows, err := buildRows(d)
	if err != nil {
		return err
	}

	downsampled := downsample(rows, opts.MaxPoints)
	a.Logger.Info().Str("pair", pair).Str("range", string(rng)).Int("total", len(rows)).Int("exported", len(downsampled)).Msg("exporting series")

	if opts.CSVPath != "" {
		if err := writeRowsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeCharts(opts.PNGPath, pair, d, downsampled, a.Config.Analytics.Normalized); err != nil {
			return err
		}
	}

	return nil
}

func buildRows(d analytics.Dashboard) ([]exportRow, error) {
	index := func(points []analytics.MetricPoint) map[string]float64 {
		m := make(map[string]float64, len(points))
		for _, p := range points {
			m[p.Date] = p.Value
		}
		return m
	}
	returns := index(d.LogReturns)
	vol := index(d.Volatility)
	drawdown := index(d.Drawdown)

	lookup := func(m map[string]float64, date string) *float64 {
		v, ok := m[date]
		if !ok {
			return nil
		}
		return &v
	}

	rows := make([]exportRow, 0, len(d.Series))
	for _, p := range d.Series {
		t, err := time.Parse(analytics.DateLayout, p.Date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", p.Date, err)
		}
		rows = append(rows, exportRow{
			Date:      t,
			Rate:      p.Rate,
			LogReturn: lookup(returns, p.Date),
			Vol:       lookup(vol, p.Date),
			Drawdown:  lookup(drawdown, p.Date),
		})
	}
	return rows, nil
}

func downsample[T any](items []T, max int) []T {
	if max <= 0 || len(items) <= max {
		return items
	}
	if max == 1 {
		return items[len(items)-1:]
	}

	result := make([]T, 0, max)
	step := float64(len(items)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(items) {
			idx = len(items) - 1
		}
		result = append(result, items[idx])
	}
	return result
}

func writeRowsCSV(path string, rows []exportRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"date", "rate", "log_return_pct", "rolling_vol_pct", "drawdown_pct"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.Date.Format(analytics.DateLayout),
			strconv.FormatFloat(row.Rate, 'f', 6, 64),
			formatCell(row.LogReturn),
			formatCell(row.Vol),
			formatCell(row.Drawdown),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

// writeCharts renders the rate chart at path plus drawdown and histogram
// charts next to it. With normalized set the rate line is rebased to 100.
func writeCharts(path, pair string, d analytics.Dashboard, rows []exportRow, normalized bool) error {
	if len(rows) < 2 {
		return errors.New("at least two points are required to render charts")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	rateRows := rows
	if normalized {
		rebased := make(map[string]float64, len(d.Series))
		for _, p := range analytics.Normalize(d.Series) {
			rebased[p.Date] = p.Rate
		}
		rateRows = make([]exportRow, len(rows))
		for i, row := range rows {
			row.Rate = rebased[row.Date.Format(analytics.DateLayout)]
			rateRows[i] = row
		}
	}

	if err := writeRateChart(path, pair, d.Events, rateRows); err != nil {
		return err
	}
	if err := writeDrawdownChart(siblingPath(path, "drawdown"), rows); err != nil {
		return err
	}
	if len(d.Histogram) > 0 {
		if err := writeHistogramChart(siblingPath(path, "histogram"), pair, d.Histogram); err != nil {
			return err
		}
	}
	return nil
}

func writeRateChart(path, pair string, events []analytics.EventMarker, rows []exportRow) error {
	x := make([]time.Time, len(rows))
	rates := make([]float64, len(rows))
	var volX []time.Time
	var vol []float64
	for i, row := range rows {
		x[i] = row.Date
		rates[i] = row.Rate
		if row.Vol != nil {
			volX = append(volX, row.Date)
			vol = append(vol, *row.Vol)
		}
	}

	rateFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.4f")
	}
	pctFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f%%")
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    pair,
			XValues: x,
			YValues: rates,
		},
	}
	if len(vol) >= 2 {
		series = append(series, chart.TimeSeries{
			Name:    "Rolling vol %",
			XValues: volX,
			YValues: vol,
			YAxis:   chart.YAxisSecondary,
		})
	}
	if len(events) > 0 {
		annotations := make([]chart.Value2, 0, len(events))
		for _, e := range events {
			t, err := time.Parse(analytics.DateLayout, e.Date)
			if err != nil {
				continue
			}
			annotations = append(annotations, chart.Value2{
				XValue: chart.TimeToFloat64(t),
				YValue: e.Value,
				Label:  e.Label,
			})
		}
		series = append(series, chart.AnnotationSeries{Annotations: annotations})
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Rate",
			ValueFormatter: rateFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Volatility (%)",
			ValueFormatter: pctFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return renderPNG(path, graph.Render)
}

func writeDrawdownChart(path string, rows []exportRow) error {
	x := make([]time.Time, 0, len(rows))
	y := make([]float64, 0, len(rows))
	for _, row := range rows {
		if row.Drawdown == nil {
			continue
		}
		x = append(x, row.Date)
		y = append(y, *row.Drawdown)
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 480,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Drawdown (%)",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.2f")
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Drawdown %",
				XValues: x,
				YValues: y,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					FillColor:   chart.ColorRed.WithAlpha(64),
				},
			},
		},
	}
	return renderPNG(path, graph.Render)
}

func writeHistogramChart(path, pair string, bins []analytics.HistogramBin) error {
	bars := make([]chart.Value, len(bins))
	for i, b := range bins {
		bars[i] = chart.Value{Value: float64(b.Count), Label: b.Label}
	}

	const width = 1280
	slot := max(3, (width-160)/len(bins))
	graph := chart.BarChart{
		Title:      pair + " daily returns",
		Width:      width,
		Height:     480,
		BarWidth:   slot * 2 / 3,
		BarSpacing: slot - slot*2/3,
		Bars:       bars,
	}
	return renderPNG(path, graph.Render)
}

func renderPNG(path string, render func(chart.RendererProvider, io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(chart.PNG, file); err != nil {
		file.Close()
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}

func siblingPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + suffix + ext
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
