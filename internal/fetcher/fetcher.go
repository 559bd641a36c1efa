package fetcher

import (
	"context"

	"fx-monitor/internal/analytics"
)

// RateFetcher retrieves a validated daily reference-rate series for a pair.
type RateFetcher interface {
	FetchSeries(ctx context.Context, pair PairConfig, startPeriod string) ([]analytics.RatePoint, error)
}

// PairConfig describes one EUR-based reference rate.
type PairConfig struct {
	Pair     string `mapstructure:"pair"`
	Quote    string `mapstructure:"quote"`
	FileName string `mapstructure:"file"`
}

// SeriesKey is the SDMX key of the daily reference series.
func (p PairConfig) SeriesKey() string {
	return "D." + p.Quote + ".EUR.SP00.A"
}

// DefaultPairs are the pairs published when none are configured.
func DefaultPairs() []PairConfig {
	return []PairConfig{
		{Pair: "EUR/SEK", Quote: "SEK", FileName: "fx_EURSEK.json"},
		{Pair: "EUR/USD", Quote: "USD", FileName: "fx_EURUSD.json"},
		{Pair: "EUR/GBP", Quote: "GBP", FileName: "fx_EURGBP.json"},
		{Pair: "EUR/JPY", Quote: "JPY", FileName: "fx_EURJPY.json"},
		{Pair: "EUR/NOK", Quote: "NOK", FileName: "fx_EURNOK.json"},
		{Pair: "EUR/CHF", Quote: "CHF", FileName: "fx_EURCHF.json"},
	}
}
