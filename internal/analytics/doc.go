// Package analytics derives dashboard views from a daily exchange-rate series:
// log returns, rolling volatility, drawdown, return histogram, volatility
// regimes, event markers, a snapshot summary and headline KPIs.
//
// Every function is pure. Inputs are expected ascending by date with unique
// dates and positive rates; the only notion of "today" is the last date in the
// series, so results are reproducible from a fixed input.
package analytics
