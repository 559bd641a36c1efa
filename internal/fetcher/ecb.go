package fetcher

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fx-monitor/internal/analytics"
)

const (
	defaultECBBaseURL = "https://data-api.ecb.europa.eu/service/data/EXR"
	rateDecimals      = 6
)

// ECBOptions parameterise the ECB data API fetcher.
type ECBOptions struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	UserAgent  string
}

// ECB fetches daily reference rates from the ECB SDMX API as CSV.
type ECB struct {
	opts    ECBOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewECB constructs an ECB fetcher.
func NewECB(opts ECBOptions, logger zerolog.Logger) *ECB {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultECBBaseURL
	}

	return &ECB{
		opts:    opts,
		logger:  logger.With().Str("component", "ecb_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		sleep:   sleepContext,
	}
}

// FetchSeries downloads, parses and validates the series for pair. Failed
// attempts are retried with a linearly growing backoff.
func (e *ECB) FetchSeries(ctx context.Context, pair PairConfig, startPeriod string) ([]analytics.RatePoint, error) {
	if pair.Quote == "" {
		return nil, errors.New("pair quote currency required")
	}

	var lastErr error
	for attempt := 1; attempt <= e.opts.MaxRetries; attempt++ {
		e.logger.Info().Str("pair", pair.Pair).Int("attempt", attempt).Int("max", e.opts.MaxRetries).Msg("fetching series")

		rows, err := e.fetchRows(ctx, pair, startPeriod)
		if err == nil {
			series := ParseRows(rows, pair.Pair, e.logger)
			if err := Validate(series, pair.Pair); err != nil {
				return nil, err
			}
			return series, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == e.opts.MaxRetries {
			break
		}

		wait := e.opts.Backoff * time.Duration(attempt)
		e.logger.Warn().Err(err).Str("pair", pair.Pair).Dur("retry_in", wait).Msg("fetch failed")
		if err := e.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", pair.Pair, e.opts.MaxRetries, lastErr)
}

func (e *ECB) fetchRows(ctx context.Context, pair PairConfig, startPeriod string) ([]map[string]string, error) {
	params := url.Values{}
	params.Set("format", "csvdata")
	if startPeriod != "" {
		params.Set("startPeriod", startPeriod)
	}
	endpoint := e.baseURL + "/" + pair.SeriesKey() + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv")
	if ua := strings.TrimSpace(e.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "fxmonitor/1.0")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body := strings.TrimSpace(string(payload))
		if body == "" {
			return nil, fmt.Errorf("ecb api error (%d)", resp.StatusCode)
		}
		return nil, fmt.Errorf("ecb api error (%d): %s", resp.StatusCode, body)
	}

	rows, err := readCSV(strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ecb returned an empty response for %s", pair.Pair)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseRows turns TIME_PERIOD/OBS_VALUE rows into a date-sorted series.
// Blank, unparsable and non-positive observations are skipped.
func ParseRows(rows []map[string]string, pair string, logger zerolog.Logger) []analytics.RatePoint {
	series := make([]analytics.RatePoint, 0, len(rows))
	for _, row := range rows {
		date := strings.TrimSpace(row["TIME_PERIOD"])
		raw := strings.TrimSpace(row["OBS_VALUE"])
		if date == "" || raw == "" {
			continue
		}

		rate, err := decimal.NewFromString(raw)
		if err != nil {
			logger.Debug().Str("pair", pair).Str("value", raw).Msg("skipping invalid rate")
			continue
		}
		if !rate.IsPositive() {
			logger.Debug().Str("pair", pair).Str("value", raw).Msg("skipping non-positive rate")
			continue
		}

		series = append(series, analytics.RatePoint{
			Date: date,
			Rate: rate.Round(rateDecimals).InexactFloat64(),
		})
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})
	return series
}

// Validate rejects empty series and non-positive rates.
func Validate(series []analytics.RatePoint, pair string) error {
	if len(series) == 0 {
		return fmt.Errorf("series is empty for %s", pair)
	}
	for _, p := range series {
		if !(p.Rate > 0) {
			return fmt.Errorf("invalid rate in %s: %v", pair, p.Rate)
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ RateFetcher = (*ECB)(nil)
