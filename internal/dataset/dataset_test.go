package dataset

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fx-monitor/internal/analytics"
)

func TestDecodeSeries(t *testing.T) {
	payload := `{"pair":"EUR/SEK","source":"ECB","generated_utc":"2026-02-20T16:00:00Z",
		"series":[{"date":"2026-02-18","rate":11.1234},{"date":"2026-02-19","rate":11.2234}]}`

	file, err := DecodeSeries(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	if file.Pair != "EUR/SEK" || len(file.Series) != 2 {
		t.Fatalf("unexpected file: %+v", file)
	}
}

func TestDecodeSeriesRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":       `[`,
		"missing pair":   `{"series":[]}`,
		"missing series": `{"pair":"EUR/USD"}`,
		"zero rate":      `{"pair":"EUR/USD","series":[{"date":"2026-01-01","rate":0}]}`,
		"bad date":       `{"pair":"EUR/USD","series":[{"date":"01/01/2026","rate":1}]}`,
		"unsorted":       `{"pair":"EUR/USD","series":[{"date":"2026-01-02","rate":1},{"date":"2026-01-01","rate":1}]}`,
		"duplicate":      `{"pair":"EUR/USD","series":[{"date":"2026-01-02","rate":1},{"date":"2026-01-02","rate":1}]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSeries(strings.NewReader(payload))
			if !errors.Is(err, ErrInvalidSeries) {
				t.Fatalf("expected ErrInvalidSeries, got %v", err)
			}
		})
	}
}

func TestDecodeManifestRejectsBadPairs(t *testing.T) {
	if _, err := DecodeManifest(strings.NewReader(`{"source":"ECB"}`)); !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("missing pairs should fail, got %v", err)
	}
	if _, err := DecodeManifest(strings.NewReader(`{"pairs":[{"pair":"EUR/USD"}]}`)); !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("pair without file should fail, got %v", err)
	}
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	now := time.Date(2026, 2, 20, 16, 0, 0, 123, time.UTC)

	file := &SeriesFile{
		Pair:         "EUR/USD",
		Source:       "ECB",
		GeneratedUTC: GeneratedAt(now),
		Series:       []analytics.RatePoint{{Date: "2026-02-19", Rate: 1.04}, {Date: "2026-02-20", Rate: 1.05}},
	}
	path := filepath.Join(dir, "fx_EURUSD.json")
	if err := WriteSeries(path, file); err != nil {
		t.Fatalf("write series: %v", err)
	}
	manifest := &Manifest{Source: "ECB", GeneratedUTC: file.GeneratedUTC, Pairs: []ManifestItem{
		{Pair: "EUR/USD", File: "fx_EURUSD.json", SeriesKey: "D.USD.EUR.SP00.A"},
	}}
	if err := WriteManifest(dir, manifest); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	loaded, err := LoadSeries(path)
	if err != nil {
		t.Fatalf("load series: %v", err)
	}
	if loaded.GeneratedUTC != "2026-02-20T16:00:00Z" {
		t.Fatalf("generated_utc should drop sub-seconds, got %s", loaded.GeneratedUTC)
	}

	m, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	item, ok := m.Find("EUR/USD")
	if !ok || item.File != "fx_EURUSD.json" {
		t.Fatalf("manifest lookup failed: %+v", m)
	}
}
