package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"fx-monitor/internal/analytics"
)

// ManifestFileName is the index written next to the series files.
const ManifestFileName = "manifest.json"

var (
	// ErrInvalidSeries marks a payload the analytics layer must not see.
	ErrInvalidSeries = errors.New("dataset: invalid series")
	// ErrInvalidManifest marks a malformed manifest.
	ErrInvalidManifest = errors.New("dataset: invalid manifest")
)

// SeriesFile is the per-pair JSON payload.
type SeriesFile struct {
	Pair         string                `json:"pair"`
	Source       string                `json:"source"`
	GeneratedUTC string                `json:"generated_utc"`
	Series       []analytics.RatePoint `json:"series"`
}

// ManifestItem points at one series file.
type ManifestItem struct {
	Pair      string `json:"pair"`
	File      string `json:"file"`
	SeriesKey string `json:"series_key"`
}

// Manifest lists every published pair.
type Manifest struct {
	Source       string         `json:"source"`
	GeneratedUTC string         `json:"generated_utc"`
	Pairs        []ManifestItem `json:"pairs"`
}

// Find returns the manifest entry for a pair or file name.
func (m *Manifest) Find(key string) (ManifestItem, bool) {
	for _, item := range m.Pairs {
		if item.Pair == key || item.File == key {
			return item, true
		}
	}
	return ManifestItem{}, false
}

// GeneratedAt formats a timestamp the way the payloads carry it.
func GeneratedAt(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// DecodeSeries parses and validates a series payload.
func DecodeSeries(r io.Reader) (*SeriesFile, error) {
	var file SeriesFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidSeries, err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate enforces the invariants the analytics package relies on: a pair
// name, a series array, ISO dates strictly ascending and positive rates.
func (f *SeriesFile) Validate() error {
	if f.Pair == "" || f.Series == nil {
		return fmt.Errorf("%w: missing pair or series", ErrInvalidSeries)
	}
	return ValidatePoints(f.Series)
}

// ValidatePoints checks point shape and ordering.
func ValidatePoints(points []analytics.RatePoint) error {
	prev := ""
	for i, p := range points {
		if _, err := time.Parse(analytics.DateLayout, p.Date); err != nil {
			return fmt.Errorf("%w: point %d has invalid date %q", ErrInvalidSeries, i, p.Date)
		}
		if !(p.Rate > 0) {
			return fmt.Errorf("%w: point %d (%s) has non-positive rate %v", ErrInvalidSeries, i, p.Date, p.Rate)
		}
		if prev != "" && p.Date <= prev {
			return fmt.Errorf("%w: point %d (%s) is not after %s", ErrInvalidSeries, i, p.Date, prev)
		}
		prev = p.Date
	}
	return nil
}

// DecodeManifest parses and validates a manifest payload.
func DecodeManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidManifest, err)
	}
	if m.Pairs == nil {
		return nil, fmt.Errorf("%w: missing pairs array", ErrInvalidManifest)
	}
	for i, item := range m.Pairs {
		if item.Pair == "" || item.File == "" {
			return nil, fmt.Errorf("%w: pair %d has invalid shape", ErrInvalidManifest, i)
		}
	}
	return &m, nil
}

// LoadSeries reads a series file from disk.
func LoadSeries(path string) (*SeriesFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open series: %w", err)
	}
	defer f.Close()

	file, err := DecodeSeries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// LoadManifest reads the manifest from dir.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteSeries writes file as indented JSON.
func WriteSeries(path string, file *SeriesFile) error {
	return writeJSON(path, file)
}

// WriteManifest writes the manifest into dir.
func WriteManifest(dir string, m *Manifest) error {
	return writeJSON(filepath.Join(dir, ManifestFileName), m)
}

func writeJSON(path string, payload any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
