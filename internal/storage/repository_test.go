package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"fx-monitor/internal/analytics"
)

func TestNilStoreNotConfigured(t *testing.T) {
	var s *Store
	if _, err := s.ListRates(context.Background(), "EUR/USD", ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, _, err := s.InsertAlert(context.Background(), AlertRecord{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	s.Close()
}

func TestToRecordsRoundTrip(t *testing.T) {
	fetched := time.Date(2026, 2, 20, 16, 0, 0, 0, time.UTC)
	points := []analytics.RatePoint{{Date: "2026-02-19", Rate: 11.223412}, {Date: "2026-02-20", Rate: 11.3}}

	records, err := toRecords("EUR/SEK", "ECB", points, fetched)
	if err != nil {
		t.Fatalf("toRecords: %v", err)
	}
	if len(records) != 2 || records[0].Rate.String() != "11.223412" || !records[1].FetchedAt.Equal(fetched) {
		t.Fatalf("unexpected records: %+v", records)
	}

	back, err := fromRow(records[0].Date, records[0].Rate.String())
	if err != nil {
		t.Fatalf("fromRow: %v", err)
	}
	if back != points[0] {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, points[0])
	}
}

func TestToRecordsRejectsBadDate(t *testing.T) {
	if _, err := toRecords("EUR/SEK", "ECB", []analytics.RatePoint{{Date: "2026/02/19", Rate: 1}}, time.Now()); err == nil {
		t.Fatal("bad date should fail")
	}
}
