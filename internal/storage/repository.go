package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fx-monitor/internal/analytics"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	createSchemaSQL = `CREATE TABLE IF NOT EXISTS fx_rates (
        pair       TEXT        NOT NULL,
        date       DATE        NOT NULL,
        rate       NUMERIC     NOT NULL CHECK (rate > 0),
        source     TEXT        NOT NULL,
        fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (pair, date)
    );
    CREATE TABLE IF NOT EXISTS fx_alerts (
        id         BIGSERIAL PRIMARY KEY,
        pair       TEXT        NOT NULL,
        date       DATE        NOT NULL,
        kind       TEXT        NOT NULL,
        value      NUMERIC     NOT NULL,
        threshold  NUMERIC     NOT NULL,
        channels   TEXT[]      NOT NULL DEFAULT '{}',
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        UNIQUE (pair, date, kind)
    );`

	upsertRateSQL = `INSERT INTO fx_rates (pair, date, rate, source, fetched_at)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (pair, date) DO UPDATE
    SET
        rate       = EXCLUDED.rate,
        source     = EXCLUDED.source,
        fetched_at = EXCLUDED.fetched_at;`

	listRatesSQL = `SELECT date, rate::text
    FROM fx_rates
    WHERE pair = $1
      AND date >= $2
    ORDER BY date;`

	latestDateSQL = `SELECT max(date) FROM fx_rates WHERE pair = $1;`

	countRatesSQL = `SELECT COUNT(*) FROM fx_rates WHERE pair = $1;`

	insertAlertSQL = `INSERT INTO fx_alerts (
        pair,
        date,
        kind,
        value,
        threshold,
        channels
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    ON CONFLICT (pair, date, kind) DO NOTHING
    RETURNING id, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        pair,
        date,
        kind,
        value::text,
        threshold::text,
        channels,
        created_at
    FROM fx_alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// RateStore defines operations for reference rate persistence.
type RateStore interface {
	UpsertRates(ctx context.Context, pair, source string, points []analytics.RatePoint) (int, error)
	ListRates(ctx context.Context, pair, from string) ([]analytics.RatePoint, error)
	LatestDate(ctx context.Context, pair string) (string, bool, error)
	CountRates(ctx context.Context, pair string) (int64, error)
}

// AlertStore defines operations for alert de-duplication.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, bool, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to rates and alerts.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// EnsureSchema creates the tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

// UpsertRates writes points in one batch and returns how many were sent.
func (s *Store) UpsertRates(ctx context.Context, pair, source string, points []analytics.RatePoint) (int, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, nil
	}

	records, err := toRecords(pair, source, points, s.now().UTC())
	if err != nil {
		return 0, err
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(upsertRateSQL, rec.Pair, rec.Date, rec.Rate.String(), rec.Source, rec.FetchedAt)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := range records {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("upsert rate %s %s: %w", pair, records[i].Date.Format(analytics.DateLayout), err)
		}
	}
	return len(records), nil
}

// ListRates returns the ascending series for pair from the given ISO date
// onwards. An empty from lists everything.
func (s *Store) ListRates(ctx context.Context, pair, from string) ([]analytics.RatePoint, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	fromDate := time.Time{}
	if from != "" {
		fromDate, err = time.Parse(analytics.DateLayout, from)
		if err != nil {
			return nil, fmt.Errorf("parse from date: %w", err)
		}
	}

	rows, queryErr := pool.Query(ctx, listRatesSQL, pair, fromDate)
	if queryErr != nil {
		return nil, fmt.Errorf("list rates: %w", queryErr)
	}
	defer rows.Close()

	points := make([]analytics.RatePoint, 0)
	for rows.Next() {
		var (
			date    time.Time
			rateStr string
		)
		if err := rows.Scan(&date, &rateStr); err != nil {
			return nil, err
		}
		point, err := fromRow(date, rateStr)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return points, nil
}

// LatestDate returns the newest stored date for pair.
func (s *Store) LatestDate(ctx context.Context, pair string) (string, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return "", false, err
	}
	var latest *time.Time
	if err := pool.QueryRow(ctx, latestDateSQL, pair).Scan(&latest); err != nil {
		return "", false, fmt.Errorf("latest date: %w", err)
	}
	if latest == nil {
		return "", false, nil
	}
	return latest.Format(analytics.DateLayout), true, nil
}

// CountRates counts stored rates for pair.
func (s *Store) CountRates(ctx context.Context, pair string) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countRatesSQL, pair).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count rates: %w", scanErr)
	}
	return count, nil
}

// InsertAlert records an alert once per (pair, date, kind). The bool reports
// whether a new row was written.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, false, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.Pair,
		alert.Date,
		alert.Kind,
		alert.Value.String(),
		alert.Threshold.String(),
		alert.Channels,
	)

	rec := alert
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return alert, false, nil
		}
		return AlertRecord{}, false, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, true, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		var rec AlertRecord
		var valueStr, thresholdStr string
		if err := rows.Scan(
			&rec.ID,
			&rec.Pair,
			&rec.Date,
			&rec.Kind,
			&valueStr,
			&thresholdStr,
			&rec.Channels,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		var convErr error
		rec.Value, convErr = decimal.NewFromString(valueStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse alert value: %w", convErr)
		}
		rec.Threshold, convErr = decimal.NewFromString(thresholdStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse alert threshold: %w", convErr)
		}

		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

func toRecords(pair, source string, points []analytics.RatePoint, fetchedAt time.Time) ([]RateRecord, error) {
	records := make([]RateRecord, 0, len(points))
	for _, p := range points {
		date, err := time.Parse(analytics.DateLayout, p.Date)
		if err != nil {
			return nil, fmt.Errorf("parse rate date: %w", err)
		}
		records = append(records, RateRecord{
			Pair:      pair,
			Date:      date,
			Rate:      decimal.NewFromFloat(p.Rate),
			Source:    source,
			FetchedAt: fetchedAt,
		})
	}
	return records, nil
}

func fromRow(date time.Time, rateStr string) (analytics.RatePoint, error) {
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return analytics.RatePoint{}, fmt.Errorf("parse rate: %w", err)
	}
	return analytics.RatePoint{
		Date: date.Format(analytics.DateLayout),
		Rate: rate.InexactFloat64(),
	}, nil
}
