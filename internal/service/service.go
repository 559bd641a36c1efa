package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fx-monitor/internal/alerting"
	"fx-monitor/internal/analytics"
	"fx-monitor/internal/config"
	"fx-monitor/internal/dataset"
	"fx-monitor/internal/fetcher"
	"fx-monitor/internal/scheduler"
	"fx-monitor/internal/storage"
)

// Recorder receives per-pair refresh outcomes.
type Recorder interface {
	RecordDashboard(pair string, d analytics.Dashboard)
	RecordError(pair, stage string)
	RecordDuration(pair string, d time.Duration)
}

// PairResult is the outcome of refreshing one pair.
type PairResult struct {
	Pair      fetcher.PairConfig
	Points    int
	Dashboard analytics.Dashboard
	Err       error
}

// Service orchestrates fetching, persistence, publishing and alerting.
type Service struct {
	scheduler  *scheduler.Scheduler
	fetcher    fetcher.RateFetcher
	store      storage.RateStore
	alertStore storage.AlertStore
	notifier   alerting.Notifier
	recorder   Recorder
	logger     zerolog.Logger

	pairs       []fetcher.PairConfig
	startPeriod string
	source      string
	outputDir   string
	rng         analytics.Range
	opts        analytics.Options

	moveThreshold decimal.Decimal
	highVol       bool
	channels      []string
	alertsOn      bool
	locker        storage.AdvisoryLocker
	lockKey       int64
	now           func() time.Time
}

// New constructs the refresh service. Store, alert store, notifier and
// recorder are optional.
func New(cfg *config.Config, sched *scheduler.Scheduler, rates fetcher.RateFetcher, store storage.RateStore, alertStore storage.AlertStore, notifier alerting.Notifier, recorder Recorder, logger zerolog.Logger) (*Service, error) {
	rng, err := cfg.ResolveRange("")
	if err != nil {
		return nil, err
	}

	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler:     sched,
		fetcher:       rates,
		store:         store,
		alertStore:    alertStore,
		notifier:      notifier,
		recorder:      recorder,
		logger:        logger.With().Str("component", "service").Logger(),
		pairs:         cfg.ResolvePairs(),
		startPeriod:   cfg.ECB.StartPeriod,
		source:        cfg.ECB.Source,
		outputDir:     cfg.Export.OutputDir,
		rng:           rng,
		opts:          cfg.AnalyticsOptions(),
		moveThreshold: decimal.NewFromFloat(cfg.Alerting.MoveThresholdPct),
		highVol:       cfg.Alerting.HighVolatility,
		channels:      cfg.Alerting.Channels,
		alertsOn:      cfg.Alerting.Enabled,
		locker:        locker,
		lockKey:       cfg.Scheduler.AdvisoryLockKey,
		now:           time.Now,
	}, nil
}

// WithPairs restricts the service to the given pairs.
func (s *Service) WithPairs(pairs []fetcher.PairConfig) *Service {
	s.pairs = pairs
	return s
}

// WithStartPeriod overrides the first date requested from the source.
func (s *Service) WithStartPeriod(start string) *Service {
	s.startPeriod = start
	return s
}

// WithOutputDir overrides where JSON files are written; empty disables it.
func (s *Service) WithOutputDir(dir string) *Service {
	s.outputDir = dir
	return s
}

// Run begins the scheduled refresh loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, func(ctx context.Context, bucket time.Time) error {
		_, err := s.Refresh(ctx)
		return err
	})
}

// Refresh updates every configured pair. A failing pair is logged and
// reported in the joined error without stopping the others.
func (s *Service) Refresh(ctx context.Context) ([]PairResult, error) {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	if !proceed {
		s.logger.Debug().Msg("skip refresh because advisory lock held elsewhere")
		return nil, nil
	}
	if unlock != nil {
		defer unlock()
	}

	generated := dataset.GeneratedAt(s.now())
	results := make([]PairResult, 0, len(s.pairs))
	var errs []error
	for _, pair := range s.pairs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := s.refreshPair(ctx, pair, generated)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pair.Pair, res.Err))
		}
		results = append(results, res)
	}

	if s.outputDir != "" {
		if err := s.writeManifest(generated); err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

func (s *Service) refreshPair(ctx context.Context, pair fetcher.PairConfig, generated string) PairResult {
	started := s.now()
	res := PairResult{Pair: pair}
	log := s.logger.With().Str("pair", pair.Pair).Logger()

	series, err := s.fetcher.FetchSeries(ctx, pair, s.startPeriod)
	if err != nil {
		s.recordError(pair.Pair, "fetch")
		res.Err = fmt.Errorf("fetch series: %w", err)
		return res
	}
	if err := dataset.ValidatePoints(series); err != nil {
		s.recordError(pair.Pair, "validate")
		res.Err = err
		return res
	}
	res.Points = len(series)

	if s.store != nil {
		if _, err := s.store.UpsertRates(ctx, pair.Pair, s.source, series); err != nil {
			s.recordError(pair.Pair, "store")
			log.Error().Err(err).Msg("failed to upsert rates")
		}
	}

	if s.outputDir != "" {
		file := &dataset.SeriesFile{Pair: pair.Pair, Source: s.source, GeneratedUTC: generated, Series: series}
		if err := dataset.WriteSeries(filepath.Join(s.outputDir, pair.FileName), file); err != nil {
			s.recordError(pair.Pair, "publish")
			res.Err = err
			return res
		}
	}

	res.Dashboard = analytics.BuildDashboard(series, s.rng, s.opts)
	if s.recorder != nil {
		s.recorder.RecordDashboard(pair.Pair, res.Dashboard)
		s.recorder.RecordDuration(pair.Pair, s.now().Sub(started))
	}

	ev := log.Info().Int("points", res.Points).Str("regime", string(res.Dashboard.Snapshot.VolatilityRegime))
	if res.Dashboard.Snapshot.LatestDate != nil {
		ev = ev.Str("latest_date", *res.Dashboard.Snapshot.LatestDate)
	}
	ev.Msg("pair refreshed")

	s.evaluateAlerts(ctx, pair.Pair, res.Dashboard)
	return res
}

func (s *Service) writeManifest(generated string) error {
	manifest := &dataset.Manifest{Source: s.source, GeneratedUTC: generated}
	for _, p := range s.pairs {
		manifest.Pairs = append(manifest.Pairs, dataset.ManifestItem{Pair: p.Pair, File: p.FileName, SeriesKey: p.SeriesKey()})
	}
	if err := dataset.WriteManifest(s.outputDir, manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	s.logger.Info().Int("pairs", len(manifest.Pairs)).Msg("wrote manifest")
	return nil
}

// evaluateAlerts 根据最新 KPI 判断是否需要告警。
func (s *Service) evaluateAlerts(ctx context.Context, pair string, d analytics.Dashboard) {
	if !s.alertsOn || s.notifier == nil || d.Snapshot.LatestDate == nil || d.Kpis.Latest == nil {
		return
	}

	base := alerting.Notification{
		Pair:         pair,
		Date:         *d.Snapshot.LatestDate,
		Latest:       decimal.NewFromFloat(*d.Kpis.Latest),
		ThresholdPct: s.moveThreshold,
		Regime:       string(d.Snapshot.VolatilityRegime),
		Channels:     s.channels,
	}
	if d.Kpis.Vol30LogReturnPct != nil {
		vol := decimal.NewFromFloat(*d.Kpis.Vol30LogReturnPct)
		base.Vol30Pct = &vol
	}

	if d.Kpis.Change1d != nil && s.moveThreshold.IsPositive() {
		change := decimal.NewFromFloat(*d.Kpis.Change1d)
		if change.Abs().GreaterThanOrEqual(s.moveThreshold) {
			note := base
			note.Kind = alerting.KindMove
			note.ChangePct = change
			s.dispatch(ctx, note, change)
		}
	}

	if s.highVol && d.Snapshot.VolatilityRegime == analytics.RegimeHigh {
		note := base
		note.Kind = alerting.KindHighVolatility
		value := decimal.Zero
		if note.Vol30Pct != nil {
			value = *note.Vol30Pct
		}
		s.dispatch(ctx, note, value)
	}
}

func (s *Service) dispatch(ctx context.Context, note alerting.Notification, value decimal.Decimal) {
	if s.alertStore != nil {
		date, err := time.Parse(analytics.DateLayout, note.Date)
		if err != nil {
			s.logger.Error().Err(err).Str("pair", note.Pair).Msg("invalid alert date")
			return
		}
		record := storage.AlertRecord{
			Pair:      note.Pair,
			Date:      date,
			Kind:      note.Kind,
			Value:     value,
			Threshold: s.moveThreshold,
			Channels:  s.channels,
		}
		_, created, err := s.alertStore.InsertAlert(ctx, record)
		if err != nil {
			s.logger.Error().Err(err).Str("pair", note.Pair).Msg("failed to persist alert record")
		} else if !created {
			s.logger.Debug().Str("pair", note.Pair).Str("kind", note.Kind).Str("date", note.Date).Msg("alert already sent")
			return
		}
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.recordError(note.Pair, "alert")
		s.logger.Error().Err(err).Str("pair", note.Pair).Str("kind", note.Kind).Msg("failed to dispatch alert")
	}
}

func (s *Service) recordError(pair, stage string) {
	if s.recorder != nil {
		s.recorder.RecordError(pair, stage)
	}
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
