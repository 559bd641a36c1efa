package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"fx-monitor/internal/alerting"
	"fx-monitor/internal/analytics"
	"fx-monitor/internal/config"
	"fx-monitor/internal/dataset"
	"fx-monitor/internal/fetcher"
	"fx-monitor/internal/metrics"
	"fx-monitor/internal/scheduler"
	"fx-monitor/internal/service"
	"fx-monitor/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
}

func (a *App) newFetcher() *fetcher.ECB {
	return fetcher.NewECB(fetcher.ECBOptions{
		BaseURL:    a.Config.ECB.BaseURL,
		Timeout:    a.Config.ECB.RequestTimeout,
		MaxRetries: a.Config.ECB.MaxRetries,
		Backoff:    a.Config.ECB.RetryBackoff,
		UserAgent:  a.Config.ECB.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	store, err := storage.Open(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func (a *App) newScheduler() *scheduler.Scheduler {
	days, err := scheduler.BusinessDays(a.Config.Scheduler.Calendar)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("falling back to weekday schedule")
		days = scheduler.Weekdays
	}
	return scheduler.New(scheduler.Options{
		Interval:       a.Config.Scheduler.Interval,
		AlignToStart:   a.Config.Scheduler.AlignToBucket,
		StartupDelay:   a.Config.Scheduler.StartupDelay,
		RunImmediately: true,
		Days:           days,
	}, a.Logger)
}

// Run executes the long-running refresh service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := a.newScheduler()

	var rateStore storage.RateStore
	var alertStore storage.AlertStore
	if store != nil {
		rateStore = store
		alertStore = store
	}

	var recorder service.Recorder
	var registry *metrics.Recorder
	if a.Config.Metrics.Enabled {
		registry = metrics.New()
		recorder = registry
	}

	svc, err := service.New(a.Config, sched, a.newFetcher(), rateStore, alertStore, a.newNotifier(), recorder, a.Logger)
	if err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)
	if registry != nil {
		group.Go(func() error {
			return registry.Serve(gctx, a.Config.Metrics.Listen, a.Config.Metrics.Path, a.Logger)
		})
	}
	group.Go(func() error {
		a.Logger.Info().Int("pairs", len(a.Config.ResolvePairs())).Msg("starting refresh service")
		return svc.Run(gctx)
	})

	err = group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("refresh service stopped")
	return nil
}

// loadSeries reads a pair's history from a JSON file when given, else from
// the database. A directory is resolved through its manifest.
func (a *App) loadSeries(ctx context.Context, pairKey, file string) (string, []analytics.RatePoint, error) {
	if file != "" {
		if info, err := os.Stat(file); err == nil && info.IsDir() {
			manifest, err := dataset.LoadManifest(file)
			if err != nil {
				return "", nil, err
			}
			item, ok := manifest.Find(pairKey)
			if !ok {
				return "", nil, fmt.Errorf("pair %q not listed in %s", pairKey, dataset.ManifestFileName)
			}
			file = filepath.Join(file, item.File)
		}
		sf, err := dataset.LoadSeries(file)
		if err != nil {
			return "", nil, err
		}
		return sf.Pair, sf.Series, nil
	}

	pair, ok := a.Config.FindPair(pairKey)
	if !ok {
		return "", nil, fmt.Errorf("unknown pair %q", pairKey)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return "", nil, err
	}
	if store == nil {
		return "", nil, errors.New("database not configured; pass --file to read a series file")
	}
	defer closeStore()

	series, err := store.ListRates(ctx, pair.Pair, "")
	if err != nil {
		return "", nil, err
	}
	return pair.Pair, series, nil
}

// FetchOptions configure a one-shot refresh.
type FetchOptions struct {
	Pairs       []string
	StartPeriod string
	OutputDir   string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Pair   string
	File   string
	Range  string
	Alerts int
}

// ExportOptions hold parameters for exporting a pair's derived series.
type ExportOptions struct {
	Pair      string
	File      string
	Range     string
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// AnalyzeOptions configure the offline analysis command.
type AnalyzeOptions struct {
	Input  string
	Output string
	Range  string
}

// BackfillOptions configure the backfill job. A zero From resumes each pair
// from its latest stored date.
type BackfillOptions struct {
	From    time.Time
	Pairs   []string
	DryRun  bool
	Workers int
}

func (a *App) selectPairs(keys []string) ([]fetcher.PairConfig, error) {
	if len(keys) == 0 {
		return a.Config.ResolvePairs(), nil
	}
	out := make([]fetcher.PairConfig, 0, len(keys))
	for _, k := range keys {
		p, ok := a.Config.FindPair(k)
		if !ok {
			return nil, fmt.Errorf("unknown pair %q", k)
		}
		out = append(out, p)
	}
	return out, nil
}
