package app

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"fx-monitor/internal/analytics"
	"fx-monitor/internal/dataset"
	"fx-monitor/internal/fetcher"
	"fx-monitor/internal/storage"
)

// Backfill loads history from opts.From for each pair into the database.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) error {
	if opts.From.IsZero() && opts.DryRun {
		return errors.New("dry-run 需要指定 --from")
	}
	pairs, err := a.selectPairs(opts.Pairs)
	if err != nil {
		return err
	}

	var store storage.RateStore
	if opts.DryRun {
		a.Logger.Warn().Msg("回填 dry-run：不会写入数据库")
	} else {
		s, closeStore, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return errors.New("database.dsn 未配置，无法回填")
		}
		defer closeStore()
		store = s
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	src := a.newFetcher()
	start := ""
	if !opts.From.IsZero() {
		start = opts.From.UTC().Format(analytics.DateLayout)
	}

	var mu sync.Mutex
	processed, failed := 0, 0

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, pair := range pairs {
		group.Go(func() error {
			n, err := a.backfillPair(gctx, src, store, pair, start)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				a.Logger.Error().Err(err).Str("pair", pair.Pair).Msg("回填失败")
				return nil
			}
			processed++
			a.Logger.Info().Str("pair", pair.Pair).Int("points", n).Msg("回填完成")
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.Logger.Info().Int("processed", processed).Int("failed", failed).Msg("回填结束")
	if failed > 0 {
		return errors.New("部分货币对回填失败，请检查日志")
	}
	return nil
}

func (a *App) backfillPair(ctx context.Context, src fetcher.RateFetcher, store storage.RateStore, pair fetcher.PairConfig, start string) (int, error) {
	if start == "" {
		latest, ok, err := store.LatestDate(ctx, pair.Pair)
		if err != nil {
			return 0, err
		}
		start = a.Config.ECB.StartPeriod
		if ok {
			start = latest
		}
	}

	series, err := src.FetchSeries(ctx, pair, start)
	if err != nil {
		return 0, err
	}
	if err := dataset.ValidatePoints(series); err != nil {
		return 0, err
	}
	if store == nil {
		return len(series), nil
	}
	n, err := store.UpsertRates(ctx, pair.Pair, a.Config.ECB.Source, series)
	if err != nil {
		return 0, err
	}
	if total, err := store.CountRates(ctx, pair.Pair); err == nil {
		a.Logger.Debug().Str("pair", pair.Pair).Int64("stored", total).Str("from", start).Msg("回填后库存")
	}
	return n, nil
}
