package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"vol-scanner/internal/provider"
	"vol-scanner/internal/server"
	"vol-scanner/internal/storage"
	"vol-scanner/internal/vol"
)

// BackfillRealized rebuilds the realized-vol history against the shared
// store. It backs the /api/backfill endpoint.
func (a *App) BackfillRealized(ctx context.Context, limit int) (server.BackfillSummary, error) {
	if a.store == nil {
		return server.BackfillSummary{}, storage.ErrNotConfigured
	}
	return a.backfillWithStore(ctx, a.store, limit, false)
}

// Backfill runs the historical price and realized-vol backfill job.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) error {
	if err := a.Config.RequireAPIKey(); err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; nothing to backfill into")
	}
	defer closeStore()

	summary, err := a.backfillWithStore(ctx, store, opts.Limit, opts.DryRun)
	if err != nil {
		return err
	}

	evt := a.Logger.Info().
		Str("asof", summary.AsOfDate).
		Ints("windows", summary.Windows).
		Int("done", summary.Done).
		Int("total", summary.Total).
		Int("failed", len(summary.Failed))
	if opts.DryRun {
		evt = evt.Bool("dry_run", true)
	}
	evt.Msg("backfill finished")

	for _, f := range summary.Failed {
		a.Logger.Warn().Str("ticker", f.Ticker).Str("reason", f.Reason).Msg("backfill skipped ticker")
	}
	return nil
}

func (a *App) backfillWithStore(ctx context.Context, store *storage.Store, limit int, dryRun bool) (server.BackfillSummary, error) {
	tickers, err := store.ListUniverse(ctx)
	if err != nil {
		return server.BackfillSummary{}, err
	}
	if len(tickers) == 0 {
		return server.BackfillSummary{}, errors.New("universe is empty; refresh it before backfilling")
	}
	if limit > 0 && limit < len(tickers) {
		tickers = tickers[:limit]
	}

	now := time.Now().UTC()
	asof := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := asof.AddDate(0, 0, -a.Config.Backfill.LookbackDays)
	windows := a.Config.Scan.Windows

	client := a.newProviderClient()

	summary := server.BackfillSummary{
		AsOfDate: asof.Format(dateLayout),
		Windows:  windows,
		Total:    len(tickers),
	}

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return server.BackfillSummary{}, err
		}

		reason, err := a.backfillTicker(ctx, store, client, ticker, from, windows, dryRun)
		if err != nil {
			return server.BackfillSummary{}, fmt.Errorf("backfill %s: %w", ticker, err)
		}
		if reason != "" {
			summary.Failed = append(summary.Failed, server.TickerFailure{Ticker: ticker, Reason: reason})
			continue
		}
		summary.Done++
	}

	return summary, nil
}

// backfillTicker fetches candles for one ticker, persists closes, and upserts
// the rolling realized-vol series for every configured window. A non-empty
// reason marks a skipped ticker; only storage errors abort the job.
func (a *App) backfillTicker(ctx context.Context, store *storage.Store, client *provider.Client, ticker string, from time.Time, windows []int, dryRun bool) (string, error) {
	candles, err := client.FetchCandles(ctx, ticker, from, time.Now().UTC())
	if err != nil {
		if errors.Is(err, provider.ErrNoData) {
			return "no_data", nil
		}
		a.Logger.Warn().Err(err).Str("ticker", ticker).Msg("candle fetch failed")
		return "fetch_failed", nil
	}

	prices := make([]storage.PricePoint, 0, len(candles.Closes))
	for i, c := range candles.Closes {
		prices = append(prices, storage.PricePoint{
			Ticker: ticker,
			Date:   candles.Dates[i],
			Close:  decimal.NewFromFloat(c),
		})
	}
	if !dryRun {
		if err := store.UpsertCloses(ctx, prices); err != nil {
			return "", err
		}
	}

	produced := 0
	for _, window := range windows {
		series := vol.Rolling(candles.Closes, window, a.Config.Scan.TradingDays)

		points := make([]storage.RealizedVolPoint, 0, len(series))
		for i, rv := range series {
			if rv == nil {
				continue
			}
			points = append(points, storage.RealizedVolPoint{
				Ticker:   ticker,
				Window:   window,
				AsOfDate: candles.Dates[i],
				RV:       *rv,
			})
		}
		if len(points) == 0 {
			continue
		}
		produced += len(points)

		if !dryRun {
			if err := store.UpsertRealizedVol(ctx, points); err != nil {
				return "", err
			}
		}
	}
	if produced == 0 {
		return "not_enough_data", nil
	}

	a.Logger.Debug().Str("ticker", ticker).
		Int("closes", len(prices)).
		Int("rv_points", produced).
		Msg("ticker backfilled")
	return "", nil
}
