package app

import (
	"context"
	"errors"
	"fmt"

	"vol-scanner/internal/provider"
	"vol-scanner/internal/storage"
	"vol-scanner/internal/universe"
)

// RefreshUniverse reloads the ticker universe from the configured CSV into
// the shared store. It backs POST /api/universe/refresh.
func (a *App) RefreshUniverse(ctx context.Context) (int, error) {
	if a.store == nil {
		return 0, storage.ErrNotConfigured
	}
	return universe.Refresh(ctx, a.store, a.Config.Universe.CSVPath)
}

// ListUniverse returns stored tickers for GET /api/universe.
func (a *App) ListUniverse(ctx context.Context, limit int) ([]string, error) {
	if a.store == nil {
		return nil, storage.ErrNotConfigured
	}
	tickers, err := a.store.ListUniverse(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(tickers) {
		tickers = tickers[:limit]
	}
	return tickers, nil
}

// StockQuote fetches a fresh underlying quote for GET /api/stocks/price. An
// empty quote without error means the provider has no data for the ticker.
func (a *App) StockQuote(ctx context.Context, ticker string) (provider.StockQuote, error) {
	quote, err := a.newProviderClient().FetchStockQuote(ctx, ticker)
	if err != nil {
		if errors.Is(err, provider.ErrNoData) {
			return provider.StockQuote{}, nil
		}
		return provider.StockQuote{}, err
	}
	return quote, nil
}

// UniverseRefresh is the one-shot CLI variant of RefreshUniverse.
func (a *App) UniverseRefresh(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; nowhere to store the universe")
	}
	defer closeStore()

	count, err := universe.Refresh(ctx, store, a.Config.Universe.CSVPath)
	if err != nil {
		return err
	}
	a.Logger.Info().Int("tickers", count).Str("source", a.Config.Universe.CSVPath).Msg("universe refreshed")
	return nil
}

// UniverseList prints the stored universe.
func (a *App) UniverseList(ctx context.Context, limit int) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured")
	}
	defer closeStore()

	tickers, err := store.ListUniverse(ctx)
	if err != nil {
		return err
	}
	if limit > 0 && limit < len(tickers) {
		tickers = tickers[:limit]
	}
	for _, t := range tickers {
		fmt.Println(t)
	}
	a.Logger.Info().Int("tickers", len(tickers)).Msg("universe listed")
	return nil
}
