package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"vol-scanner/internal/server"
	"vol-scanner/internal/storage"
)

const dateLayout = "2006-01-02"

// ScanUniverse runs one universe scan against the shared store. It backs the
// /api/scan endpoint and is only callable while the serve loop is running.
func (a *App) ScanUniverse(ctx context.Context, window, top, limit int) (server.ScanSummary, error) {
	if a.store == nil {
		return server.ScanSummary{}, storage.ErrNotConfigured
	}
	return a.scanWithStore(ctx, a.store, window, top, limit)
}

// Scan executes a one-shot scan and prints the ranked table.
func (a *App) Scan(ctx context.Context, opts ScanOptions) error {
	if err := a.Config.RequireAPIKey(); err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; realized vol lookups need a store")
	}
	defer closeStore()

	summary, err := a.scanWithStore(ctx, store, opts.Window, opts.Top, opts.Limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "scan as of %s (window %d)\n", summary.AsOfDate, summary.Window)
	fmt.Fprintln(w, "TICKER\tSPOT\tOPTION\tIV\tRV\tGAP\tSCORE\tREASON")
	for _, e := range summary.Ranked {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Ticker,
			fmtFloat(e.Spot, 2),
			dash(e.Symbol),
			fmtFloat(e.IV, 4),
			fmtFloat(e.RV, 4),
			fmtFloat(e.Gap, 4),
			fmtFloat(e.Score, 4),
			dash(string(e.Reason)),
		)
	}
	return w.Flush()
}

func (a *App) scanWithStore(ctx context.Context, store *storage.Store, window, top, limit int) (server.ScanSummary, error) {
	if window <= 0 {
		window = a.Config.Scan.Window
	}
	if top <= 0 {
		top = a.Config.Scan.Top
	}

	tickers, err := store.ListUniverse(ctx)
	if err != nil {
		return server.ScanSummary{}, err
	}
	if len(tickers) == 0 {
		return server.ScanSummary{}, errors.New("universe is empty; refresh it before scanning")
	}
	if limit > 0 && limit < len(tickers) {
		tickers = tickers[:limit]
	}

	client := a.newProviderClient()
	orch := a.newOrchestrator(client, store, window, top)

	asof := time.Now().UTC()
	ranked, err := orch.Run(ctx, tickers, asof)
	if err != nil {
		return server.ScanSummary{}, err
	}

	return server.ScanSummary{
		AsOfDate: asof.Format(dateLayout),
		Window:   window,
		Top:      top,
		Count:    len(ranked),
		Ranked:   ranked,
	}, nil
}

func fmtFloat(v *float64, places int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", places, *v)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
