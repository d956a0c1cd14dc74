package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"vol-scanner/internal/storage"
)

// Show prints stored realized vol for a ticker, or recent alerts when no
// ticker is given.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; nothing to show")
	}
	defer closeStore()

	if opts.Ticker != "" {
		return a.showRealizedVol(ctx, store, opts)
	}
	return a.showAlerts(ctx, store, opts.Limit)
}

func (a *App) showRealizedVol(ctx context.Context, store *storage.Store, opts ShowOptions) error {
	window := opts.Window
	if window <= 0 {
		window = a.Config.Scan.Window
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -a.Config.Backfill.LookbackDays)
	points, err := store.ListRealizedVol(ctx, opts.Ticker, window, from, to)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Fprintln(os.Stdout, "no realized vol found")
		return nil
	}
	if opts.Limit > 0 && len(points) > opts.Limit {
		points = points[len(points)-opts.Limit:]
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tTicker\tWindow\tRV")
	for _, p := range points {
		fmt.Fprintf(writer, "%s\t%s\t%d\t%.4f\n",
			p.AsOfDate.Format(dateLayout), p.Ticker, p.Window, p.RV)
	}
	return writer.Flush()
}

func (a *App) showAlerts(ctx context.Context, store *storage.Store, limit int) error {
	if limit <= 0 {
		limit = 20
	}

	alerts, err := store.ListRecentAlerts(ctx, limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tTicker\tIV\tRV\tScore\tMinScore\tChannels\tCreated (UTC)")
	for _, alert := range alerts {
		fmt.Fprintf(writer, "%s\t%s\t%.4f\t%.4f\t%.4f\t%.4f\t%s\t%s\n",
			alert.AsOfDate.Format(dateLayout),
			alert.Ticker,
			alert.IV,
			alert.RV,
			alert.Score,
			alert.MinScore,
			strings.Join(alert.Channels, ","),
			alert.CreatedAt.UTC().Format(time.RFC3339),
		)
	}
	return writer.Flush()
}
