package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"vol-scanner/internal/storage"
)

// Export renders the stored realized-vol history for one ticker as CSV
// and/or PNG, one series per configured window.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.Ticker == "" {
		return errors.New("--ticker is required")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	defer closeStore()

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}
	from := to.AddDate(0, 0, -a.Config.Backfill.LookbackDays)
	if opts.From != nil {
		from = opts.From.UTC()
	}
	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	series := make(map[int][]storage.RealizedVolPoint, len(a.Config.Scan.Windows))
	total := 0
	for _, window := range a.Config.Scan.Windows {
		points, err := store.ListRealizedVol(ctx, opts.Ticker, window, from, to)
		if err != nil {
			return err
		}
		series[window] = downsamplePoints(points, opts.MaxPoints)
		total += len(points)
	}
	if total == 0 {
		a.Logger.Info().Str("ticker", opts.Ticker).Msg("no realized vol found for export window")
		return nil
	}

	a.Logger.Info().Str("ticker", opts.Ticker).Int("total", total).Msg("exporting realized vol")

	if opts.CSVPath != "" {
		if err := writeVolCSV(opts.CSVPath, a.Config.Scan.Windows, series); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeVolPNG(opts.PNGPath, opts.Ticker, a.Config.Scan.Windows, series); err != nil {
			return err
		}
	}
	return nil
}

func downsamplePoints(points []storage.RealizedVolPoint, max int) []storage.RealizedVolPoint {
	if max <= 0 || len(points) <= max {
		return points
	}

	result := make([]storage.RealizedVolPoint, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		result = append(result, points[idx])
	}
	return result
}

func writeVolCSV(path string, windows []int, series map[int][]storage.RealizedVolPoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"ticker", "window", "asof_date", "rv"}); err != nil {
		return err
	}
	for _, window := range windows {
		for _, p := range series[window] {
			record := []string{
				p.Ticker,
				strconv.Itoa(p.Window),
				p.AsOfDate.Format(dateLayout),
				strconv.FormatFloat(p.RV, 'f', 6, 64),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	return writer.Error()
}

func writeVolPNG(path, ticker string, windows []int, series map[int][]storage.RealizedVolPoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	volFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.3f")
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("%s realized volatility", ticker),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Annualized RV",
			ValueFormatter: volFormatter,
		},
	}

	for _, window := range windows {
		points := series[window]
		if len(points) == 0 {
			continue
		}
		x := make([]time.Time, len(points))
		y := make([]float64, len(points))
		for i, p := range points {
			x[i] = p.AsOfDate
			y[i] = p.RV
		}
		graph.Series = append(graph.Series, chart.TimeSeries{
			Name:    fmt.Sprintf("%dd", window),
			XValues: x,
			YValues: y,
		})
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
