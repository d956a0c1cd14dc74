package app

import (
	"context"
	"errors"
	"time"

	"vol-scanner/internal/scan"
	"vol-scanner/internal/service"
	"vol-scanner/internal/storage"
)

// SimulateAlert pushes a synthetic scored entry through the real alert
// pipeline, so notification channels can be verified without market data.
func (a *App) SimulateAlert(ctx context.Context, ticker string, iv, rv float64) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is not enabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no alert channel configured")
	}

	scanner := &staticScanner{ticker: ticker, iv: iv, rv: rv}
	universe := &staticUniverse{tickers: []string{ticker}}

	svc := service.New(a.Config, nil, scanner, universe, nil, notifier, a.Logger)

	bucket := time.Now().UTC().Truncate(24 * time.Hour)
	return svc.ProcessBucket(ctx, bucket)
}

type staticScanner struct {
	ticker string
	iv     float64
	rv     float64
}

func (s *staticScanner) Run(ctx context.Context, universe []string, asof time.Time) ([]scan.ScoreEntry, error) {
	iv, rv := s.iv, s.rv
	gap, score := scan.Score(&iv, &rv)
	return []scan.ScoreEntry{{
		Ticker: s.ticker,
		Symbol: "SIMULATED",
		IV:     &iv,
		RV:     &rv,
		Gap:    gap,
		Score:  score,
	}}, nil
}

type staticUniverse struct {
	tickers []string
}

func (s *staticUniverse) ReplaceUniverse(ctx context.Context, tickers []string) error {
	return nil
}

func (s *staticUniverse) ListUniverse(ctx context.Context) ([]string, error) {
	return s.tickers, nil
}

var _ service.Scanner = (*staticScanner)(nil)
var _ storage.UniverseStore = (*staticUniverse)(nil)
