package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"vol-scanner/internal/provider"
	"vol-scanner/internal/scan"
	"vol-scanner/internal/storage"
	"vol-scanner/internal/vol"
)

// realizedVolSource answers scan-time RV lookups. It prefers the backfilled
// series and, when a ticker has no stored row yet, computes a single trailing
// window from fresh candles instead of leaving the ticker unscored.
type realizedVolSource struct {
	store       storage.RealizedVolStore
	client      *provider.Client
	tradingDays int
	logger      zerolog.Logger
}

func newRealizedVolSource(store storage.RealizedVolStore, client *provider.Client, tradingDays int, logger zerolog.Logger) *realizedVolSource {
	return &realizedVolSource{
		store:       store,
		client:      client,
		tradingDays: tradingDays,
		logger:      logger.With().Str("component", "rv_source").Logger(),
	}
}

func (s *realizedVolSource) LatestRealizedVol(ctx context.Context, ticker string, window int, asof time.Time) (*float64, error) {
	rv, err := s.store.LatestRealizedVol(ctx, ticker, window, asof)
	if err != nil {
		return nil, err
	}
	if rv != nil {
		return rv, nil
	}
	return s.computeLive(ctx, ticker, window, asof)
}

// computeLive fetches just enough candles to cover the trailing window.
// Calendar days overshoot trading days, so the lookback is padded; the
// estimator trims to the window itself.
func (s *realizedVolSource) computeLive(ctx context.Context, ticker string, window int, asof time.Time) (*float64, error) {
	from := asof.AddDate(0, 0, -(window*2 + 14))
	candles, err := s.client.FetchCandles(ctx, ticker, from, asof)
	if err != nil {
		if errors.Is(err, provider.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}

	value, ok := vol.Annualized(candles.Closes, window, s.tradingDays)
	if !ok {
		return nil, nil
	}
	s.logger.Debug().Str("ticker", ticker).Int("window", window).Msg("realized vol computed live")
	return &value, nil
}

var _ scan.VolReader = (*realizedVolSource)(nil)
