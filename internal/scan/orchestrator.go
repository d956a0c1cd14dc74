package scan

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vol-scanner/internal/metrics"
	"vol-scanner/internal/provider"
)

// SpotSource resolves the current spot price for an underlying.
type SpotSource interface {
	Spot(ctx context.Context, ticker string) (*float64, error)
}

// ChainSource lists the currently listed option symbols for an underlying.
type ChainSource interface {
	ChainSymbols(ctx context.Context, ticker string) ([]string, error)
}

// BatchSource fetches quotes for a symbol set with chunking and retries.
type BatchSource interface {
	FetchBatch(ctx context.Context, symbols []string) (*provider.QuoteBatch, error)
}

// VolReader looks up the stored realized volatility for (ticker, window) as
// of a date. Nil without error means no row exists.
type VolReader interface {
	LatestRealizedVol(ctx context.Context, ticker string, window int, asof time.Time) (*float64, error)
}

// Options tune one orchestrator instance.
type Options struct {
	Window        int
	Top           int
	UnscoredLimit int
	Workers       int
}

// Orchestrator joins stored realized vol with freshly fetched ATM implied
// vol across a ticker universe and produces a ranked result.
type Orchestrator struct {
	spots   SpotSource
	chains  ChainSource
	quotes  BatchSource
	vols    VolReader
	opts    Options
	logger  zerolog.Logger
	metrics *metrics.Recorder
}

// New constructs an Orchestrator.
func New(spots SpotSource, chains ChainSource, quotes BatchSource, vols VolReader, opts Options, logger zerolog.Logger, rec *metrics.Recorder) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Orchestrator{
		spots:   spots,
		chains:  chains,
		quotes:  quotes,
		vols:    vols,
		opts:    opts,
		logger:  logger.With().Str("component", "scan").Logger(),
		metrics: rec,
	}
}

// Run scans the universe with bounded parallelism and returns the ranked
// entries. Per-ticker failures degrade to unscored entries with a reason;
// only context cancellation fails the scan. The ranking is computed after
// all per-ticker results are collected, so the output does not depend on
// fetch completion order.
func (o *Orchestrator) Run(ctx context.Context, universe []string, asof time.Time) ([]ScoreEntry, error) {
	started := time.Now()

	results := make([]ScoreEntry, len(universe))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < o.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = o.scanTicker(ctx, universe[idx], asof)
			}
		}()
	}

feed:
	for i := range universe {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, e := range results {
		if e.Scored() {
			o.metrics.ScanTicker("scored")
		} else {
			o.metrics.ScanTicker("unscored")
		}
	}
	o.metrics.ScanDuration(time.Since(started).Seconds())

	ranked := Rank(results, o.opts.Top, o.opts.UnscoredLimit)
	o.logger.Info().
		Int("universe", len(universe)).
		Int("returned", len(ranked)).
		Dur("elapsed", time.Since(started)).
		Msg("scan complete")
	return ranked, nil
}

func (o *Orchestrator) scanTicker(ctx context.Context, ticker string, asof time.Time) ScoreEntry {
	rv, err := o.vols.LatestRealizedVol(ctx, ticker, o.opts.Window, asof)
	if err != nil {
		o.logger.Warn().Err(err).Str("ticker", ticker).Msg("realized vol lookup failed")
		rv = nil
	}

	pick := o.atmPick(ctx, ticker)
	gap, score := Score(pick.IV, rv)

	entry := ScoreEntry{
		Ticker: ticker,
		Spot:   pick.Spot,
		Symbol: pick.Symbol,
		IV:     pick.IV,
		RV:     rv,
		Gap:    gap,
		Score:  score,
		Reason: pick.Reason,
	}
	if entry.Reason == "" && !entry.Scored() {
		entry.Reason = ReasonMissingInput
	}
	return entry
}

func (o *Orchestrator) atmPick(ctx context.Context, ticker string) AtmPick {
	spot, err := o.spots.Spot(ctx, ticker)
	if err != nil {
		o.logger.Warn().Err(err).Str("ticker", ticker).Msg("spot fetch failed")
		return AtmPick{Ticker: ticker, Reason: ReasonError}
	}
	if spot == nil {
		return AtmPick{Ticker: ticker, Reason: ReasonNoSpot}
	}

	symbols, err := o.chains.ChainSymbols(ctx, ticker)
	if err != nil {
		o.logger.Warn().Err(err).Str("ticker", ticker).Msg("chain fetch failed")
		return AtmPick{Ticker: ticker, Spot: spot, Reason: ReasonError}
	}
	if len(symbols) == 0 {
		return AtmPick{Ticker: ticker, Spot: spot, Reason: ReasonNoChain}
	}

	batch, err := o.quotes.FetchBatch(ctx, symbols)
	if err != nil {
		o.logger.Warn().Err(err).Str("ticker", ticker).Msg("quote batch failed")
		return AtmPick{Ticker: ticker, Spot: spot, Reason: ReasonError}
	}
	if len(batch.Symbols) == 0 {
		return AtmPick{Ticker: ticker, Spot: spot, Reason: ReasonNoQuotes}
	}

	return PickATM(ticker, spot, batch)
}
