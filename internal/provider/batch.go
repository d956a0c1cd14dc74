package provider

import (
	"context"

	"github.com/rs/zerolog"
)

// QuoteSource is the single-chunk quote call the batcher fans out over.
type QuoteSource interface {
	FetchQuotes(ctx context.Context, symbols []string) (map[string]OptionQuote, error)
}

// QuoteBatcher turns an option chain into a bounded set of quote requests:
// symbols are deduplicated preserving first-seen order, capped, and fetched
// in fixed-size chunks. A chunk that still fails after the client's retry
// budget is skipped whole; its symbols are simply absent from the result.
type QuoteBatcher struct {
	source     QuoteSource
	chunkSize  int
	maxSymbols int
	logger     zerolog.Logger
}

// NewQuoteBatcher constructs a batcher over source.
func NewQuoteBatcher(source QuoteSource, chunkSize, maxSymbols int, logger zerolog.Logger) *QuoteBatcher {
	if chunkSize <= 0 {
		chunkSize = 20
	}
	if maxSymbols <= 0 {
		maxSymbols = 80
	}
	return &QuoteBatcher{
		source:     source,
		chunkSize:  chunkSize,
		maxSymbols: maxSymbols,
		logger:     logger.With().Str("component", "quote_batcher").Logger(),
	}
}

// FetchBatch fetches quotes for symbols chunk by chunk. Partial provider
// failures never fail the batch; only context cancellation aborts it.
func (b *QuoteBatcher) FetchBatch(ctx context.Context, symbols []string) (*QuoteBatch, error) {
	uniq := Dedupe(symbols)
	if len(uniq) > b.maxSymbols {
		uniq = uniq[:b.maxSymbols]
	}

	merged := make(map[string]OptionQuote, len(uniq))
	for start := 0; start < len(uniq); start += b.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + b.chunkSize
		if end > len(uniq) {
			end = len(uniq)
		}
		chunk := uniq[start:end]

		quotes, err := b.source.FetchQuotes(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.logger.Warn().Err(err).Int("chunk_size", len(chunk)).Msg("quote chunk failed, skipping")
			continue
		}
		// Merge the chunk in full so a later cancellation never leaves a
		// half-applied chunk behind.
		for sym, q := range quotes {
			merged[sym] = q
		}
	}

	batch := &QuoteBatch{
		Symbols: make([]string, 0, len(merged)),
		Quotes:  merged,
	}
	for _, sym := range uniq {
		if _, ok := merged[sym]; ok {
			batch.Symbols = append(batch.Symbols, sym)
		}
	}
	return batch, nil
}

// Dedupe removes duplicates and blanks preserving first-seen order.
func Dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
