package provider

import "time"

// Candles is a normalized daily close series, oldest first.
type Candles struct {
	Dates  []time.Time
	Closes []float64
}

// StockQuote carries the price fields of an underlying quote. The provider
// reports every field as an optional singleton list; they are unwrapped to
// scalars at the boundary, nil meaning absent.
type StockQuote struct {
	Mid  *float64
	Bid  *float64
	Ask  *float64
	Last *float64
}

// Spot derives the spot price: mid when present, else the bid/ask midpoint,
// else last. Nil when no price field is available.
func (q StockQuote) Spot() *float64 {
	if q.Mid != nil {
		return q.Mid
	}
	if q.Bid != nil && q.Ask != nil {
		mid := (*q.Bid + *q.Ask) / 2
		return &mid
	}
	return q.Last
}

// OptionQuote carries the normalized per-contract quote fields. Nil fields
// were absent or null in the provider payload; a quote present in a batch with
// nil iv is distinct from a symbol missing from the batch entirely.
type OptionQuote struct {
	IV    *float64
	Delta *float64
	Bid   *float64
	Ask   *float64
	Last  *float64
}

// QuoteBatch is the result of a chunked quote fetch. Symbols preserves the
// first-seen request order of every symbol that produced a quote, so
// downstream selection stays deterministic; Quotes is keyed by symbol.
type QuoteBatch struct {
	Symbols []string
	Quotes  map[string]OptionQuote
}

// candlesResponse mirrors the provider candle payload: epoch seconds in t,
// closes in c, and a status discriminator in s.
type candlesResponse struct {
	Status string    `json:"s"`
	ErrMsg string    `json:"errmsg"`
	Times  []int64   `json:"t"`
	Closes []float64 `json:"c"`
}

type stockQuoteResponse struct {
	Status string     `json:"s"`
	ErrMsg string     `json:"errmsg"`
	Mid    []*float64 `json:"mid"`
	Bid    []*float64 `json:"bid"`
	Ask    []*float64 `json:"ask"`
	Last   []*float64 `json:"last"`
}

type chainResponse struct {
	Status  string   `json:"s"`
	ErrMsg  string   `json:"errmsg"`
	Symbols []string `json:"optionSymbol"`
}

type optionQuotePayload struct {
	IV    []*float64 `json:"iv"`
	Delta []*float64 `json:"delta"`
	Bid   []*float64 `json:"bid"`
	Ask   []*float64 `json:"ask"`
	Last  []*float64 `json:"last"`
}

type quotesResponse struct {
	Status string                        `json:"s"`
	ErrMsg string                        `json:"errmsg"`
	Quotes map[string]optionQuotePayload `json:"quotes"`
}

// firstValue unwraps the provider's singleton-list convention: the first
// element when present and non-null, nil otherwise.
func firstValue(values []*float64) *float64 {
	if len(values) == 0 || values[0] == nil {
		return nil
	}
	v := *values[0]
	return &v
}

func (p optionQuotePayload) normalize() OptionQuote {
	return OptionQuote{
		IV:    firstValue(p.IV),
		Delta: firstValue(p.Delta),
		Bid:   firstValue(p.Bid),
		Ask:   firstValue(p.Ask),
		Last:  firstValue(p.Last),
	}
}
