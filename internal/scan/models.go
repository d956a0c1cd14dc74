package scan

// Reason explains why a ticker produced no usable ATM implied volatility.
type Reason string

const (
	ReasonNoSpot   Reason = "no_spot"
	ReasonNoChain  Reason = "no_chain"
	ReasonNoQuotes Reason = "no_quotes"
	ReasonNoIV     Reason = "no_iv"
	ReasonError    Reason = "error"

	// ReasonMissingInput marks entries where the ATM pick succeeded but one
	// of the score inputs (iv or stored rv) is still absent.
	ReasonMissingInput Reason = "missing_rv_or_iv"
)

// AtmPick is the at-the-money selection for one ticker within one scan.
type AtmPick struct {
	Ticker string
	Symbol string
	Spot   *float64
	IV     *float64
	Delta  *float64
	Reason Reason
}

// ScoreEntry is one ranked row of a scan result. Nil fields are absent, never
// zero-coerced; Reason explains any absence.
type ScoreEntry struct {
	Ticker string   `json:"ticker"`
	Spot   *float64 `json:"spot"`
	Symbol string   `json:"option_symbol,omitempty"`
	IV     *float64 `json:"iv"`
	RV     *float64 `json:"rv"`
	Gap    *float64 `json:"iv_gap"`
	Score  *float64 `json:"score"`
	Reason Reason   `json:"reason,omitempty"`
}

// Scored reports whether the entry carries a numeric score.
func (e ScoreEntry) Scored() bool {
	return e.Score != nil
}
