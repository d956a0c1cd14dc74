package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one persisted daily close.
type PricePoint struct {
	Ticker string
	Date   time.Time
	Close  decimal.Decimal
}

// RealizedVolPoint is one persisted annualized realized-vol observation for a
// (ticker, window) pair as of a trading date.
type RealizedVolPoint struct {
	Ticker   string
	Window   int
	AsOfDate time.Time
	RV       float64
}

// ScanAlert captures an emitted score alert for de-duplication/auditing.
type ScanAlert struct {
	ID        int64
	Ticker    string
	AsOfDate  time.Time
	IV        float64
	RV        float64
	Score     float64
	MinScore  float64
	Channels  []string
	CreatedAt time.Time
}
