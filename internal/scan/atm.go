package scan

import (
	"math"

	"vol-scanner/internal/provider"
)

// atmTargetDelta is the call-delta proxy for an at-the-money contract.
const atmTargetDelta = 0.5

// PickATM selects the contract whose delta sits closest to 0.5, the ATM call
// proxy. Quotes missing iv or delta are ineligible. Iteration follows the
// batch's first-seen symbol order, so ties resolve deterministically to the
// earlier symbol. Reason is ReasonNoIV when no quote is eligible.
func PickATM(ticker string, spot *float64, batch *provider.QuoteBatch) AtmPick {
	pick := AtmPick{Ticker: ticker, Spot: spot, Reason: ReasonNoIV}

	bestDist := math.Inf(1)
	for _, sym := range batch.Symbols {
		quote, ok := batch.Quotes[sym]
		if !ok || quote.IV == nil || quote.Delta == nil {
			continue
		}

		dist := math.Abs(*quote.Delta - atmTargetDelta)
		if dist < bestDist {
			bestDist = dist
			pick.Symbol = sym
			pick.IV = quote.IV
			pick.Delta = quote.Delta
			pick.Reason = ""
		}
	}
	return pick
}
