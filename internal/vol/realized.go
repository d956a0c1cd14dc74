package vol

import "math"

// Realized volatility from daily closes.
//
// Two variance conventions are deliberately kept apart and bound to distinct
// call sites:
//
//   - Annualized uses sample variance (divide by W-1) and serves the
//     single-window summary path (scan-time RV, one value per ticker).
//   - Rolling uses population variance (divide by W) and serves the per-row
//     backfill path that materialises an RV series.
//
// The two differ by a factor of sqrt(W/(W-1)); callers must not mix them for
// the same consumer.

// LogReturns computes ln(close_t / close_{t-1}) for consecutive closes.
// A return is NaN when either close is non-positive; NaN returns poison any
// window that includes them.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if prev <= 0 || cur <= 0 {
			returns = append(returns, math.NaN())
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	return returns
}

// Annualized computes the annualized realized volatility of the trailing
// window ending at the last close, using sample variance (Bessel-corrected).
// The second return is false when the series is too short, the window is not
// meaningful, or an invalid close falls inside the trailing window.
func Annualized(closes []float64, window, tradingDays int) (float64, bool) {
	if window <= 1 || len(closes) < window+1 {
		return 0, false
	}

	returns := LogReturns(closes)
	tail := returns[len(returns)-window:]

	mean := 0.0
	for _, r := range tail {
		if math.IsNaN(r) {
			return 0, false
		}
		mean += r
	}
	mean /= float64(window)

	variance := 0.0
	for _, r := range tail {
		d := r - mean
		variance += d * d
	}
	variance /= float64(window - 1)

	return math.Sqrt(variance * float64(tradingDays)), true
}

// Rolling computes a per-row annualized realized volatility series using
// population variance, aligned with the input closes: entry i covers the
// window of returns ending at close i. Entries without a full window of valid
// returns are nil.
func Rolling(closes []float64, window, tradingDays int) []*float64 {
	out := make([]*float64, len(closes))
	if window <= 1 || len(closes) < window+1 {
		return out
	}

	returns := LogReturns(closes)
	ann := math.Sqrt(float64(tradingDays))

	for i := window; i < len(closes); i++ {
		// returns[i-window .. i-1] end at close i
		win := returns[i-window : i]
		mean := 0.0
		valid := true
		for _, r := range win {
			if math.IsNaN(r) {
				valid = false
				break
			}
			mean += r
		}
		if !valid {
			continue
		}
		mean /= float64(window)

		variance := 0.0
		for _, r := range win {
			d := r - mean
			variance += d * d
		}
		variance /= float64(window)

		rv := math.Sqrt(variance) * ann
		out[i] = &rv
	}
	return out
}
