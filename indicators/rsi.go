package indicators

import "github.com/scot00671234/tradingjournal/market"

// RSI calculates the relative strength index of closes.
//
// The first period values are NeutralRSI. From index period on, the gains
// and losses of the period close-to-close changes ending at i are averaged
// with a plain arithmetic mean (no Wilder smoothing):
//
//	RSI = 100 - 100/(1 + avgGain/avgLoss)
//
// with RSI = 100 when avgLoss is zero.
func RSI(bars []market.PriceBar, period int) Series {
	return RSIValues(closes(bars), period)
}

// RSIValues is RSI over a plain value slice.
func RSIValues(values []float64, period int) Series {
	out := make(Series, len(values))
	for i := range out {
		out[i] = NeutralRSI
	}
	if period <= 0 {
		return out
	}

	for i := period; i < len(values); i++ {
		var gain, loss float64
		for j := i - period + 1; j <= i; j++ {
			change := values[j] - values[j-1]
			if change > 0 {
				gain += change
			} else {
				loss -= change
			}
		}
		avgGain := gain / float64(period)
		avgLoss := loss / float64(period)

		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
