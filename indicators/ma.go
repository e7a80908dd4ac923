package indicators

import "github.com/scot00671234/tradingjournal/market"

// SMA calculates the simple moving average of closes for every bar.
//
// Index i holds 0 until a full window is available (i < period-1); after that
// it is the mean of the closes in [i-period+1, i]. A non-positive period
// yields an all-zero series.
func SMA(bars []market.PriceBar, period int) Series {
	return SMAValues(closes(bars), period)
}

// SMAValues is SMA over a plain value slice.
func SMAValues(values []float64, period int) Series {
	out := make(Series, len(values))
	if period <= 0 {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i < period-1 {
			continue
		}
		// Resum the window periodically so long series don't drift.
		if i%1024 == 0 {
			sum = 0
			for _, w := range values[i-period+1 : i+1] {
				sum += w
			}
		}
		out[i] = sum / float64(period)
	}
	return out
}
