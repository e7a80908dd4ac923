package indicators

import (
	"math"

	"github.com/scot00671234/tradingjournal/market"
)

// HighestHigh returns the highest high of the n bars strictly before index i.
// ok is false when fewer than n bars precede i.
func HighestHigh(bars []market.PriceBar, i, n int) (high float64, ok bool) {
	if n <= 0 || i < n || i > len(bars) {
		return 0, false
	}
	high = math.Inf(-1)
	for _, b := range bars[i-n : i] {
		if b.High > high {
			high = b.High
		}
	}
	return high, true
}

// LowestLow returns the lowest low of the n bars strictly before index i.
func LowestLow(bars []market.PriceBar, i, n int) (low float64, ok bool) {
	if n <= 0 || i < n || i > len(bars) {
		return 0, false
	}
	low = math.Inf(1)
	for _, b := range bars[i-n : i] {
		if b.Low < low {
			low = b.Low
		}
	}
	return low, true
}
