// Package indicators computes technical indicator series from daily bars.
//
// Every function returns a slice the same length as its input. The value at
// index i only depends on bars[0..i], so a series can be computed once up
// front and read bar-by-bar by a simulation without look-ahead.
package indicators

import "github.com/scot00671234/tradingjournal/market"

// NeutralRSI is emitted while an RSI window is still warming up.
const NeutralRSI = 50.0

// Series is an indicator output aligned with the bars it was computed from.
type Series []float64

// At returns the value at i, or 0 when i is out of range.
func (s Series) At(i int) float64 {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

func closes(bars []market.PriceBar) []float64 {
	return market.Closes(bars)
}
