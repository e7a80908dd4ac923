// Package markettest builds price series for tests.
package markettest

import (
	"github.com/scot00671234/tradingjournal/market"
)

// Start is the first date of every generated series.
var Start = market.NewDate(2024, 1, 1)

// Bars returns one bar per close on consecutive days from Start. High and
// low sit one percent around the close.
func Bars(symbol string, closes ...float64) []market.PriceBar {
	bars := make([]market.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = market.PriceBar{
			Symbol: symbol,
			Date:   Start.AddDays(i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

// Flat returns n closes at price.
func Flat(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

// Ramp returns n closes rising linearly after from, ending at to.
func Ramp(n int, from, to float64) []float64 {
	out := make([]float64, n)
	step := (to - from) / float64(n)
	for i := range out {
		out[i] = from + float64(i+1)*step
	}
	out[n-1] = to
	return out
}

// Triangle returns n closes swinging linearly between high and low with
// the given half period, starting at high.
func Triangle(n int, high, low float64, half int) []float64 {
	out := make([]float64, n)
	step := (high - low) / float64(half)
	for i := range out {
		phase := i % (2 * half)
		if phase <= half {
			out[i] = high - float64(phase)*step
		} else {
			out[i] = low + float64(phase-half)*step
		}
	}
	return out
}

// Concat joins close slices.
func Concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
