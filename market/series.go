package market

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnsorted      = errors.New("bars are not in ascending date order")
	ErrDuplicateDate = errors.New("duplicate bar date")
	ErrMixedSymbols  = errors.New("bars belong to more than one symbol")
)

// SortBars orders bars by date, oldest first.
func SortBars(bars []PriceBar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
}

// ValidateSeries checks the invariants a simulation relies on: one symbol,
// strictly ascending dates and well-formed bars.
func ValidateSeries(bars []PriceBar) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		prev := bars[i-1]
		if b.Symbol != prev.Symbol {
			return fmt.Errorf("%w: %s and %s", ErrMixedSymbols, prev.Symbol, b.Symbol)
		}
		if b.Date.Equal(prev.Date) {
			return fmt.Errorf("%w: %s %s", ErrDuplicateDate, b.Symbol, b.Date)
		}
		if b.Date.Before(prev.Date) {
			return fmt.Errorf("%w: %s after %s", ErrUnsorted, b.Date, prev.Date)
		}
	}
	return nil
}

// FilterRange returns the bars whose date lies in [start, end]. Zero bounds
// are open. The input order is preserved.
func FilterRange(bars []PriceBar, start, end Date) []PriceBar {
	out := make([]PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.Date.Between(start, end) {
			out = append(out, b)
		}
	}
	return out
}

// Closes extracts the close prices.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
