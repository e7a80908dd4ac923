package market

import (
	"fmt"
	"math"
)

// PriceBar is one daily OHLCV observation for a symbol.
type PriceBar struct {
	Symbol string  `json:"symbol"`
	Date   Date    `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Validate checks that the bar is internally consistent.
func (b PriceBar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("bar %s: symbol is required", b.Date)
	}
	if b.Date.IsZero() {
		return fmt.Errorf("bar %s: date is required", b.Symbol)
	}
	for name, v := range map[string]float64{"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("bar %s %s: %s must be a positive number, got %v", b.Symbol, b.Date, name, v)
		}
	}
	if b.High < b.Low {
		return fmt.Errorf("bar %s %s: high %.4f below low %.4f", b.Symbol, b.Date, b.High, b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s %s: negative volume", b.Symbol, b.Date)
	}
	return nil
}
