// Package risk sizes positions and places protective exits for the
// backtest simulator.
package risk

import (
	"fmt"
	"math"
)

// Policy holds the money-management settings of a backtest.
type Policy struct {
	// Percent of the current cash balance committed per trade, e.g. 25.
	PositionSizePercent float64
	// Flat fee charged on every fill (entry and exit).
	Commission float64
	// Percent adverse move from entry that closes the trade. 0 disables it.
	StopLossPercent float64
	// Percent favourable move from entry that closes the trade. 0 disables it.
	TakeProfitPercent float64
}

// DefaultPolicy mirrors the journal's backtesting form defaults.
func DefaultPolicy() Policy {
	return Policy{
		PositionSizePercent: 25,
		Commission:          5,
	}
}

func (p Policy) Validate() error {
	if !finite(p.PositionSizePercent) || p.PositionSizePercent <= 0 || p.PositionSizePercent > 100 {
		return fmt.Errorf("position size percent must be in (0, 100], got %v", p.PositionSizePercent)
	}
	if !finite(p.Commission) || p.Commission < 0 {
		return fmt.Errorf("commission must not be negative, got %v", p.Commission)
	}
	if !finite(p.StopLossPercent) || p.StopLossPercent < 0 || p.StopLossPercent >= 100 {
		return fmt.Errorf("stop loss percent must be in [0, 100), got %v", p.StopLossPercent)
	}
	if !finite(p.TakeProfitPercent) || p.TakeProfitPercent < 0 {
		return fmt.Errorf("take profit percent must not be negative, got %v", p.TakeProfitPercent)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
