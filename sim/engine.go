// Package sim runs a single-position strategy simulation over daily bars.
//
// The simulation is a fold: Run threads a State through Step once per bar
// from the strategy's warmup index to the end of the series.
package sim

import (
	"fmt"

	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/risk"
	"github.com/scot00671234/tradingjournal/strategies"
)

// Options configures one simulation run.
type Options struct {
	InitialBalance float64
	Side           market.Side
	Policy         risk.Policy
	// CloseAtEnd closes a position still open on the last bar at its close.
	// When false the position is left open and reported in Outcome.Open.
	CloseAtEnd bool
}

// Outcome is everything a run produced.
type Outcome struct {
	Trades []Trade
	Equity []EquityPoint
	// Open is the position left open at the end of the series, if any.
	Open  *Position
	Final State
	// Insufficient is set when the series is too short for the strategy's
	// warmup. Trades and Equity are empty in that case.
	Insufficient bool
}

// Run simulates strat over bars.
func Run(bars []market.PriceBar, strat strategies.Strategy, opts Options) (Outcome, error) {
	if strat == nil {
		return Outcome{}, fmt.Errorf("sim: %w: nil strategy", strategies.ErrInvalidStrategy)
	}
	if opts.Side == 0 {
		opts.Side = market.Long
	}

	ev, err := strategies.Prepare(strat, bars)
	if err != nil {
		return Outcome{}, fmt.Errorf("sim: %w", err)
	}

	out := Outcome{
		Trades: []Trade{},
		Equity: []EquityPoint{},
		Final:  NewState(opts.InitialBalance),
	}

	warmup := ev.Warmup()
	if len(bars) <= warmup {
		out.Insufficient = true
		return out, nil
	}

	state := out.Final
	for i := warmup; i < len(bars); i++ {
		var step Output
		state, step = Step(state, Input{
			Index:  i,
			Bar:    bars[i],
			Signal: ev.Signal(i),
			Last:   i == len(bars)-1,
		}, opts)

		if step.Closed != nil {
			out.Trades = append(out.Trades, *step.Closed)
		}
		out.Equity = append(out.Equity, step.Point)
	}

	out.Final = state
	out.Open = state.Position
	return out, nil
}
