package strategies

import (
	"fmt"

	"github.com/scot00671234/tradingjournal/indicators"
	"github.com/scot00671234/tradingjournal/market"
)

// Signal is what a strategy sees on one bar. Bull opens a long (or closes a
// short); Bear closes a long (or opens a short).
type Signal struct {
	Bull       bool
	Bear       bool
	BullReason string
	BearReason string
}

// Evaluator answers Signal for bar indexes of the series it was prepared
// with. Signal(i) only reads data at or before i.
type Evaluator interface {
	Warmup() int
	Signal(i int) Signal
}

// Prepare computes the indicator series a strategy needs over bars.
func Prepare(s Strategy, bars []market.PriceBar) (Evaluator, error) {
	switch s := s.(type) {
	case MACross:
		return &maCrossEvaluator{
			warmup: s.Warmup(),
			fast:   indicators.SMA(bars, s.Fast),
			slow:   indicators.SMA(bars, s.Slow),
		}, nil
	case RSIReversion:
		return &rsiEvaluator{
			strat: s,
			rsi:   indicators.RSI(bars, s.Period),
		}, nil
	case Breakout:
		return &breakoutEvaluator{
			lookback: s.Lookback,
			bars:     bars,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidStrategy, s)
	}
}

type maCrossEvaluator struct {
	warmup int
	fast   indicators.Series
	slow   indicators.Series
}

func (e *maCrossEvaluator) Warmup() int { return e.warmup }

func (e *maCrossEvaluator) Signal(i int) Signal {
	if i < 1 || i >= len(e.fast) {
		return Signal{}
	}
	prevFast, prevSlow := e.fast[i-1], e.slow[i-1]
	fast, slow := e.fast[i], e.slow[i]

	return Signal{
		Bull:       prevFast <= prevSlow && fast > slow,
		Bear:       prevFast >= prevSlow && fast < slow,
		BullReason: "SMA Crossover Bull",
		BearReason: "SMA Crossover Bear",
	}
}

type rsiEvaluator struct {
	strat RSIReversion
	rsi   indicators.Series
}

func (e *rsiEvaluator) Warmup() int { return e.strat.Warmup() }

func (e *rsiEvaluator) Signal(i int) Signal {
	if i < 0 || i >= len(e.rsi) {
		return Signal{}
	}
	v := e.rsi[i]
	return Signal{
		Bull:       v < e.strat.Oversold,
		Bear:       v > e.strat.Overbought,
		BullReason: fmt.Sprintf("RSI Oversold (%.1f)", v),
		BearReason: fmt.Sprintf("RSI Overbought (%.1f)", v),
	}
}

type breakoutEvaluator struct {
	lookback int
	bars     []market.PriceBar
}

func (e *breakoutEvaluator) Warmup() int { return e.lookback }

func (e *breakoutEvaluator) Signal(i int) Signal {
	high, okHigh := indicators.HighestHigh(e.bars, i, e.lookback)
	low, okLow := indicators.LowestLow(e.bars, i, e.lookback)
	if !okHigh || !okLow || i >= len(e.bars) {
		return Signal{}
	}
	c := e.bars[i].Close
	return Signal{
		Bull:       c > high,
		Bear:       c < low,
		BullReason: fmt.Sprintf("Breakout Above %d-Bar High", e.lookback),
		BearReason: fmt.Sprintf("Breakdown Below %d-Bar Low", e.lookback),
	}
}
