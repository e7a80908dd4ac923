// Package strategies defines the closed set of backtest strategies and the
// per-bar entry/exit signals they produce.
//
// A Strategy is one of MACross, RSIReversion or Breakout. The interface is
// sealed so a type switch over the three variants is exhaustive; Prepare is
// the single place that dispatches on it.
package strategies

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStrategy is returned for unknown strategy identifiers and for
// parameter sets a strategy cannot run with.
var ErrInvalidStrategy = errors.New("invalid strategy")

// Kind is the canonical identifier of a strategy.
type Kind string

const (
	KindMACross      Kind = "ma_cross"
	KindRSIReversion Kind = "rsi_reversal"
	KindBreakout     Kind = "breakout"
)

// Kinds lists the supported strategies in display order.
func Kinds() []Kind {
	return []Kind{KindMACross, KindRSIReversion, KindBreakout}
}

const (
	DefaultFastPeriod       = 10
	DefaultSlowPeriod       = 20
	DefaultRSIPeriod        = 14
	DefaultOversold         = 30.0
	DefaultOverbought       = 70.0
	DefaultBreakoutLookback = 20
)

// Strategy is implemented only by the variants in this package.
type Strategy interface {
	Kind() Kind
	Name() string
	// Warmup is the index of the first bar the strategy can act on.
	Warmup() int
	Validate() error

	sealed()
}

// Params carries optional overrides for strategy parameters. Zero values
// select the defaults.
type Params struct {
	FastPeriod int     `json:"fastPeriod,omitempty" yaml:"fast_period,omitempty"`
	SlowPeriod int     `json:"slowPeriod,omitempty" yaml:"slow_period,omitempty"`
	RSIPeriod  int     `json:"rsiPeriod,omitempty" yaml:"rsi_period,omitempty"`
	Oversold   float64 `json:"oversold,omitempty" yaml:"oversold,omitempty"`
	Overbought float64 `json:"overbought,omitempty" yaml:"overbought,omitempty"`
	Lookback   int     `json:"lookback,omitempty" yaml:"lookback,omitempty"`
}

// Parse resolves an identifier and parameters into a validated Strategy.
//
// Besides the canonical kinds it accepts the aliases used by older clients
// (sma_crossover, moving_average_crossover, rsi_mean_reversion).
func Parse(id string, p Params) (Strategy, error) {
	var s Strategy

	switch normalize(id) {
	case "ma_cross", "sma_cross", "sma_crossover", "ma_crossover", "moving_average_crossover":
		s = MACross{
			Fast: orInt(p.FastPeriod, DefaultFastPeriod),
			Slow: orInt(p.SlowPeriod, DefaultSlowPeriod),
		}
	case "rsi_reversal", "rsi_mean_reversion", "rsi_reversion", "rsi":
		s = RSIReversion{
			Period:     orInt(p.RSIPeriod, DefaultRSIPeriod),
			Oversold:   orFloat(p.Oversold, DefaultOversold),
			Overbought: orFloat(p.Overbought, DefaultOverbought),
		}
	case "breakout", "price_breakout":
		s = Breakout{Lookback: orInt(p.Lookback, DefaultBreakoutLookback)}
	default:
		return nil, fmt.Errorf("%w %q (supported: ma_cross, rsi_reversal, breakout)", ErrInvalidStrategy, id)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func normalize(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.NewReplacer("-", "_", " ", "_").Replace(id)
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// MACross enters when the fast SMA crosses above the slow SMA and exits on
// the opposite cross.
type MACross struct {
	Fast int
	Slow int
}

func (MACross) Kind() Kind     { return KindMACross }
func (s MACross) Name() string { return fmt.Sprintf("SMA Crossover (%d/%d)", s.Fast, s.Slow) }
func (s MACross) Warmup() int  { return s.Slow }
func (MACross) sealed()        {}

func (s MACross) Validate() error {
	if s.Fast <= 0 || s.Slow <= 0 {
		return fmt.Errorf("%w: ma_cross periods must be positive", ErrInvalidStrategy)
	}
	if s.Fast >= s.Slow {
		return fmt.Errorf("%w: ma_cross fast period %d must be below slow period %d", ErrInvalidStrategy, s.Fast, s.Slow)
	}
	return nil
}

// RSIReversion buys oversold and sells overbought readings.
type RSIReversion struct {
	Period     int
	Oversold   float64
	Overbought float64
}

func (RSIReversion) Kind() Kind { return KindRSIReversion }
func (s RSIReversion) Name() string {
	return fmt.Sprintf("RSI Mean Reversion (%d, %.0f/%.0f)", s.Period, s.Oversold, s.Overbought)
}
func (s RSIReversion) Warmup() int { return s.Period + 1 }
func (RSIReversion) sealed()       {}

func (s RSIReversion) Validate() error {
	if s.Period <= 0 {
		return fmt.Errorf("%w: rsi_reversal period must be positive", ErrInvalidStrategy)
	}
	if s.Oversold < 0 || s.Overbought > 100 || s.Oversold >= s.Overbought {
		return fmt.Errorf("%w: rsi_reversal thresholds need 0 <= oversold < overbought <= 100, got %.1f/%.1f",
			ErrInvalidStrategy, s.Oversold, s.Overbought)
	}
	return nil
}

// Breakout enters when the close clears the highest high of the lookback
// window and exits when it falls through the lowest low.
type Breakout struct {
	Lookback int
}

func (Breakout) Kind() Kind     { return KindBreakout }
func (s Breakout) Name() string { return fmt.Sprintf("Price Breakout (%d)", s.Lookback) }
func (s Breakout) Warmup() int  { return s.Lookback }
func (Breakout) sealed()        {}

func (s Breakout) Validate() error {
	if s.Lookback <= 0 {
		return fmt.Errorf("%w: breakout lookback must be positive", ErrInvalidStrategy)
	}
	return nil
}
