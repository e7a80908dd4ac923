package backtest

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/risk"
	"github.com/scot00671234/tradingjournal/strategies"
)

var (
	// ErrNotFound is returned when the price cache has no bars for the
	// requested symbol and range.
	ErrNotFound = errors.New("no price data found for the specified period")
	// ErrInvalidStrategy is returned for unknown strategy identifiers.
	ErrInvalidStrategy = strategies.ErrInvalidStrategy
	// ErrInvalidConfig is returned for configs that fail validation.
	ErrInvalidConfig = errors.New("invalid backtest config")
)

// Config is one backtest request. It is not modified by a run.
type Config struct {
	Symbol         string      `json:"symbol" yaml:"symbol"`
	Strategy       string      `json:"strategy" yaml:"strategy"`
	Timeframe      string      `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
	StartDate      market.Date `json:"startDate" yaml:"start_date"`
	EndDate        market.Date `json:"endDate" yaml:"end_date"`
	InitialBalance float64     `json:"initialBalance" yaml:"initial_balance"`

	PositionSizePercent float64  `json:"positionSize,omitempty" yaml:"position_size_percent,omitempty"`
	Commission          *float64 `json:"commission,omitempty" yaml:"commission,omitempty"`
	StopLossPercent     *float64 `json:"stopLoss,omitempty" yaml:"stop_loss_percent,omitempty"`
	TakeProfitPercent   *float64 `json:"takeProfit,omitempty" yaml:"take_profit_percent,omitempty"`
	Direction           string   `json:"direction,omitempty" yaml:"direction,omitempty"`
	CloseAtEnd          *bool    `json:"closeAtEnd,omitempty" yaml:"close_at_end,omitempty"`

	Params strategies.Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// Defaults fill the fields a request leaves unset.
type Defaults struct {
	Timeframe           string
	InitialBalance      float64
	PositionSizePercent float64
	Commission          float64
	StopLossPercent     float64
	TakeProfitPercent   float64
	Direction           string
	CloseAtEnd          bool
}

// StandardDefaults are the journal's backtesting form defaults.
func StandardDefaults() Defaults {
	p := risk.DefaultPolicy()
	return Defaults{
		Timeframe:           "1D",
		InitialBalance:      10000,
		PositionSizePercent: p.PositionSizePercent,
		Commission:          p.Commission,
		Direction:           market.Long.String(),
		CloseAtEnd:          true,
	}
}

// WithDefaults returns a copy of c completed with StandardDefaults.
func (c Config) WithDefaults() Config {
	return c.ApplyDefaults(StandardDefaults())
}

// ApplyDefaults returns a copy of c with every unset field taken from d.
func (c Config) ApplyDefaults(d Defaults) Config {
	c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
	c.Strategy = strings.TrimSpace(c.Strategy)
	if c.Timeframe == "" {
		c.Timeframe = d.Timeframe
	}
	if c.InitialBalance == 0 {
		c.InitialBalance = d.InitialBalance
	}
	if c.PositionSizePercent == 0 {
		c.PositionSizePercent = d.PositionSizePercent
	}
	if c.Commission == nil {
		c.Commission = float64Ptr(d.Commission)
	}
	if c.StopLossPercent == nil {
		c.StopLossPercent = float64Ptr(d.StopLossPercent)
	}
	if c.TakeProfitPercent == nil {
		c.TakeProfitPercent = float64Ptr(d.TakeProfitPercent)
	}
	if c.Direction == "" {
		c.Direction = d.Direction
	}
	if c.CloseAtEnd == nil {
		v := d.CloseAtEnd
		c.CloseAtEnd = &v
	}
	return c
}

// Validate checks a config after defaults have been applied.
func (c Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidConfig)
	}
	if math.IsNaN(c.InitialBalance) || math.IsInf(c.InitialBalance, 0) || c.InitialBalance <= 0 {
		return fmt.Errorf("%w: initial balance must be positive, got %v", ErrInvalidConfig, c.InitialBalance)
	}
	if c.Timeframe != "" {
		if _, err := market.ParseTimeframe(c.Timeframe); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidConfig, c.EndDate, c.StartDate)
	}
	if _, err := market.ParseSide(c.Direction); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Policy is the risk policy described by the config.
func (c Config) Policy() risk.Policy {
	return risk.Policy{
		PositionSizePercent: c.PositionSizePercent,
		Commission:          deref(c.Commission),
		StopLossPercent:     deref(c.StopLossPercent),
		TakeProfitPercent:   deref(c.TakeProfitPercent),
	}
}

// Side is the configured trade direction, Long when unset or invalid.
func (c Config) Side() market.Side {
	s, err := market.ParseSide(c.Direction)
	if err != nil {
		return market.Long
	}
	return s
}

// ClosesAtEnd reports whether positions open on the last bar are closed.
func (c Config) ClosesAtEnd() bool {
	return c.CloseAtEnd == nil || *c.CloseAtEnd
}

func (c Config) strategy() (strategies.Strategy, error) {
	s, err := strategies.Parse(c.Strategy, c.Params)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	return s, nil
}

func float64Ptr(v float64) *float64 { return &v }

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
