// Package backtest turns a strategy config and a price series into a
// Result: it dispatches to the simulator, analyzes the outcome and, through
// Service, resolves series from a price cache.
package backtest

import (
	"fmt"
	"time"

	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/sim"
)

// Result is everything one backtest produced.
type Result struct {
	ID           string            `json:"id,omitempty"`
	Config       Config            `json:"config"`
	StrategyName string            `json:"strategyName"`
	Trades       []sim.Trade       `json:"trades"`
	EquityCurve  []sim.EquityPoint `json:"equityCurve"`
	Metrics      Metrics           `json:"performance"`
	OpenPosition *sim.Position     `json:"openPosition,omitempty"`
	DataPoints   int               `json:"dataPoints"`
	Insufficient bool              `json:"insufficientData"`
	Start        market.Date       `json:"start"`
	End          market.Date       `json:"end"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Run backtests cfg over bars. Missing config fields take StandardDefaults
// and an empty symbol is taken from the bars. Too few bars for the
// strategy's warmup is not an error: the result has no trades, no equity
// points and zeroed metrics.
func Run(cfg Config, bars []market.PriceBar) (*Result, error) {
	cfg = cfg.WithDefaults()
	if cfg.Symbol == "" && len(bars) > 0 {
		cfg.Symbol = bars[0].Symbol
	}

	strat, err := cfg.strategy()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	series := make([]market.PriceBar, len(bars))
	copy(series, bars)
	market.SortBars(series)
	if err := market.ValidateSeries(series); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	out, err := sim.Run(series, strat, sim.Options{
		InitialBalance: cfg.InitialBalance,
		Side:           cfg.Side(),
		Policy:         cfg.Policy(),
		CloseAtEnd:     cfg.ClosesAtEnd(),
	})
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	res := &Result{
		Config:       cfg,
		StrategyName: strat.Name(),
		Trades:       out.Trades,
		EquityCurve:  out.Equity,
		OpenPosition: out.Open,
		DataPoints:   len(series),
		Insufficient: out.Insufficient,
	}
	if len(series) > 0 {
		res.Start = series[0].Date
		res.End = series[len(series)-1].Date
	}
	if out.Insufficient {
		res.Metrics = Metrics{}
		return res, nil
	}
	res.Metrics = Analyze(out.Trades, out.Equity, cfg.InitialBalance)
	return res, nil
}
