// Package journal persists completed backtests and renders them for the
// trading journal: SQLite storage, Org-mode entries and CSV exports.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/scot00671234/tradingjournal/backtest"
	"github.com/scot00671234/tradingjournal/market"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("backtest run not found")

// DefaultHistoryLimit is how many runs the journal keeps by default.
const DefaultHistoryLimit = 5

// RunSummary is the row shown in run listings.
type RunSummary struct {
	ID           string      `json:"id"`
	CreatedAt    time.Time   `json:"createdAt"`
	Symbol       string      `json:"symbol"`
	Strategy     string      `json:"strategy"`
	StrategyName string      `json:"strategyName"`
	Timeframe    string      `json:"timeframe"`
	Start        market.Date `json:"start"`
	End          market.Date `json:"end"`
	DataPoints   int         `json:"dataPoints"`
	TotalTrades  int         `json:"totalTrades"`
	TotalReturn  float64     `json:"totalReturn"`
	WinRate      float64     `json:"winRate"`
	MaxDrawdown  float64     `json:"maxDrawdown"`
	ProfitFactor float64     `json:"profitFactor"`
	FinalEquity  float64     `json:"finalEquity"`
}

// Journal stores backtest results.
type Journal interface {
	RecordBacktest(ctx context.Context, res *backtest.Result) error
	GetBacktestRun(ctx context.Context, runID string) (*backtest.Result, error)
	ListRecent(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}

// Summarize builds the listing row of a result.
func Summarize(res *backtest.Result) RunSummary {
	return RunSummary{
		ID:           res.ID,
		CreatedAt:    res.CreatedAt,
		Symbol:       res.Config.Symbol,
		Strategy:     res.Config.Strategy,
		StrategyName: res.StrategyName,
		Timeframe:    res.Config.Timeframe,
		Start:        res.Start,
		End:          res.End,
		DataPoints:   res.DataPoints,
		TotalTrades:  res.Metrics.TotalTrades,
		TotalReturn:  res.Metrics.TotalReturn,
		WinRate:      res.Metrics.WinRate,
		MaxDrawdown:  res.Metrics.MaxDrawdown,
		ProfitFactor: res.Metrics.ProfitFactor,
		FinalEquity:  res.Metrics.FinalEquity,
	}
}
