package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/scot00671234/tradingjournal/sim"
)

const (
	// TradingDaysPerYear annualizes daily figures.
	TradingDaysPerYear = 252
	// ProfitFactorCap stands in for an infinite profit factor.
	ProfitFactorCap = 999
)

// Metrics summarizes a run.
type Metrics struct {
	TotalReturn      float64 `json:"totalReturn"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	MaxDrawdown      float64 `json:"maxDrawdown"`
	WinRate          float64 `json:"winRate"`
	ProfitFactor     float64 `json:"profitFactor"`

	TotalTrades   int `json:"totalTrades"`
	WinningTrades int `json:"winningTrades"`
	LosingTrades  int `json:"losingTrades"`

	GrossProfit float64 `json:"grossProfit"`
	GrossLoss   float64 `json:"grossLoss"`
	NetProfit   float64 `json:"netProfit"`
	AvgWin      float64 `json:"avgWin"`
	AvgLoss     float64 `json:"avgLoss"`
	LargestWin  float64 `json:"largestWin"`
	LargestLoss float64 `json:"largestLoss"`

	AvgTradeDuration float64 `json:"avgTradeDuration"` // minutes
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpeRatio"`
	CalmarRatio      float64 `json:"calmarRatio"`
	FinalEquity      float64 `json:"finalEquity"`
}

// Analyze derives Metrics from a trade list and equity curve. Every ratio
// falls back to 0 (or ProfitFactorCap) instead of NaN or Inf.
func Analyze(trades []sim.Trade, equity []sim.EquityPoint, initialBalance float64) Metrics {
	m := Metrics{
		TotalTrades: len(trades),
		FinalEquity: initialBalance,
	}

	var duration float64
	for _, t := range trades {
		duration += t.Duration
		switch {
		case t.PnL > 0:
			m.WinningTrades++
			m.GrossProfit += t.PnL
			m.LargestWin = math.Max(m.LargestWin, t.PnL)
		case t.PnL < 0:
			m.LosingTrades++
			m.GrossLoss += -t.PnL
			m.LargestLoss = math.Min(m.LargestLoss, t.PnL)
		}
	}
	m.NetProfit = m.GrossProfit - m.GrossLoss

	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
		m.AvgTradeDuration = duration / float64(m.TotalTrades)
	}
	if m.WinningTrades > 0 {
		m.AvgWin = m.GrossProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = m.GrossLoss / float64(m.LosingTrades)
	}

	switch {
	case m.GrossLoss > 0:
		m.ProfitFactor = m.GrossProfit / m.GrossLoss
	case m.GrossProfit > 0:
		m.ProfitFactor = ProfitFactorCap
	}

	if len(equity) == 0 {
		return m
	}

	m.FinalEquity = equity[len(equity)-1].Equity
	for _, p := range equity {
		m.MaxDrawdown = math.Max(m.MaxDrawdown, p.Drawdown)
	}

	if initialBalance > 0 {
		m.TotalReturn = (m.FinalEquity - initialBalance) / initialBalance * 100
		m.AnnualizedReturn = annualize(m.FinalEquity/initialBalance, len(equity))
	}
	if m.MaxDrawdown > 0 {
		m.CalmarRatio = m.AnnualizedReturn / m.MaxDrawdown
	}

	m.Volatility, m.SharpeRatio = riskRatios(equity)
	return m
}

func annualize(growth float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	if growth <= 0 {
		return -100
	}
	r := (math.Pow(growth, TradingDaysPerYear/float64(days)) - 1) * 100
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// riskRatios returns annualized volatility (percent) and Sharpe ratio of
// bar-to-bar equity returns.
func riskRatios(equity []sim.EquityPoint) (volatility, sharpe float64) {
	returns := make([]float64, 0, len(equity))
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev <= 0 {
			continue
		}
		returns = append(returns, equity[i].Equity/prev-1)
	}
	if len(returns) < 2 {
		return 0, 0
	}

	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0, 0
	}
	annual := math.Sqrt(TradingDaysPerYear)
	return std * annual * 100, mean / std * annual
}
