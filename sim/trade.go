package sim

import "github.com/scot00671234/tradingjournal/market"

// Trade is a completed round trip.
type Trade struct {
	ID         string      `json:"id"`
	Symbol     string      `json:"symbol"`
	Side       market.Side `json:"direction"`
	EntryDate  market.Date `json:"entryDate"`
	ExitDate   market.Date `json:"exitDate"`
	EntryPrice float64     `json:"entryPrice"`
	ExitPrice  float64     `json:"exitPrice"`
	Size       float64     `json:"size"`
	Commission float64     `json:"commission"` // entry + exit
	PnL        float64     `json:"pnl"`
	Reason     string      `json:"reason"`
	Duration   float64     `json:"duration"` // minutes
	BarsHeld   int         `json:"barsHeld"`
}

// ReturnPct is the trade PnL relative to the notional at entry.
func (t Trade) ReturnPct() float64 {
	cost := t.Size * t.EntryPrice
	if cost == 0 {
		return 0
	}
	return t.PnL / cost * 100
}

// Win reports whether the trade made money after commission.
func (t Trade) Win() bool { return t.PnL > 0 }

// EquityPoint is the account value after a bar has been processed.
type EquityPoint struct {
	Date     market.Date `json:"date"`
	Equity   float64     `json:"equity"`
	Peak     float64     `json:"peak"`
	Drawdown float64     `json:"drawdown"` // percent below Peak
}
