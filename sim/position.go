package sim

import "github.com/scot00671234/tradingjournal/market"

// Position is the single open position of a simulation.
type Position struct {
	Side       market.Side `json:"direction"`
	EntryDate  market.Date `json:"entryDate"`
	EntryPrice float64     `json:"entryPrice"`
	EntryIndex int         `json:"entryIndex"`
	Size       float64     `json:"size"`
	Commission float64     `json:"commission"` // paid at entry
	Reason     string      `json:"reason"`
}

// Cost is the cash reserved when the position is opened: the notional at the
// entry price. The entry commission is charged on top of it.
func (p Position) Cost() float64 {
	return p.Size * p.EntryPrice
}

// MarketValue is what the position is worth at close. For a long that is
// size*close; a short returns its reserved notional plus the price move in
// its favour.
func (p Position) MarketValue(close float64) float64 {
	return p.Cost() + float64(p.Side)*p.Size*(close-p.EntryPrice)
}

// UnrealizedPL is the profit if the position were marked at close, net of the
// commission already paid to open it.
func (p Position) UnrealizedPL(close float64) float64 {
	return float64(p.Side)*p.Size*(close-p.EntryPrice) - p.Commission
}
