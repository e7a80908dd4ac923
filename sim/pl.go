package sim

import "github.com/scot00671234/tradingjournal/market"

// PnL is the realized result of a round trip: the directional price move
// times size, less all commission paid.
func PnL(side market.Side, entry, exit, size, commission float64) float64 {
	return float64(side)*(exit-entry)*size - commission
}
