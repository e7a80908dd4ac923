package risk

import "github.com/scot00671234/tradingjournal/market"

// StopPrice is the close at which a position opened at entry is stopped out.
// ok is false when the stop is disabled.
func (p Policy) StopPrice(side market.Side, entry float64) (price float64, ok bool) {
	if p.StopLossPercent <= 0 {
		return 0, false
	}
	return entry * (1 - float64(side)*p.StopLossPercent/100), true
}

// TakePrice is the close at which a position opened at entry takes profit.
func (p Policy) TakePrice(side market.Side, entry float64) (price float64, ok bool) {
	if p.TakeProfitPercent <= 0 {
		return 0, false
	}
	return entry * (1 + float64(side)*p.TakeProfitPercent/100), true
}

// StopHit reports whether close breaches the stop of a position.
func (p Policy) StopHit(side market.Side, entry, close float64) bool {
	stop, ok := p.StopPrice(side, entry)
	if !ok {
		return false
	}
	if side == market.Short {
		return close >= stop
	}
	return close <= stop
}

// TakeHit reports whether close reaches the profit target of a position.
func (p Policy) TakeHit(side market.Side, entry, close float64) bool {
	take, ok := p.TakePrice(side, entry)
	if !ok {
		return false
	}
	if side == market.Short {
		return close <= take
	}
	return close >= take
}
