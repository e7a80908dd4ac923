package risk

import "math"

// PositionValue is the cash committed to a new position.
func PositionValue(balance, pct float64) float64 {
	if balance <= 0 || pct <= 0 {
		return 0
	}
	return balance * pct / 100
}

// Shares returns the whole number of shares PositionValue buys at price.
// It is 0 whenever the trade cannot be opened.
func Shares(balance, pct, price float64) float64 {
	if price <= 0 || !finite(price) {
		return 0
	}
	shares := math.Floor(PositionValue(balance, pct) / price)
	if shares < 0 || !finite(shares) {
		return 0
	}
	return shares
}

// Size applies the policy to the current balance.
func (p Policy) Size(balance, price float64) float64 {
	return Shares(balance, p.PositionSizePercent, price)
}
