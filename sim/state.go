package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/strategies"
)

const (
	ReasonStopLoss   = "Stop Loss"
	ReasonTakeProfit = "Take Profit"
	ReasonEndOfData  = "End of Data"
	ReasonDepleted   = "Equity Depleted"
)

// State is carried from one bar to the next. Step never writes through
// Position; a new State gets a new *Position.
type State struct {
	Cash     float64
	Position *Position
	Peak     float64
	Closed   int // trades closed so far
}

// NewState is the flat state an account starts in.
func NewState(initialBalance float64) State {
	return State{Cash: initialBalance, Peak: initialBalance}
}

func (s State) Flat() bool { return s.Position == nil }

// Equity marks the account to close.
func (s State) Equity(close float64) float64 {
	if s.Position == nil {
		return s.Cash
	}
	return s.Cash + s.Position.MarketValue(close)
}

// Input is everything Step may look at for bar Index.
type Input struct {
	Index  int
	Bar    market.PriceBar
	Signal strategies.Signal
	// Last marks the final bar of the series.
	Last bool
}

// Output is what a step emitted.
type Output struct {
	Opened *Position
	Closed *Trade
	Point  EquityPoint
}

// Step advances the simulation by one bar. Exits are checked when a position
// is open, entries when flat; a bar that closes a position never opens one.
func Step(s State, in Input, opts Options) (State, Output) {
	next := s
	var out Output
	price := in.Bar.Close

	if s.Position != nil {
		pos := *s.Position
		if reasons := exitReasons(s.Cash, pos, in, opts); len(reasons) > 0 {
			trade := closeTrade(pos, in, opts, reasons, s.Closed+1)
			next.Cash = s.Cash + pos.MarketValue(price) - opts.Policy.Commission
			next.Position = nil
			next.Closed = s.Closed + 1
			out.Closed = &trade
		}
	} else if entry, reason := entrySignal(in.Signal, opts.Side); entry && !(in.Last && opts.CloseAtEnd) {
		if pos, ok := openPosition(s.Cash, in, opts, reason); ok {
			next.Cash = s.Cash - pos.Cost() - pos.Commission
			next.Position = &pos
			out.Opened = &pos
		}
	}

	equity := next.Equity(price)
	next.Peak = math.Max(s.Peak, equity)
	drawdown := 0.0
	if next.Peak > 0 {
		drawdown = (next.Peak - equity) / next.Peak * 100
	}
	out.Point = EquityPoint{
		Date:     in.Bar.Date,
		Equity:   equity,
		Peak:     next.Peak,
		Drawdown: drawdown,
	}
	return next, out
}

func entrySignal(sig strategies.Signal, side market.Side) (bool, string) {
	if side == market.Short {
		return sig.Bear, sig.BearReason
	}
	return sig.Bull, sig.BullReason
}

func exitReasons(cash float64, pos Position, in Input, opts Options) []string {
	var reasons []string

	switch {
	case pos.Side == market.Long && in.Signal.Bear:
		reasons = append(reasons, in.Signal.BearReason)
	case pos.Side == market.Short && in.Signal.Bull:
		reasons = append(reasons, in.Signal.BullReason)
	}
	if opts.Policy.StopHit(pos.Side, pos.EntryPrice, in.Bar.Close) {
		reasons = append(reasons, ReasonStopLoss)
	}
	if opts.Policy.TakeHit(pos.Side, pos.EntryPrice, in.Bar.Close) {
		reasons = append(reasons, ReasonTakeProfit)
	}
	// A short has no loss floor; stop marking it once the account is wiped out.
	if cash+pos.MarketValue(in.Bar.Close) <= 0 {
		reasons = append(reasons, ReasonDepleted)
	}
	if len(reasons) == 0 && in.Last && opts.CloseAtEnd {
		reasons = append(reasons, ReasonEndOfData)
	}
	return reasons
}

func openPosition(cash float64, in Input, opts Options, reason string) (Position, bool) {
	price := in.Bar.Close
	commission := opts.Policy.Commission

	size := opts.Policy.Size(cash, price)
	// Never spend more cash than the account holds.
	if size*price+commission > cash {
		size = math.Floor((cash - commission) / price)
	}
	if size <= 0 {
		return Position{}, false
	}

	return Position{
		Side:       opts.Side,
		EntryDate:  in.Bar.Date,
		EntryPrice: price,
		EntryIndex: in.Index,
		Size:       size,
		Commission: commission,
		Reason:     reason,
	}, true
}

func closeTrade(pos Position, in Input, opts Options, reasons []string, seq int) Trade {
	exit := in.Bar.Close
	commission := pos.Commission + opts.Policy.Commission

	return Trade{
		ID:         fmt.Sprintf("trade-%d", seq),
		Symbol:     in.Bar.Symbol,
		Side:       pos.Side,
		EntryDate:  pos.EntryDate,
		ExitDate:   in.Bar.Date,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exit,
		Size:       pos.Size,
		Commission: commission,
		PnL:        PnL(pos.Side, pos.EntryPrice, exit, pos.Size, commission),
		Reason:     pos.Reason + " | " + strings.Join(reasons, " + "),
		Duration:   in.Bar.Date.Sub(pos.EntryDate.Time).Minutes(),
		BarsHeld:   in.Index - pos.EntryIndex,
	}
}
