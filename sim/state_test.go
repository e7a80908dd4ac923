package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/market/markettest"
	"github.com/scot00671234/tradingjournal/strategies"
)

func bullAt(close float64, last bool) Input {
	return Input{
		Index:  30,
		Bar:    markettest.Bars("TEST", close)[0],
		Signal: strategies.Signal{Bull: true, BullReason: "bull"},
		Last:   last,
	}
}

func TestStepOpens(t *testing.T) {
	t.Parallel()

	s := NewState(10000)
	next, out := Step(s, bullAt(100, false), opts())

	require.NotNil(t, out.Opened)
	assert.Nil(t, out.Closed)
	assert.Equal(t, 25.0, out.Opened.Size)
	assert.Equal(t, "bull", out.Opened.Reason)
	assert.InDelta(t, 10000-2500-5, next.Cash, tolerance)
	assert.InDelta(t, 9995, out.Point.Equity, tolerance)
	assert.InDelta(t, 10000, out.Point.Peak, tolerance)
	assert.InDelta(t, 0.05, out.Point.Drawdown, tolerance)

	// The input state is not modified.
	assert.True(t, s.Flat())
	assert.Equal(t, 10000.0, s.Cash)
}

func TestStepSkipsZeroShares(t *testing.T) {
	t.Parallel()

	next, out := Step(NewState(300), bullAt(500, false), opts())
	assert.Nil(t, out.Opened)
	assert.True(t, next.Flat())
	assert.Equal(t, 300.0, next.Cash)
}

func TestStepNoEntryOnLastBar(t *testing.T) {
	t.Parallel()

	_, out := Step(NewState(10000), bullAt(100, true), opts())
	assert.Nil(t, out.Opened)

	_, out = Step(NewState(10000), bullAt(100, true), opts(func(o *Options) { o.CloseAtEnd = false }))
	assert.NotNil(t, out.Opened)
}

func TestStepClosesWithoutReopening(t *testing.T) {
	t.Parallel()

	s, _ := Step(NewState(10000), bullAt(100, false), opts())
	require.False(t, s.Flat())

	in := bullAt(110, false)
	in.Index = 35
	in.Bar.Date = markettest.Start.AddDays(5)
	in.Signal.Bear = true
	in.Signal.BearReason = "bear"

	next, out := Step(s, in, opts())
	require.NotNil(t, out.Closed)
	assert.Nil(t, out.Opened)
	assert.True(t, next.Flat())

	tr := out.Closed
	assert.Equal(t, "trade-1", tr.ID)
	assert.Equal(t, "bull | bear", tr.Reason)
	assert.Equal(t, 5, tr.BarsHeld)
	assert.Equal(t, 5*24*60.0, tr.Duration)
	assert.InDelta(t, 25*10-10, tr.PnL, tolerance)
	assert.InDelta(t, 10000+tr.PnL, next.Cash, tolerance)
	assert.Equal(t, 1, next.Closed)
}

func TestStepEquityDepleted(t *testing.T) {
	t.Parallel()

	short := State{
		Cash:     4995,
		Position: &Position{Side: market.Short, EntryPrice: 50, Size: 100, Commission: 5, Reason: "bear"},
		Peak:     10000,
	}

	// Equity 995 at 140: still open.
	next, out := Step(short, Input{Index: 31, Bar: markettest.Bars("TEST", 140)[0]}, opts())
	assert.Nil(t, out.Closed)
	assert.False(t, next.Flat())

	// Equity -5 at 150: closed.
	next, out = Step(short, Input{Index: 31, Bar: markettest.Bars("TEST", 150)[0]}, opts())
	require.NotNil(t, out.Closed)
	assert.Equal(t, "bear | "+ReasonDepleted, out.Closed.Reason)
	assert.True(t, next.Flat())
	assert.InDelta(t, -10, next.Cash, tolerance)
}

func TestStepEndOfData(t *testing.T) {
	t.Parallel()

	s, _ := Step(NewState(10000), bullAt(100, false), opts())

	in := Input{Index: 40, Bar: markettest.Bars("TEST", 95)[0], Last: true}
	next, out := Step(s, in, opts())
	require.NotNil(t, out.Closed)
	assert.Equal(t, "bull | "+ReasonEndOfData, out.Closed.Reason)
	assert.True(t, next.Flat())

	next, out = Step(s, in, opts(func(o *Options) { o.CloseAtEnd = false }))
	assert.Nil(t, out.Closed)
	assert.False(t, next.Flat())
	assert.InDelta(t, s.Cash+25*95, out.Point.Equity, tolerance)
}

func TestPositionShortValue(t *testing.T) {
	t.Parallel()

	p := Position{Side: market.Short, EntryPrice: 100, Size: 10, Commission: 5}
	assert.Equal(t, 1000.0, p.Cost())
	assert.Equal(t, 1100.0, p.MarketValue(90))
	assert.Equal(t, 95.0, p.UnrealizedPL(90))
	assert.Equal(t, -105.0, p.UnrealizedPL(110))
}

func TestPnL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 90.0, PnL(market.Long, 100, 110, 10, 10))
	assert.Equal(t, -110.0, PnL(market.Short, 100, 110, 10, 10))
}

func TestTradeReturnPct(t *testing.T) {
	t.Parallel()

	tr := Trade{EntryPrice: 100, Size: 10, PnL: 50}
	assert.Equal(t, 5.0, tr.ReturnPct())
	assert.True(t, tr.Win())
	assert.Zero(t, Trade{}.ReturnPct())
}
