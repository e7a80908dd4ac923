package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scot00671234/tradingjournal/market/markettest"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		p    Params
		want Strategy
	}{
		{"ma_cross", Params{}, MACross{Fast: 10, Slow: 20}},
		{"SMA-Crossover", Params{SlowPeriod: 30}, MACross{Fast: 10, Slow: 30}},
		{"moving_average_crossover", Params{FastPeriod: 5}, MACross{Fast: 5, Slow: 20}},
		{"rsi_reversal", Params{}, RSIReversion{Period: 14, Oversold: 30, Overbought: 70}},
		{"rsi_mean_reversion", Params{Oversold: 20, Overbought: 80}, RSIReversion{Period: 14, Oversold: 20, Overbought: 80}},
		{"breakout", Params{}, Breakout{Lookback: 20}},
		{" Breakout ", Params{Lookback: 55}, Breakout{Lookback: 55}},
	}

	for _, tt := range tests {
		got, err := Parse(tt.id, tt.p)
		require.NoError(t, err, tt.id)
		assert.Equal(t, tt.want, got, tt.id)
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id string
		p  Params
	}{
		{"", Params{}},
		{"macd", Params{}},
		{"ma_cross", Params{FastPeriod: 30, SlowPeriod: 20}},
		{"ma_cross", Params{FastPeriod: -1}},
		{"rsi_reversal", Params{Oversold: 80, Overbought: 70}},
		{"rsi_reversal", Params{RSIPeriod: -14}},
		{"breakout", Params{Lookback: -5}},
	}

	for _, tt := range tests {
		_, err := Parse(tt.id, tt.p)
		assert.ErrorIs(t, err, ErrInvalidStrategy, "%s %+v", tt.id, tt.p)
	}
}

func TestKindsParse(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds() {
		s, err := Parse(string(k), Params{})
		require.NoError(t, err)
		assert.Equal(t, k, s.Kind())
		assert.NotEmpty(t, s.Name())
	}
}

func TestWarmup(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 20, MACross{Fast: 10, Slow: 20}.Warmup())
	assert.Equal(t, 15, RSIReversion{Period: 14}.Warmup())
	assert.Equal(t, 20, Breakout{Lookback: 20}.Warmup())
}

func TestMACrossSignals(t *testing.T) {
	t.Parallel()

	closes := markettest.Concat(markettest.Flat(25, 100), markettest.Ramp(10, 100, 120), markettest.Flat(15, 80))
	ev, err := Prepare(MACross{Fast: 10, Slow: 20}, markettest.Bars("TEST", closes...))
	require.NoError(t, err)

	var bulls, bears []int
	for i := ev.Warmup(); i < len(closes); i++ {
		sig := ev.Signal(i)
		if sig.Bull {
			bulls = append(bulls, i)
		}
		if sig.Bear {
			bears = append(bears, i)
			assert.Equal(t, "SMA Crossover Bear", sig.BearReason)
		}
	}
	assert.Equal(t, []int{25}, bulls)
	require.Len(t, bears, 1)
	assert.Greater(t, bears[0], 35)
}

func TestRSISignals(t *testing.T) {
	t.Parallel()

	closes := markettest.Triangle(60, 110, 90, 10)
	ev, err := Prepare(RSIReversion{Period: 14, Oversold: 30, Overbought: 70}, markettest.Bars("TEST", closes...))
	require.NoError(t, err)

	sig := ev.Signal(30)
	assert.True(t, sig.Bull)
	assert.False(t, sig.Bear)
	assert.Equal(t, "RSI Oversold (28.6)", sig.BullReason)

	sig = ev.Signal(40)
	assert.True(t, sig.Bear)
	assert.Equal(t, "RSI Overbought (71.4)", sig.BearReason)

	assert.Equal(t, Signal{}, ev.Signal(-1))
	assert.Equal(t, Signal{}, ev.Signal(len(closes)))
}

func TestBreakoutSignals(t *testing.T) {
	t.Parallel()

	closes := markettest.Concat(markettest.Flat(25, 100), []float64{110, 105, 80})
	ev, err := Prepare(Breakout{Lookback: 20}, markettest.Bars("TEST", closes...))
	require.NoError(t, err)

	assert.False(t, ev.Signal(24).Bull)
	assert.True(t, ev.Signal(25).Bull)
	assert.Equal(t, "Breakout Above 20-Bar High", ev.Signal(25).BullReason)
	assert.False(t, ev.Signal(26).Bull)
	assert.True(t, ev.Signal(27).Bear)
	assert.Equal(t, Signal{}, ev.Signal(10))
}
