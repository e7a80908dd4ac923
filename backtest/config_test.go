package backtest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scot00671234/tradingjournal/market"
)

func TestConfigWithDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{Symbol: " aapl ", Strategy: "ma_cross"}.WithDefaults()

	assert.Equal(t, "AAPL", cfg.Symbol)
	assert.Equal(t, "1D", cfg.Timeframe)
	assert.Equal(t, 10000.0, cfg.InitialBalance)
	assert.Equal(t, 25.0, cfg.PositionSizePercent)
	require.NotNil(t, cfg.Commission)
	assert.Equal(t, 5.0, *cfg.Commission)
	assert.Equal(t, market.Long, cfg.Side())
	assert.True(t, cfg.ClosesAtEnd())
	assert.NoError(t, cfg.Validate())
}

func TestConfigKeepsExplicitZeroes(t *testing.T) {
	t.Parallel()

	zero := 0.0
	cfg := Config{
		Symbol:     "AAPL",
		Strategy:   "breakout",
		Commission: &zero,
		CloseAtEnd: boolPtr(false),
	}.WithDefaults()

	assert.Equal(t, 0.0, cfg.Policy().Commission)
	assert.False(t, cfg.ClosesAtEnd())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	neg := -1.0
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing symbol", func(c *Config) { c.Symbol = "" }},
		{"negative balance", func(c *Config) { c.InitialBalance = -5 }},
		{"inverted range", func(c *Config) {
			c.StartDate = market.NewDate(2024, 2, 1)
			c.EndDate = market.NewDate(2024, 1, 1)
		}},
		{"bad direction", func(c *Config) { c.Direction = "up" }},
		{"unknown timeframe", func(c *Config) { c.Timeframe = "tick" }},
		{"oversized position", func(c *Config) { c.PositionSizePercent = 150 }},
		{"negative commission", func(c *Config) { c.Commission = &neg }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := baseConfig("ma_cross").WithDefaults()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfigJSON(t *testing.T) {
	t.Parallel()

	body := `{
		"symbol": "MSFT",
		"strategy": "rsi_reversal",
		"timeframe": "1D",
		"startDate": "2023-01-01",
		"endDate": "2023-12-31",
		"initialBalance": 5000,
		"stopLoss": 5,
		"direction": "short",
		"params": {"rsiPeriod": 7}
	}`

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(body), &cfg))
	cfg = cfg.WithDefaults()

	assert.Equal(t, "MSFT", cfg.Symbol)
	assert.Equal(t, market.NewDate(2023, 1, 1), cfg.StartDate)
	assert.Equal(t, 5000.0, cfg.InitialBalance)
	assert.Equal(t, 5.0, cfg.Policy().StopLossPercent)
	assert.Equal(t, market.Short, cfg.Side())
	assert.Equal(t, 7, cfg.Params.RSIPeriod)
	assert.NoError(t, cfg.Validate())
}
