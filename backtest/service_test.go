package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/market/markettest"
	"github.com/scot00671234/tradingjournal/pkg/id"
	"github.com/scot00671234/tradingjournal/pricecache"
)

type failingRepo struct{ err error }

func (r failingRepo) Fetch(context.Context, string, market.Date, market.Date) ([]market.PriceBar, error) {
	return nil, r.err
}

func (r failingRepo) Symbols(context.Context) ([]string, error) { return nil, r.err }

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(pricecache.NewMemory(trendBars()...), zaptest.NewLogger(t))
	svc.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestServiceRunBacktest(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	res, err := svc.RunBacktest(context.Background(), Config{Symbol: "aapl", Strategy: "ma_cross"})
	require.NoError(t, err)

	assert.True(t, id.Valid(res.ID))
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), res.CreatedAt)
	assert.Equal(t, "AAPL", res.Config.Symbol)
	assert.Equal(t, 100, res.DataPoints)
	assert.Len(t, res.Trades, 1)
}

func TestServiceRunBacktestRange(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	bars := trendBars()
	res, err := svc.RunBacktest(context.Background(), Config{
		Symbol:    "AAPL",
		Strategy:  "breakout",
		StartDate: bars[10].Date,
		EndDate:   bars[59].Date,
	})
	require.NoError(t, err)

	assert.Equal(t, 50, res.DataPoints)
	assert.Equal(t, bars[10].Date, res.Start)
	assert.Equal(t, bars[59].Date, res.End)
}

func TestServiceErrors(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.RunBacktest(ctx, Config{Symbol: "TSLA", Strategy: "ma_cross"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.RunBacktest(ctx, Config{
		Symbol:    "AAPL",
		Strategy:  "ma_cross",
		StartDate: market.NewDate(2030, 1, 1),
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.RunBacktest(ctx, Config{Symbol: "AAPL", Strategy: "coin_flip"})
	assert.ErrorIs(t, err, ErrInvalidStrategy)

	_, err = svc.RunBacktest(ctx, Config{Symbol: "", Strategy: "ma_cross"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	boom := errors.New("disk on fire")
	broken := NewService(failingRepo{err: boom}, nil)
	_, err = broken.RunBacktest(ctx, Config{Symbol: "AAPL", Strategy: "ma_cross"})
	assert.ErrorIs(t, err, boom)
	_, err = broken.PriceBars(ctx, "AAPL", market.Date{}, market.Date{})
	assert.ErrorIs(t, err, boom)
}

func TestServiceIsIdempotent(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	cfg := Config{Symbol: "AAPL", Strategy: "rsi_reversal"}

	a, err := svc.RunBacktest(context.Background(), cfg)
	require.NoError(t, err)
	b, err := svc.RunBacktest(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Trades, b.Trades)
	assert.Equal(t, a.EquityCurve, b.EquityCurve)
	assert.Equal(t, a.Metrics, b.Metrics)
}

func TestServicePricesAndSymbols(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	syms, err := svc.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, syms)

	bars, err := svc.PriceBars(ctx, "AAPL", markettest.Start, markettest.Start.AddDays(4))
	require.NoError(t, err)
	assert.Len(t, bars, 5)
}
