package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/pkg/id"
	"github.com/scot00671234/tradingjournal/pkg/logging"
)

// PriceBarRepository is the read side of the price cache.
type PriceBarRepository interface {
	// Fetch returns the bars of symbol within [start, end] in ascending date
	// order. A zero bound is open. Unknown symbols yield an empty slice.
	Fetch(ctx context.Context, symbol string, start, end market.Date) ([]market.PriceBar, error)
	Symbols(ctx context.Context) ([]string, error)
}

// Service resolves configs against a price cache and runs them.
// It holds no per-run state and is safe for concurrent use.
type Service struct {
	Prices   PriceBarRepository
	Defaults Defaults
	Logger   *zap.Logger
	// Now stamps results; time.Now when nil.
	Now func() time.Time
}

// NewService returns a Service with StandardDefaults.
func NewService(prices PriceBarRepository, logger *zap.Logger) *Service {
	return &Service{
		Prices:   prices,
		Defaults: StandardDefaults(),
		Logger:   logging.OrNop(logger),
	}
}

// RunBacktest fetches the bars for cfg and backtests them. It fails with
// ErrInvalidStrategy for unknown strategies, ErrInvalidConfig for bad
// settings and ErrNotFound when the cache has no bars in range.
func (s *Service) RunBacktest(ctx context.Context, cfg Config) (*Result, error) {
	if s.Prices == nil {
		return nil, errors.New("backtest: price repository is required")
	}
	log := logging.OrNop(s.Logger)

	cfg = cfg.ApplyDefaults(s.defaults())
	if _, err := cfg.strategy(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	bars, err := s.Prices.Fetch(ctx, cfg.Symbol, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("backtest: fetch %s: %w", cfg.Symbol, err)
	}
	if len(bars) == 0 {
		log.Info("no price data",
			zap.String("symbol", cfg.Symbol),
			zap.Stringer("start", cfg.StartDate),
			zap.Stringer("end", cfg.EndDate))
		return nil, fmt.Errorf("backtest: %s %s..%s: %w", cfg.Symbol, cfg.StartDate, cfg.EndDate, ErrNotFound)
	}

	started := time.Now()
	res, err := Run(cfg, bars)
	if err != nil {
		return nil, err
	}
	res.ID = id.New()
	res.CreatedAt = s.now().UTC()

	log.Info("backtest complete",
		zap.String("id", res.ID),
		zap.String("symbol", cfg.Symbol),
		zap.String("strategy", res.StrategyName),
		zap.Int("bars", res.DataPoints),
		zap.Int("trades", res.Metrics.TotalTrades),
		zap.Float64("total_return", res.Metrics.TotalReturn),
		zap.Bool("insufficient", res.Insufficient),
		zap.Duration("took", time.Since(started)))
	return res, nil
}

// PriceBars returns cached bars for symbol in [start, end].
func (s *Service) PriceBars(ctx context.Context, symbol string, start, end market.Date) ([]market.PriceBar, error) {
	bars, err := s.Prices.Fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("backtest: fetch %s: %w", symbol, err)
	}
	return bars, nil
}

// Symbols lists the symbols present in the price cache.
func (s *Service) Symbols(ctx context.Context) ([]string, error) {
	return s.Prices.Symbols(ctx)
}

func (s *Service) defaults() Defaults {
	if s.Defaults == (Defaults{}) {
		return StandardDefaults()
	}
	return s.Defaults
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
