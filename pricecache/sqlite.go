package pricecache

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/pkg/logging"
	"github.com/scot00671234/tradingjournal/pkg/sqlitedb"
)

// Store is the SQLite price cache.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// New wraps an open database and creates the price table if needed.
func New(ctx context.Context, db *sql.DB, log *zap.Logger) (*Store, error) {
	if err := sqlitedb.Exec(ctx, db, Schema); err != nil {
		return nil, err
	}
	return &Store{db: db, log: logging.OrNop(log)}, nil
}

// Upsert writes bars in one transaction. Existing rows for the same symbol
// and date are overwritten. It returns the number of bars written.
func (s *Store) Upsert(ctx context.Context, bars []market.PriceBar) (n int, err error) {
	for _, b := range bars {
		if err := b.Validate(); err != nil {
			return 0, fmt.Errorf("pricecache: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_data
		(symbol, date, open_price, high_price, low_price, close_price, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open_price = excluded.open_price,
			high_price = excluded.high_price,
			low_price = excluded.low_price,
			close_price = excluded.close_price,
			volume = excluded.volume`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err = stmt.ExecContext(ctx,
			normalize(b.Symbol), b.Date, b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return 0, fmt.Errorf("pricecache: upsert %s %s: %w", b.Symbol, b.Date, err)
		}
		n++
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}

	s.log.Debug("price bars upserted", zap.Int("count", n))
	return n, nil
}

// Fetch returns the bars of symbol in [start, end]; zero bounds are open.
func (s *Store) Fetch(ctx context.Context, symbol string, start, end market.Date) ([]market.PriceBar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open_price, high_price, low_price, close_price, volume
		FROM price_data
		WHERE symbol = ?
		  AND (? = '' OR date >= ?)
		  AND (? = '' OR date <= ?)
		ORDER BY date ASC`,
		normalize(symbol), start, start, end, end,
	)
	if err != nil {
		return nil, fmt.Errorf("pricecache: fetch %s: %w", symbol, err)
	}
	defer rows.Close()

	out := []market.PriceBar{}
	for rows.Next() {
		var b market.PriceBar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("pricecache: fetch %s: %w", symbol, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Symbols lists the distinct cached symbols, sorted.
func (s *Store) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM price_data ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("pricecache: symbols: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// Coverage describes what the cache holds for one symbol.
type Coverage struct {
	Symbol string      `json:"symbol"`
	Bars   int         `json:"bars"`
	First  market.Date `json:"first"`
	Last   market.Date `json:"last"`
}

// Coverage summarizes every cached symbol.
func (s *Store) Coverage(ctx context.Context) ([]Coverage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, COUNT(*), MIN(date), MAX(date)
		FROM price_data
		GROUP BY symbol
		ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("pricecache: coverage: %w", err)
	}
	defer rows.Close()

	var out []Coverage
	for rows.Next() {
		var c Coverage
		if err := rows.Scan(&c.Symbol, &c.Bars, &c.First, &c.Last); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes every bar of symbol and returns how many were removed.
func (s *Store) Delete(ctx context.Context, symbol string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM price_data WHERE symbol = ?`, normalize(symbol))
	if err != nil {
		return 0, fmt.Errorf("pricecache: delete %s: %w", symbol, err)
	}
	return res.RowsAffected()
}
