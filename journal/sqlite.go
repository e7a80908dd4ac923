package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scot00671234/tradingjournal/backtest"
	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/pkg/logging"
	"github.com/scot00671234/tradingjournal/pkg/sqlitedb"
	"github.com/scot00671234/tradingjournal/sim"
)

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite is a Journal backed by a SQLite database.
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
	// HistoryLimit caps the number of runs kept; older runs are pruned after
	// each insert. 0 keeps everything.
	HistoryLimit int
}

var _ Journal = (*SQLite)(nil)

// NewSQLite wraps an open database and creates the journal tables.
func NewSQLite(ctx context.Context, db *sql.DB, log *zap.Logger) (*SQLite, error) {
	if err := sqlitedb.Exec(ctx, db, Schema); err != nil {
		return nil, err
	}
	return &SQLite{db: db, log: logging.OrNop(log)}, nil
}

// RecordBacktest stores a result with its trades and equity curve. The
// result must carry an ID.
func (j *SQLite) RecordBacktest(ctx context.Context, res *backtest.Result) (err error) {
	if res == nil || res.ID == "" {
		return errors.New("journal: result has no id")
	}

	cfg, err := json.Marshal(res.Config)
	if err != nil {
		return err
	}
	metrics, err := json.Marshal(res.Metrics)
	if err != nil {
		return err
	}
	var open sql.NullString
	if res.OpenPosition != nil {
		b, err := json.Marshal(res.OpenPosition)
		if err != nil {
			return err
		}
		open = sql.NullString{String: string(b), Valid: true}
	}
	created := res.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	m := res.Metrics
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO backtest_runs
		(run_id, created_at, symbol, strategy, strategy_name, timeframe, start_date, end_date,
		 data_points, insufficient, initial_balance, final_equity, total_return, win_rate,
		 max_drawdown, profit_factor, total_trades, config_json, metrics_json, open_position_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, created.UTC().Format(timeLayout), res.Config.Symbol, res.Config.Strategy,
		res.StrategyName, res.Config.Timeframe, res.Start, res.End,
		res.DataPoints, res.Insufficient, res.Config.InitialBalance, m.FinalEquity,
		m.TotalReturn, m.WinRate, m.MaxDrawdown, m.ProfitFactor, m.TotalTrades,
		string(cfg), string(metrics), open,
	); err != nil {
		return fmt.Errorf("journal: insert run %s: %w", res.ID, err)
	}

	if err = insertTrades(ctx, tx, res.ID, res.Trades); err != nil {
		return err
	}
	if err = insertEquity(ctx, tx, res.ID, res.EquityCurve); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	j.log.Info("backtest recorded",
		zap.String("id", res.ID),
		zap.Int("trades", len(res.Trades)),
		zap.Int("equity_points", len(res.EquityCurve)))

	if j.HistoryLimit > 0 {
		if _, err := j.Prune(ctx, j.HistoryLimit); err != nil {
			j.log.Warn("journal prune failed", zap.Error(err))
		}
	}
	return nil
}

func insertTrades(ctx context.Context, tx *sql.Tx, runID string, trades []sim.Trade) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO backtest_trades
		(run_id, seq, trade_id, symbol, direction, entry_date, exit_date, entry_price, exit_price,
		 size, commission, pnl, reason, duration, bars_held)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range trades {
		if _, err := stmt.ExecContext(ctx,
			runID, i, t.ID, t.Symbol, t.Side.String(), t.EntryDate, t.ExitDate,
			t.EntryPrice, t.ExitPrice, t.Size, t.Commission, t.PnL, t.Reason, t.Duration, t.BarsHeld,
		); err != nil {
			return fmt.Errorf("journal: insert trade %s: %w", t.ID, err)
		}
	}
	return nil
}

func insertEquity(ctx context.Context, tx *sql.Tx, runID string, equity []sim.EquityPoint) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO backtest_equity (run_id, seq, date, equity, peak, drawdown)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range equity {
		if _, err := stmt.ExecContext(ctx, runID, i, p.Date, p.Equity, p.Peak, p.Drawdown); err != nil {
			return fmt.Errorf("journal: insert equity point %d: %w", i, err)
		}
	}
	return nil
}

// GetBacktestRun loads a stored result with its trades and equity curve.
func (j *SQLite) GetBacktestRun(ctx context.Context, runID string) (*backtest.Result, error) {
	var (
		res          backtest.Result
		created      string
		cfg, metrics string
		open         sql.NullString
	)
	err := j.db.QueryRowContext(ctx, `
		SELECT run_id, created_at, strategy_name, start_date, end_date, data_points, insufficient,
		       config_json, metrics_json, open_position_json
		FROM backtest_runs
		WHERE run_id = ?`, runID,
	).Scan(&res.ID, &created, &res.StrategyName, &res.Start, &res.End, &res.DataPoints, &res.Insufficient,
		&cfg, &metrics, &open)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("journal: %q: %w", runID, ErrNotFound)
		}
		return nil, err
	}

	if res.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("journal: run %s created_at: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(cfg), &res.Config); err != nil {
		return nil, fmt.Errorf("journal: run %s config: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(metrics), &res.Metrics); err != nil {
		return nil, fmt.Errorf("journal: run %s metrics: %w", runID, err)
	}
	if open.Valid {
		res.OpenPosition = new(sim.Position)
		if err := json.Unmarshal([]byte(open.String), res.OpenPosition); err != nil {
			return nil, fmt.Errorf("journal: run %s open position: %w", runID, err)
		}
	}

	if res.Trades, err = j.ListTradesByRunID(ctx, runID); err != nil {
		return nil, err
	}
	if res.EquityCurve, err = j.ListEquityByRunID(ctx, runID); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListTradesByRunID returns the trades of a run in order.
func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]sim.Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT trade_id, symbol, direction, entry_date, exit_date, entry_price, exit_price,
		       size, commission, pnl, reason, duration, bars_held
		FROM backtest_trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []sim.Trade{}
	for rows.Next() {
		var (
			t    sim.Trade
			side string
		)
		if err := rows.Scan(
			&t.ID,
			&t.Symbol,
			&side,
			&t.EntryDate,
			&t.ExitDate,
			&t.EntryPrice,
			&t.ExitPrice,
			&t.Size,
			&t.Commission,
			&t.PnL,
			&t.Reason,
			&t.Duration,
			&t.BarsHeld,
		); err != nil {
			return nil, err
		}
		if t.Side, err = market.ParseSide(side); err != nil {
			return nil, fmt.Errorf("journal: trade %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListEquityByRunID returns the equity curve of a run in order.
func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]sim.EquityPoint, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT date, equity, peak, drawdown
		FROM backtest_equity
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []sim.EquityPoint{}
	for rows.Next() {
		var p sim.EquityPoint
		if err := rows.Scan(&p.Date, &p.Equity, &p.Peak, &p.Drawdown); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListRecent returns up to limit runs, newest first. limit <= 0 lists all.
func (j *SQLite) ListRecent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, created_at, symbol, strategy, strategy_name, timeframe, start_date, end_date,
		       data_points, total_trades, total_return, win_rate, max_drawdown, profit_factor, final_equity
		FROM backtest_runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RunSummary{}
	for rows.Next() {
		var (
			s       RunSummary
			created string
		)
		if err := rows.Scan(
			&s.ID, &created, &s.Symbol, &s.Strategy, &s.StrategyName, &s.Timeframe, &s.Start, &s.End,
			&s.DataPoints, &s.TotalTrades, &s.TotalReturn, &s.WinRate, &s.MaxDrawdown, &s.ProfitFactor, &s.FinalEquity,
		); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("journal: run %s created_at: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a run with its trades and equity.
func (j *SQLite) Delete(ctx context.Context, runID string) error {
	res, err := j.db.ExecContext(ctx, `DELETE FROM backtest_runs WHERE run_id = ?`, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("journal: %q: %w", runID, ErrNotFound)
	}
	return nil
}

// Prune keeps the newest keep runs and deletes the rest.
func (j *SQLite) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := j.db.ExecContext(ctx, `
		DELETE FROM backtest_runs
		WHERE run_id NOT IN (
			SELECT run_id FROM backtest_runs
			ORDER BY created_at DESC, run_id DESC
			LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if n > 0 {
		j.log.Debug("journal pruned", zap.Int64("runs", n), zap.Int("kept", keep))
	}
	return n, err
}

// ExportBacktestOrg loads a run and returns its Org entry.
func (j *SQLite) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	res, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	return FormatBacktestOrg(res)
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
