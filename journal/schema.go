package journal

// Schema holds completed backtests. Trades and equity points hang off their
// run and go away with it.
const Schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	symbol TEXT NOT NULL,
	strategy TEXT NOT NULL,
	strategy_name TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	data_points INTEGER NOT NULL,
	insufficient INTEGER NOT NULL DEFAULT 0,
	initial_balance REAL NOT NULL,
	final_equity REAL NOT NULL,
	total_return REAL NOT NULL,
	win_rate REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	profit_factor REAL NOT NULL,
	total_trades INTEGER NOT NULL,
	config_json TEXT NOT NULL,
	metrics_json TEXT NOT NULL,
	open_position_json TEXT
);

CREATE INDEX IF NOT EXISTS idx_backtest_runs_created ON backtest_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_backtest_runs_symbol ON backtest_runs(symbol);

CREATE TABLE IF NOT EXISTS backtest_trades (
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	trade_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	entry_date TEXT NOT NULL,
	exit_date TEXT NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	size REAL NOT NULL,
	commission REAL NOT NULL,
	pnl REAL NOT NULL,
	reason TEXT NOT NULL,
	duration REAL NOT NULL,
	bars_held INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS backtest_equity (
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	date TEXT NOT NULL,
	equity REAL NOT NULL,
	peak REAL NOT NULL,
	drawdown REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`
