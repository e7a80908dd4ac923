package pricecache

// Schema is the price cache table. One row per symbol and day.
const Schema = `
CREATE TABLE IF NOT EXISTS price_data (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	date TEXT NOT NULL,
	open_price REAL NOT NULL,
	high_price REAL NOT NULL,
	low_price REAL NOT NULL,
	close_price REAL NOT NULL,
	volume INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(symbol, date)
);

CREATE INDEX IF NOT EXISTS idx_price_data_symbol_date ON price_data(symbol, date);
`
