// Package sqlitedb opens the SQLite database shared by the price cache and
// the backtest journal.
package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Memory opens a private in-memory database.
const Memory = ":memory:"

// Open opens (creating if needed) the database at path. Memory yields a
// database that lives as long as the returned handle.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	var dsn string
	if path == Memory || path == "" {
		dsn = "file::memory:?_foreign_keys=on&_busy_timeout=5000"
	} else {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: %w", err)
			}
		}
		dsn = "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if path == Memory || path == "" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return db, nil
}

// Exec runs a multi-statement schema script.
func Exec(ctx context.Context, db *sql.DB, script string) error {
	if _, err := db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}
