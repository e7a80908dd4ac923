package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scot00671234/tradingjournal/market/markettest"
	"github.com/scot00671234/tradingjournal/pricecache"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// workspace writes a CSV of 100 trending AAPL bars and returns the global
// flags pointing at a fresh database.
func workspace(t *testing.T) (dir, csvPath string, global []string) {
	t.Helper()
	dir = t.TempDir()
	csvPath = filepath.Join(dir, "aapl.csv")

	closes := markettest.Concat(markettest.Flat(25, 100), markettest.Ramp(75, 100, 200))
	f, err := os.Create(csvPath)
	require.NoError(t, err)
	require.NoError(t, pricecache.WriteCSV(f, markettest.Bars("AAPL", closes...)))
	require.NoError(t, f.Close())

	return dir, csvPath, []string{"--db", filepath.Join(dir, "trader.db"), "--log-level", "error"}
}

func TestPricesImportListExport(t *testing.T) {
	dir, csvPath, g := workspace(t)

	out, err := run(t, append(g, "prices", "import", "-s", "AAPL", csvPath)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 100 bars from 1 file(s)")

	out, err = run(t, append(g, "prices", "list")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "2024-04-09")

	pq := filepath.Join(dir, "out", "aapl.parquet")
	out, err = run(t, append(g, "prices", "export", "-s", "aapl", "-o", pq)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Exported 100 bars")

	bars, err := pricecache.ReadParquet(pq)
	require.NoError(t, err)
	assert.Len(t, bars, 100)

	out, err = run(t, append(g, "prices", "export", "-s", "AAPL", "--start", "2024-01-01", "--end", "2024-01-03")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "symbol,date,open,high,low,close,volume")
	assert.Contains(t, out, "AAPL,2024-01-03,")

	out, err = run(t, append(g, "prices", "delete", "aapl")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Deleted 100 bars of AAPL")

	out, err = run(t, append(g, "prices", "import", pq)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 100 bars")

	_, err = run(t, append(g, "prices", "export", "-s", "TSLA")...)
	assert.Error(t, err)
}

func TestBacktestAndJournal(t *testing.T) {
	dir, csvPath, g := workspace(t)

	_, err := run(t, append(g, "prices", "import", "-s", "AAPL", csvPath)...)
	require.NoError(t, err)

	out, err := run(t, append(g, "backtest", "-s", "AAPL", "--strategy", "ma_cross", "--trades", "-1")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "SMA Crossover (10/20)")
	assert.Contains(t, out, "End of Data")
	assert.Contains(t, out, "Performance")

	out, err = run(t, append(g, "backtest", "-s", "AAPL", "--strategy", "breakout", "--json", "--no-record")...)
	require.NoError(t, err, out)
	var unrecorded struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &unrecorded))

	out, err = run(t, append(g, "backtest", "-s", "AAPL", "--strategy", "ma_cross", "--json", "--close-at-end=false")...)
	require.NoError(t, err, out)
	var res struct {
		ID           string          `json:"id"`
		Trades       []interface{}   `json:"trades"`
		OpenPosition json.RawMessage `json:"openPosition"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Empty(t, res.Trades)
	assert.NotEmpty(t, res.OpenPosition)

	out, err = run(t, append(g, "journal", "list")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, res.ID)
	assert.NotContains(t, out, unrecorded.ID)

	out, err = run(t, append(g, "journal", "show", res.ID)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Open position: long")
	assert.Contains(t, out, "Run "+res.ID+" recorded ")

	out, err = run(t, append(g, "journal", "org", res.ID)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, res.ID)

	out, err = run(t, append(g, "journal", "csv", res.ID, "-d", filepath.Join(dir, "csv"))...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Equity:")

	_, err = run(t, append(g, "journal", "show", "01HZZZZZZZZZZZZZZZZZZZZZZZ")...)
	assert.Error(t, err)

	_, err = run(t, append(g, "journal", "show", "not-a-run")...)
	assert.ErrorContains(t, err, "invalid run id")

	out, err = run(t, append(g, "journal", "prune", "--keep", "1")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Pruned 1 runs")
}

func TestBacktestFromFile(t *testing.T) {
	_, csvPath, g := workspace(t)

	out, err := run(t, append(g, "backtest", "-s", "AAPL", "-f", csvPath, "--strategy", "rsi", "--no-record")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "RSI Mean Reversion (14, 30/70)")
}

func TestBacktestErrors(t *testing.T) {
	_, csvPath, g := workspace(t)

	_, err := run(t, append(g, "backtest", "--strategy", "ma_cross")...)
	assert.Error(t, err, "symbol is required")

	_, err = run(t, append(g, "backtest", "-s", "AAPL", "-f", csvPath, "--strategy", "martingale")...)
	assert.Error(t, err)

	_, err = run(t, append(g, "backtest", "-s", "AAPL", "--start", "01/01/2024")...)
	assert.Error(t, err)

	_, err = run(t, append(g, "backtest", "-s", "AAPL")...)
	assert.Error(t, err, "empty cache")
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trader.yaml")

	out, err := run(t, "config", "init", "-o", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Created default configuration")

	out, err = run(t, "config", "validate", "-f", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Configuration valid")

	out, err = run(t, "--config", path, "--db", filepath.Join(dir, "x.db"), "config", "show")
	require.NoError(t, err, out)
	assert.Contains(t, out, "history_limit: 5")
	assert.Contains(t, out, filepath.Join(dir, "x.db"))

	require.NoError(t, os.WriteFile(path, []byte("backtest:\n  initial_balance: 0\n"), 0o644))
	_, err = run(t, "config", "validate", "-f", path)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "trader version "+version)
}
