package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/scot00671234/tradingjournal/backtest"
	"github.com/scot00671234/tradingjournal/sim"
)

// WriteTradesCSV writes trades with a header row.
func WriteTradesCSV(w io.Writer, trades []sim.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"trade_id", "symbol", "direction", "entry_date", "exit_date", "entry_price", "exit_price",
		"size", "commission", "pnl", "return_pct", "duration_min", "bars_held", "reason",
	}); err != nil {
		return err
	}
	for _, t := range trades {
		if err := cw.Write([]string{
			t.ID,
			t.Symbol,
			t.Side.String(),
			t.EntryDate.String(),
			t.ExitDate.String(),
			f(t.EntryPrice),
			f(t.ExitPrice),
			f(t.Size),
			f(t.Commission),
			f(t.PnL),
			f(t.ReturnPct()),
			f(t.Duration),
			strconv.Itoa(t.BarsHeld),
			t.Reason,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEquityCSV writes an equity curve with a header row.
func WriteEquityCSV(w io.Writer, equity []sim.EquityPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "equity", "peak", "drawdown_pct"}); err != nil {
		return err
	}
	for _, p := range equity {
		if err := cw.Write([]string{p.Date.String(), f(p.Equity), f(p.Peak), f(p.Drawdown)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes <id>-trades.csv and <id>-equity.csv into dir and returns
// their paths.
func ExportCSV(dir string, res *backtest.Result) (tradesPath, equityPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	name := res.ID
	if name == "" {
		name = fmt.Sprintf("%s-%s", res.Config.Symbol, res.Config.Strategy)
	}

	tradesPath = filepath.Join(dir, name+"-trades.csv")
	equityPath = filepath.Join(dir, name+"-equity.csv")

	if err := writeFile(tradesPath, func(w io.Writer) error { return WriteTradesCSV(w, res.Trades) }); err != nil {
		return "", "", err
	}
	if err := writeFile(equityPath, func(w io.Writer) error { return WriteEquityCSV(w, res.EquityCurve) }); err != nil {
		return "", "", err
	}
	return tradesPath, equityPath, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(fh); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
