package backtest

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/scot00671234/tradingjournal/sim"
)

// Money formats an amount with two decimals, rounding half away from zero.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// PrintResult writes a human readable summary of r to w.
func PrintResult(w io.Writer, r *Result) {
	cfg := r.Config

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")
	if r.ID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", r.ID)
	}
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created:       %s\n", r.CreatedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Strategy:      %s\n", r.StrategyName)
	fmt.Fprintf(w, "Symbol:        %s\n", cfg.Symbol)
	fmt.Fprintf(w, "Timeframe:     %s\n", cfg.Timeframe)
	fmt.Fprintf(w, "Direction:     %s\n", cfg.Side())
	fmt.Fprintf(w, "Period:        %s .. %s (%d bars)\n", r.Start, r.End, r.DataPoints)
	if r.Insufficient {
		fmt.Fprintln(w, "Not enough bars for the strategy warmup; nothing was simulated.")
	}
	fmt.Fprintln(w)

	m := r.Metrics
	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetTitle("Performance")
	summary.AppendHeader(table.Row{"Metric", "Value"})
	summary.SetColumnConfigs([]table.ColumnConfig{{Name: "Value", Align: text.AlignRight}})
	summary.AppendRows([]table.Row{
		{"Initial Balance", Money(cfg.InitialBalance)},
		{"Final Equity", Money(m.FinalEquity)},
		{"Net Profit", Money(m.NetProfit)},
		{"Total Return", percent(m.TotalReturn)},
		{"Annualized Return", percent(m.AnnualizedReturn)},
		{"Max Drawdown", percent(m.MaxDrawdown)},
		{"Volatility", percent(m.Volatility)},
		{"Sharpe Ratio", decimal.NewFromFloat(m.SharpeRatio).StringFixed(2)},
		{"Calmar Ratio", decimal.NewFromFloat(m.CalmarRatio).StringFixed(2)},
	})
	summary.AppendSeparator()
	summary.AppendRows([]table.Row{
		{"Trades", m.TotalTrades},
		{"Wins / Losses", fmt.Sprintf("%d / %d", m.WinningTrades, m.LosingTrades)},
		{"Win Rate", percent(m.WinRate)},
		{"Profit Factor", decimal.NewFromFloat(m.ProfitFactor).StringFixed(2)},
		{"Avg Win", Money(m.AvgWin)},
		{"Avg Loss", Money(m.AvgLoss)},
		{"Largest Win", Money(m.LargestWin)},
		{"Largest Loss", Money(m.LargestLoss)},
		{"Avg Duration", minutes(m.AvgTradeDuration)},
	})
	summary.Render()

	if len(r.Trades) > 0 {
		fmt.Fprintln(w)
		printExitReasons(w, r.Trades)
	}

	if p := r.OpenPosition; p != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Open position: %s %.0f @ %s since %s (%s)\n",
			p.Side, p.Size, Money(p.EntryPrice), p.EntryDate, p.Reason)
		policy := cfg.Policy()
		if stop, ok := policy.StopPrice(p.Side, p.EntryPrice); ok {
			fmt.Fprintf(w, "  Stop:   %s\n", Money(stop))
		}
		if take, ok := policy.TakePrice(p.Side, p.EntryPrice); ok {
			fmt.Fprintf(w, "  Target: %s\n", Money(take))
		}
	}
	fmt.Fprintln(w)
}

// PrintTrades writes the trade list as a table. limit <= 0 prints all.
func PrintTrades(w io.Writer, trades []sim.Trade, limit int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Side", "Entry", "Entry Px", "Exit", "Exit Px", "Size", "PnL", "Return %", "Reason"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Entry Px", Align: text.AlignRight},
		{Name: "Exit Px", Align: text.AlignRight},
		{Name: "Size", Align: text.AlignRight},
		{Name: "PnL", Align: text.AlignRight},
		{Name: "Return %", Align: text.AlignRight},
	})

	for i, tr := range trades {
		if limit > 0 && i >= limit {
			break
		}
		t.AppendRow(table.Row{
			i + 1, tr.Side, tr.EntryDate, Money(tr.EntryPrice), tr.ExitDate, Money(tr.ExitPrice),
			tr.Size, Money(tr.PnL), percent(tr.ReturnPct()), tr.Reason,
		})
	}
	if limit > 0 && len(trades) > limit {
		t.AppendFooter(table.Row{"", "", "", "", "", "", "", "", "", fmt.Sprintf("%d more", len(trades)-limit)})
		t.Style().Format.Footer = text.FormatDefault
	}
	t.Render()
}

type exitSummary struct {
	reason   string
	count    int
	wins     int
	pnl      float64
	duration float64
}

// ExitReason is the exit part of a trade reason.
func ExitReason(t sim.Trade) string {
	if i := strings.LastIndex(t.Reason, " | "); i >= 0 {
		return t.Reason[i+3:]
	}
	return t.Reason
}

func printExitReasons(w io.Writer, trades []sim.Trade) {
	byReason := map[string]*exitSummary{}
	for _, tr := range trades {
		reason := ExitReason(tr)
		s, ok := byReason[reason]
		if !ok {
			s = &exitSummary{reason: reason}
			byReason[reason] = s
		}
		s.count++
		s.pnl += tr.PnL
		s.duration += tr.Duration
		if tr.Win() {
			s.wins++
		}
	}

	rows := make([]*exitSummary, 0, len(byReason))
	for _, s := range byReason {
		rows = append(rows, s)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].reason < rows[j].reason
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Exits")
	t.AppendHeader(table.Row{"Exit Reason", "Exits", "Wins", "Tot PnL", "Avg Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Exits", Align: text.AlignRight},
		{Name: "Wins", Align: text.AlignRight},
		{Name: "Tot PnL", Align: text.AlignRight},
		{Name: "Avg Duration", Align: text.AlignRight},
	})
	for _, s := range rows {
		t.AppendRow(table.Row{s.reason, s.count, s.wins, Money(s.pnl), minutes(s.duration / float64(s.count))})
	}
	t.Render()
}

func minutes(m float64) string {
	return (time.Duration(m) * time.Minute).String()
}
