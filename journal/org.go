package journal

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scot00671234/tradingjournal/backtest"
	"github.com/scot00671234/tradingjournal/sim"
)

var backtestOrgFuncs = template.FuncMap{
	"money": func(x float64) string { return decimal.NewFromFloat(x).StringFixed(2) },
	"pct":   func(x float64) string { return decimal.NewFromFloat(x).StringFixed(2) },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"exit": backtest.ExitReason,
}

var backtestOrg = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// FormatBacktestOrg renders a result as an Org-mode journal entry.
func FormatBacktestOrg(res *backtest.Result) (string, error) {
	var buf bytes.Buffer
	if err := backtestOrg.Execute(&buf, res); err != nil {
		return "", fmt.Errorf("journal: org: %w", err)
	}
	return buf.String(), nil
}

// WriteBacktestOrg writes the Org entry of res to path.
func WriteBacktestOrg(path string, res *backtest.Result) error {
	s, err := FormatBacktestOrg(res)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0o644)
}

const BacktestOrgTemplate = `* BACKTEST: {{.StrategyName}} {{.Config.Symbol}} {{if .Config.Timeframe}}{{.Config.Timeframe}}{{else}}(timeframe?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .ID}}{{.ID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Config.Strategy}}
:SYMBOL:      {{.Config.Symbol}}
:DIRECTION:   {{.Config.Side}}
:START_DATE:  {{.Start}}
:END_DATE:    {{.End}}
:BARS:        {{.DataPoints}}
:START_BAL:   {{money .Config.InitialBalance}}
:END_BAL:     {{money .Metrics.FinalEquity}}
:NET_PL:      {{money .Metrics.NetProfit}}
:RETURN_PCT:  {{pct .Metrics.TotalReturn}}
:MAX_DD_PCT:  {{pct .Metrics.MaxDrawdown}}
:TRADES:      {{.Metrics.TotalTrades}}
:WINS:        {{.Metrics.WinningTrades}}
:LOSSES:      {{.Metrics.LosingTrades}}
:WIN_RATE:    {{pct .Metrics.WinRate}}
:PROFIT_FAC:  {{pct .Metrics.ProfitFactor}}
:CREATED:     [{{(orTime .CreatedAt).Format "2006-01-02 Mon 15:04"}}]
:END:

** Strategy Parameters
| Parameter        | Value |
|------------------+-------|
| Position Size %  | {{pct .Config.PositionSizePercent}} |
| Commission       | {{money .Config.Policy.Commission}} |
| Stop Loss %      | {{pct .Config.Policy.StopLossPercent}} |
| Take Profit %    | {{pct .Config.Policy.TakeProfitPercent}} |
| Close At End     | {{.Config.ClosesAtEnd}} |

** Performance Summary
- Net P/L:           *{{money .Metrics.NetProfit}}*
- Return:            *{{pct .Metrics.TotalReturn}}%*
- Annualized Return: *{{pct .Metrics.AnnualizedReturn}}%*
- Max Drawdown:      *{{pct .Metrics.MaxDrawdown}}%*
- Win Rate:          *{{pct .Metrics.WinRate}}%*
- Profit Factor:     *{{pct .Metrics.ProfitFactor}}*
- Sharpe Ratio:      *{{pct .Metrics.SharpeRatio}}*
- Calmar Ratio:      *{{pct .Metrics.CalmarRatio}}*

** Trades
{{- if .Trades }}
| # | Side | Entry | Entry Px | Exit | Exit Px | Size | PnL | Exit Reason |
|---+------+-------+----------+------+---------+------+-----+-------------|
{{- range $t := .Trades }}
| {{$t.ID}} | {{$t.Side}} | {{$t.EntryDate}} | {{money $t.EntryPrice}} | {{$t.ExitDate}} | {{money $t.ExitPrice}} | {{$t.Size}} | {{money $t.PnL}} | {{exit $t}} |
{{- end }}
{{- else }}
No trades.
{{- end }}
{{- with .OpenPosition }}

Open at end: {{.Side}} {{.Size}} @ {{money .EntryPrice}} since {{.EntryDate}} ({{.Reason}})
{{- end }}

** Review
- 
`

// FormatTradeOrg renders a trade as an Org-mode block with the facts in a
// PROPERTIES drawer and empty review headings.
func FormatTradeOrg(runID string, t sim.Trade) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s %s (%s)\n", t.Symbol, t.Side, t.ID)
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":RUN_ID: %s\n", runID)
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.ID)
	fmt.Fprintf(&b, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&b, ":DIRECTION: %s\n", t.Side)
	fmt.Fprintf(&b, ":SIZE: %.0f\n", t.Size)
	fmt.Fprintf(&b, ":ENTRY_DATE: %s\n", t.EntryDate)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %s\n", decimal.NewFromFloat(t.EntryPrice).StringFixed(2))
	fmt.Fprintf(&b, ":EXIT_DATE: %s\n", t.ExitDate)
	fmt.Fprintf(&b, ":EXIT_PRICE: %s\n", decimal.NewFromFloat(t.ExitPrice).StringFixed(2))
	fmt.Fprintf(&b, ":COMMISSION: %s\n", decimal.NewFromFloat(t.Commission).StringFixed(2))
	fmt.Fprintf(&b, ":REALIZED_PL: %s\n", decimal.NewFromFloat(t.PnL).StringFixed(2))
	fmt.Fprintf(&b, ":REASON: %s\n", t.Reason)
	b.WriteString(":END:\n\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Review\n- \n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(runID string, trades []sim.Trade) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(runID, t))
	}
	return b.String()
}
