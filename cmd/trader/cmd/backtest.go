package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scot00671234/tradingjournal/backtest"
	"github.com/scot00671234/tradingjournal/journal"
	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/pricecache"
	"github.com/scot00671234/tradingjournal/strategies"
)

type backtestOptions struct {
	symbol   string
	strategy string
	start    string
	end      string
	file     string

	balance      float64
	positionSize float64
	commission   float64
	stopLoss     float64
	takeProfit   float64
	direction    string
	closeAtEnd   bool
	params       strategies.Params

	noRecord  bool
	trades    int
	orgPath   string
	exportDir string
	asJSON    bool
}

func newBacktestCmd(a *app) *cobra.Command {
	o := &backtestOptions{}

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a strategy over cached daily bars",
		Long: `Backtest runs one strategy over the daily bars of a symbol and prints the
performance report. Bars come from the price cache, or from a CSV or Parquet
file given with --file.

Supported strategies:
  - ma_cross: fast/slow SMA crossover
  - rsi_reversal: buy oversold, sell overbought
  - breakout: close above the N-bar high, exit below the N-bar low

Example:
  trader backtest -s AAPL --strategy rsi_reversal --start 2023-01-01 --end 2023-12-31 --stop-loss 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBacktest(cmd, a, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.symbol, "symbol", "s", "", "ticker symbol (required)")
	f.StringVar(&o.strategy, "strategy", string(strategies.KindMACross), "strategy: ma_cross, rsi_reversal, breakout")
	f.StringVar(&o.start, "start", "", "first date, YYYY-MM-DD (default: earliest cached)")
	f.StringVar(&o.end, "end", "", "last date, YYYY-MM-DD (default: latest cached)")
	f.StringVarP(&o.file, "file", "f", "", "read bars from a CSV or Parquet file instead of the cache")

	f.Float64VarP(&o.balance, "balance", "b", 0, "initial balance (default from config)")
	f.Float64Var(&o.positionSize, "position-size", 0, "percent of cash per trade (default from config)")
	f.Float64Var(&o.commission, "commission", 0, "flat commission per fill")
	f.Float64Var(&o.stopLoss, "stop-loss", 0, "stop loss percent, 0 disables")
	f.Float64Var(&o.takeProfit, "take-profit", 0, "take profit percent, 0 disables")
	f.StringVar(&o.direction, "direction", "", "long or short")
	f.BoolVar(&o.closeAtEnd, "close-at-end", true, "close an open position on the last bar")

	f.IntVar(&o.params.FastPeriod, "fast", 0, "ma_cross: fast SMA period")
	f.IntVar(&o.params.SlowPeriod, "slow", 0, "ma_cross: slow SMA period")
	f.IntVar(&o.params.RSIPeriod, "rsi-period", 0, "rsi_reversal: RSI period")
	f.Float64Var(&o.params.Oversold, "oversold", 0, "rsi_reversal: oversold threshold")
	f.Float64Var(&o.params.Overbought, "overbought", 0, "rsi_reversal: overbought threshold")
	f.IntVar(&o.params.Lookback, "lookback", 0, "breakout: channel lookback")

	f.BoolVar(&o.noRecord, "no-record", false, "do not store the run in the journal")
	f.IntVar(&o.trades, "trades", 20, "trades to list, 0 for none, -1 for all")
	f.StringVar(&o.orgPath, "org", "", "also write the run as an Org entry to this file")
	f.StringVar(&o.exportDir, "export", "", "also write trades and equity CSVs into this directory")
	f.BoolVar(&o.asJSON, "json", false, "print the result as JSON")

	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}

func (o *backtestOptions) config(cmd *cobra.Command) (backtest.Config, error) {
	cfg := backtest.Config{
		Symbol:              o.symbol,
		Strategy:            o.strategy,
		InitialBalance:      o.balance,
		PositionSizePercent: o.positionSize,
		Direction:           o.direction,
		Params:              o.params,
	}
	var err error
	if o.start != "" {
		if cfg.StartDate, err = market.ParseDate(o.start); err != nil {
			return cfg, fmt.Errorf("--start: %w", err)
		}
	}
	if o.end != "" {
		if cfg.EndDate, err = market.ParseDate(o.end); err != nil {
			return cfg, fmt.Errorf("--end: %w", err)
		}
	}

	// Unset flags fall through to the config file defaults.
	flags := cmd.Flags()
	if flags.Changed("commission") {
		cfg.Commission = &o.commission
	}
	if flags.Changed("stop-loss") {
		cfg.StopLossPercent = &o.stopLoss
	}
	if flags.Changed("take-profit") {
		cfg.TakeProfitPercent = &o.takeProfit
	}
	if flags.Changed("close-at-end") {
		cfg.CloseAtEnd = &o.closeAtEnd
	}
	return cfg, nil
}

func runBacktest(cmd *cobra.Command, a *app, o *backtestOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := o.config(cmd)
	if err != nil {
		return err
	}

	st, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	var prices backtest.PriceBarRepository = st.prices
	if o.file != "" {
		bars, err := readBarsFile(o.file, o.symbol)
		if err != nil {
			return err
		}
		prices = pricecache.NewMemory(bars...)
	}

	svc := backtest.NewService(prices, a.log)
	svc.Defaults = a.cfg.BacktestDefaults()

	res, err := svc.RunBacktest(ctx, cfg)
	if err != nil {
		return err
	}

	if a.cfg.Journal.Enabled && !o.noRecord {
		if err := st.journal.RecordBacktest(ctx, res); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		backtest.PrintResult(out, res)
		if o.trades != 0 && len(res.Trades) > 0 {
			backtest.PrintTrades(out, res.Trades, o.trades)
		}
	}

	if o.orgPath != "" {
		if err := journal.WriteBacktestOrg(o.orgPath, res); err != nil {
			return err
		}
		a.log.Info("wrote org entry", zap.String("path", o.orgPath))
	}
	if o.exportDir != "" {
		trades, equity, err := journal.ExportCSV(o.exportDir, res)
		if err != nil {
			return err
		}
		a.log.Info("exported csv", zap.String("trades", trades), zap.String("equity", equity))
	}
	return nil
}

// readBarsFile loads bars from CSV or Parquet, chosen by extension.
func readBarsFile(path, symbol string) ([]market.PriceBar, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return pricecache.ReadParquet(path)
	default:
		return pricecache.ReadCSVFile(path, symbol)
	}
}
