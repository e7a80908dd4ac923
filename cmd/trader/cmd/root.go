package cmd

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scot00671234/tradingjournal/config"
	"github.com/scot00671234/tradingjournal/journal"
	"github.com/scot00671234/tradingjournal/pkg/logging"
	"github.com/scot00671234/tradingjournal/pkg/sqlitedb"
	"github.com/scot00671234/tradingjournal/pricecache"
)

// app carries the global flags and what PersistentPreRunE builds from them.
type app struct {
	cfgFile   string
	dbPath    string
	logLevel  string
	logFormat string

	cfg *config.Config
	log *zap.Logger
}

// NewRootCmd builds the trader command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "trader",
		Short: "Backtesting engine for the trading journal",
		Long: `Trader backtests daily-bar strategies against a local price cache and
keeps the results in a trading journal.

It provides tools for:
  - Importing and exporting daily price bars (CSV, Parquet)
  - Backtesting the ma_cross, rsi_reversal and breakout strategies
  - Reviewing past runs as tables, Org entries or CSV
  - Serving the backtest API over HTTP`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML or JSON)")
	f.StringVar(&a.dbPath, "db", "", "SQLite database path (overrides config)")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&a.logFormat, "log-format", "", "log encoding: json or console")

	root.AddCommand(
		newBacktestCmd(a),
		newServeCmd(a),
		newPricesCmd(a),
		newJournalCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log.With(zap.String("cmd", cmd.Name()))
	return nil
}

// stores are the SQLite-backed price cache and journal sharing one handle.
type stores struct {
	db      *sql.DB
	prices  *pricecache.Store
	journal *journal.SQLite
}

func (a *app) openStores(ctx context.Context) (*stores, error) {
	db, err := sqlitedb.Open(ctx, a.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	prices, err := pricecache.New(ctx, db, a.log)
	if err != nil {
		db.Close()
		return nil, err
	}
	j, err := journal.NewSQLite(ctx, db, a.log)
	if err != nil {
		db.Close()
		return nil, err
	}
	j.HistoryLimit = a.cfg.Journal.HistoryLimit
	a.log.Debug("database open", zap.String("path", a.cfg.Database.Path))
	return &stores{db: db, prices: prices, journal: j}, nil
}

func (s *stores) Close() error {
	return s.db.Close()
}
