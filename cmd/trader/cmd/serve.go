package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scot00671234/tradingjournal/api"
	"github.com/scot00671234/tradingjournal/backtest"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the backtest HTTP API",
		Long: `Serve exposes the price cache, the backtest runner and the journal over
HTTP until interrupted.

Routes:
  POST /api/backtest/run
  GET  /api/backtest/prices/:symbol?startDate=&endDate=
  GET  /api/backtest/symbols
  GET  /api/backtest/results?limit=N
  GET  /api/backtest/results/:id`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := backtest.NewService(st.prices, a.log)
			svc.Defaults = a.cfg.BacktestDefaults()

			srv := &api.Server{
				Backtests:    svc,
				Logger:       a.log,
				HistoryLimit: a.cfg.Journal.HistoryLimit,
				Version:      version,
			}
			if a.cfg.Journal.Enabled {
				srv.Journal = st.journal
			}

			a.log.Info("serving",
				zap.String("addr", a.cfg.Server.Addr),
				zap.String("db", a.cfg.Database.Path),
				zap.Bool("journal", a.cfg.Journal.Enabled))
			return srv.ListenAndServe(ctx, a.cfg.Server.Addr,
				a.cfg.Server.ReadTimeout.Duration, a.cfg.Server.WriteTimeout.Duration)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")
	return cmd
}
