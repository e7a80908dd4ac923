package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/scot00671234/tradingjournal/backtest"
	"github.com/scot00671234/tradingjournal/journal"
	"github.com/scot00671234/tradingjournal/pkg/id"
)

func newJournalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Review recorded backtest runs",
		Long: `Review the backtests stored in the journal.

Subcommands:
  list   - Recent runs, newest first
  show   - Full report of one run
  org    - One run as an Org-mode entry
  trades - The trades of one run as Org headings
  csv    - Export trades and equity of one run
  delete - Remove a run
  prune  - Keep only the newest runs

Examples:
  trader journal list
  trader journal org 01HV6Y3C6M1W8J4J3T6Q6Y7Z9K >> backtests.org`,
	}
	cmd.AddCommand(
		newJournalListCmd(a),
		newJournalShowCmd(a),
		newJournalOrgCmd(a),
		newJournalTradesCmd(a),
		newJournalCSVCmd(a),
		newJournalDeleteCmd(a),
		newJournalPruneCmd(a),
	)
	return cmd
}

func newJournalListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Journal.HistoryLimit
			}
			runs, err := st.journal.ListRecent(ctx, limit)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Run ID", "Created", "Symbol", "Strategy", "Period", "Trades", "Return %", "Max DD %", "Final Equity"})
			t.SetColumnConfigs([]table.ColumnConfig{
				{Name: "Trades", Align: text.AlignRight},
				{Name: "Return %", Align: text.AlignRight},
				{Name: "Max DD %", Align: text.AlignRight},
				{Name: "Final Equity", Align: text.AlignRight},
			})
			for _, r := range runs {
				t.AppendRow(table.Row{
					r.ID,
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
					r.Symbol,
					r.StrategyName,
					fmt.Sprintf("%s .. %s", r.Start, r.End),
					r.TotalTrades,
					fmt.Sprintf("%.2f", r.TotalReturn),
					fmt.Sprintf("%.2f", r.MaxDrawdown),
					backtest.Money(r.FinalEquity),
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", journal.DefaultHistoryLimit, "runs to list, 0 for all")
	return cmd
}

func newJournalShowCmd(a *app) *cobra.Command {
	var trades int

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print the report of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRun(cmd, a, args[0], func(res *backtest.Result) error {
				out := cmd.OutOrStdout()
				if at, err := id.Time(res.ID); err == nil {
					fmt.Fprintf(out, "Run %s recorded %s\n\n", res.ID, at.Local().Format("2006-01-02 15:04:05"))
				}
				backtest.PrintResult(out, res)
				if trades != 0 && len(res.Trades) > 0 {
					backtest.PrintTrades(out, res.Trades, trades)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&trades, "trades", -1, "trades to list, 0 for none, -1 for all")
	return cmd
}

func newJournalOrgCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "org RUN_ID",
		Short: "Print a run as an Org-mode entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				return withRun(cmd, a, args[0], func(res *backtest.Result) error {
					if err := journal.WriteBacktestOrg(output, res); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", output)
					return nil
				})
			}

			ctx := cmd.Context()
			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			s, err := st.journal.ExportBacktestOrg(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newJournalTradesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trades RUN_ID",
		Short: "Print the trades of a run as Org headings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if _, err := st.journal.GetBacktestRun(ctx, args[0]); err != nil {
				return err
			}
			trades, err := st.journal.ListTradesByRunID(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(args[0], trades))
			return nil
		},
	}
}

func newJournalCSVCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "csv RUN_ID",
		Short: "Export the trades and equity curve of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRun(cmd, a, args[0], func(res *backtest.Result) error {
				trades, equity, err := journal.ExportCSV(dir, res)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Trades: %s\n✓ Equity: %s\n", trades, equity)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "output directory")
	return cmd
}

func newJournalDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete RUN_ID",
		Short: "Delete a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.journal.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
			return nil
		},
	}
}

func newJournalPruneCmd(a *app) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if !cmd.Flags().Changed("keep") && a.cfg.Journal.HistoryLimit > 0 {
				keep = a.cfg.Journal.HistoryLimit
			}
			n, err := st.journal.Prune(ctx, keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d runs\n", n)
			return nil
		},
	}
	cmd.Flags().IntVarP(&keep, "keep", "k", journal.DefaultHistoryLimit, "runs to keep")
	return cmd
}

func withRun(cmd *cobra.Command, a *app, runID string, fn func(*backtest.Result) error) error {
	if !id.Valid(runID) {
		return fmt.Errorf("invalid run id %q", runID)
	}
	ctx := cmd.Context()
	st, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := st.journal.GetBacktestRun(ctx, runID)
	if err != nil {
		return err
	}
	return fn(res)
}
