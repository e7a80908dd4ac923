package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/pricecache"
)

func newPricesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Manage the daily price cache",
		Long: `Manage the daily bars backtests run on.

Subcommands:
  import - Load bars from CSV or Parquet files
  export - Write cached bars to CSV or Parquet
  list   - Show cached symbols and their date ranges
  delete - Remove every bar of a symbol

Examples:
  trader prices import -s AAPL data/aapl.csv
  trader prices export -s AAPL -o aapl.parquet`,
	}
	cmd.AddCommand(
		newPricesImportCmd(a),
		newPricesExportCmd(a),
		newPricesListCmd(a),
		newPricesDeleteCmd(a),
	)
	return cmd
}

func newPricesImportCmd(a *app) *cobra.Command {
	var symbol string

	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import bars from CSV or Parquet files",
		Long: `Import upserts daily bars into the cache. CSV files hold
date,open,high,low,close[,volume] with an optional header; a symbol column in
the header overrides --symbol. Parquet files are the ones written by export.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			total := 0
			for _, path := range args {
				bars, err := readBarsFile(path, symbol)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				n, err := st.prices.Upsert(ctx, bars)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				a.log.Info("imported", zap.String("file", path), zap.Int("bars", n))
				total += n
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d bars from %d file(s)\n", total, len(args))
			return nil
		},
	}
	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "symbol for CSV files without a symbol column")
	return cmd
}

func newPricesExportCmd(a *app) *cobra.Command {
	var (
		symbol     string
		start, end string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export cached bars to CSV or Parquet",
		Long: `Export writes the cached bars of a symbol to --output. The format follows
the extension: .parquet for Parquet, anything else for CSV. "-" writes CSV to
stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			from, to, err := parseRange(start, end)
			if err != nil {
				return err
			}

			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			bars, err := st.prices.Fetch(ctx, symbol, from, to)
			if err != nil {
				return err
			}
			if len(bars) == 0 {
				return fmt.Errorf("no cached bars for %s", strings.ToUpper(symbol))
			}

			switch {
			case output == "-":
				return pricecache.WriteCSV(cmd.OutOrStdout(), bars)
			case strings.EqualFold(filepath.Ext(output), ".parquet"):
				if err := pricecache.WriteParquet(output, bars); err != nil {
					return err
				}
			default:
				if err := writeCSVFile(output, bars); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d bars to %s\n", len(bars), output)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&symbol, "symbol", "s", "", "symbol to export (required)")
	f.StringVar(&start, "start", "", "first date, YYYY-MM-DD")
	f.StringVar(&end, "end", "", "last date, YYYY-MM-DD")
	f.StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}

func newPricesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached symbols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			cov, err := st.prices.Coverage(ctx)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Symbol", "Bars", "First", "Last"})
			t.SetColumnConfigs([]table.ColumnConfig{{Name: "Bars", Align: text.AlignRight}})
			total := 0
			for _, c := range cov {
				t.AppendRow(table.Row{c.Symbol, c.Bars, c.First, c.Last})
				total += c.Bars
			}
			t.AppendFooter(table.Row{fmt.Sprintf("%d symbols", len(cov)), total, "", ""})
			t.Render()
			return nil
		},
	}
}

func newPricesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete SYMBOL",
		Short: "Delete every cached bar of a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.prices.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d bars of %s\n", n, strings.ToUpper(args[0]))
			return nil
		},
	}
}

func parseRange(start, end string) (from, to market.Date, err error) {
	if start != "" {
		if from, err = market.ParseDate(start); err != nil {
			return from, to, fmt.Errorf("--start: %w", err)
		}
	}
	if end != "" {
		if to, err = market.ParseDate(end); err != nil {
			return from, to, fmt.Errorf("--end: %w", err)
		}
	}
	return from, to, nil
}

func writeCSVFile(path string, bars []market.PriceBar) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return pricecache.WriteCSV(f, bars)
}
