package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/journal"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the portfolio summary and recent trades",
	Long: `Show the current portfolio from the saved state, followed by
the most recent closed trades from the SQLite journal.

Example:
  papertrader report -f papertrader.yaml --limit 20`,
	RunE: runReport,
}

var reportLimit int

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().IntVarP(&reportLimit, "limit", "n", 10, "number of recent trades to show")
}

func runReport(cmd *cobra.Command, args []string) error {
	e, cfg, closer, err := buildEngine()
	if err != nil {
		return err
	}
	defer closer()

	printSummary(e.Summary())

	if cfg.Journal.Type != "sqlite" {
		return nil
	}

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	trades, err := j.Trades(reportLimit)
	if err != nil {
		return fmt.Errorf("read trades: %w", err)
	}
	if len(trades) == 0 {
		return nil
	}

	fmt.Printf("\nRecent Trades\n")
	for _, t := range trades {
		fmt.Printf("  %s  %-12s %-11s entry %.4f  exit %.4f  pnl $%.2f (%.2f%%)  [%s]\n",
			t.ClosedAt.Format("2006-01-02 15:04"), t.Symbol, t.Reason,
			t.EntryPrice, t.ExitPrice, t.PnL, t.PnLPercent, t.Strategy)
	}
	return nil
}
