package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run a single tick and print the summary",
	Long: `Execute one pipeline pass (fetch, signal, trade, persist) and
exit. Useful for cron-driven operation or debugging a configuration.

Example:
  papertrader tick -f papertrader.yaml`,
	RunE: runTick,
}

func init() {
	rootCmd.AddCommand(tickCmd)
}

func runTick(cmd *cobra.Command, args []string) error {
	e, cfg, closer, err := buildEngine()
	if err != nil {
		return err
	}
	defer closer()

	ctx := context.Background()
	if cfg.Feed.Source == "coingecko" {
		refreshTokens(ctx, e, cfg.Feed.Currency, cfg.Trading.Symbols)
	}

	e.Tick(ctx, time.Now().UTC())
	printSummary(e.Summary())
	return nil
}
