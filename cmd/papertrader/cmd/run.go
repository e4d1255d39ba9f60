package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/engine"
	"github.com/rustyeddy/papertrader/feed/coingecko"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop until interrupted",
	Long: `Start the simulator: fetch prices at the configured interval,
generate signals, execute paper trades and persist state after every
tick. Stop with Ctrl-C; the saved state resumes on the next run.

Example:
  papertrader run -f papertrader.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	e, cfg, closer, err := buildEngine()
	if err != nil {
		return err
	}
	defer closer()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Feed.Source == "coingecko" {
		refreshTokens(ctx, e, cfg.Feed.Currency, cfg.Trading.Symbols)
	}

	fmt.Printf("papertrader running: %v every %s (%s strategy)\n",
		cfg.Trading.Symbols, cfg.Trading.Interval, cfg.Trading.Strategy)

	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Println("\nStopped. Final summary:")
	printSummary(e.Summary())
	return nil
}

// refreshTokens primes the risk provider's liquidity table. A failed
// fetch is logged on stderr and trading continues without it.
func refreshTokens(ctx context.Context, e *engine.Engine, currency string, symbols []string) {
	cgCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := coingecko.New(currency)
	tokens, err := client.Tokens(cgCtx, symbols)
	if err != nil {
		fmt.Printf("warning: liquidity fetch failed, risk scores assume illiquid tokens: %v\n", err)
		return
	}
	e.SetTokens(tokens)
}
