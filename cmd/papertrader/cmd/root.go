package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/engine"
	"github.com/rustyeddy/papertrader/feed/coingecko"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/store"
)

var rootCmd = &cobra.Command{
	Use:   "papertrader",
	Short: "A crypto paper-trading simulator with adaptive strategies",
	Long: `Papertrader is a cryptocurrency paper-trading simulator written in Go.

It provides:
  - Five signal strategies plus a consensus vote (momentum, mean
    reversion, grid, trend following, arbitrage)
  - Risk-managed position sizing with stop-loss and take-profit levels
  - A virtual portfolio ledger with full trade history
  - An adaptive tuner that adjusts parameters from realized results
  - Durable state and an SQLite trade journal`,
}

var (
	cfgPath string
	verbose bool
)

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "f", "", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves the effective configuration: .env, then the
// config file when given, otherwise defaults.
func loadConfig() (*config.Config, error) {
	config.LoadEnv()

	if cfgPath == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.LoadFromFile(cfgPath)
}

// buildEngine wires the configured feed, journal and state store into
// an engine. The returned closer releases the journal.
func buildEngine() (*engine.Engine, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := newLogger()

	var (
		jrnl   journal.Journal = journal.Nop{}
		closer                 = func() {}
	)
	if cfg.Journal.Type == "sqlite" {
		sj, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open journal: %w", err)
		}
		jrnl = sj
		closer = func() { _ = sj.Close() }
	}

	var feed market.Feed
	switch cfg.Feed.Source {
	case "coingecko":
		timeout, err := cfg.FeedTimeout()
		if err != nil {
			closer()
			return nil, nil, nil, err
		}
		feed = coingecko.New(cfg.Feed.Currency, coingecko.WithTimeout(timeout))
	case "static":
		feed = market.NewStaticFeed(cfg.Feed.Prices)
	}

	e, err := engine.New(cfg, feed, jrnl, store.NewFileStore(cfg.State.Path), log)
	if err != nil {
		closer()
		return nil, nil, nil, err
	}
	return e, cfg, closer, nil
}

func printSummary(s engine.Summary) {
	fmt.Printf("Portfolio\n")
	fmt.Printf("  Total Value:  $%.2f\n", s.Book.TotalValue)
	fmt.Printf("  Cash:         $%.2f\n", s.Book.Cash)
	fmt.Printf("  Realized PnL: $%.2f (today: $%.2f)\n", s.Book.RealizedPnL, s.Book.DailyPnL)
	fmt.Printf("  Trades:       %d (%d wins / %d losses, %.0f%% win rate)\n",
		s.Book.TradeCount, s.Book.WinCount, s.Book.LossCount, s.Book.WinRate*100)
	if s.Stopped {
		fmt.Printf("  EMERGENCY STOP ACTIVE: %s\n", s.StopReason)
	}

	if len(s.Book.OpenPositions) > 0 {
		fmt.Printf("\nOpen Positions\n")
		for _, p := range s.Book.OpenPositions {
			fmt.Printf("  %-12s qty %.4f @ %.4f  stop %.4f  take %.4f  (%s)\n",
				p.Symbol, p.Quantity, p.EntryPrice, p.StopLoss, p.TakeProfit, p.Strategy)
		}
	}

	if len(s.Regimes) > 0 {
		fmt.Printf("\nRegimes\n")
		for sym, r := range s.Regimes {
			fmt.Printf("  %-12s %s\n", sym, r)
		}
	}

	if len(s.Adaptations) > 0 {
		fmt.Printf("\nRecent Adaptations\n")
		for _, a := range s.Adaptations {
			fmt.Printf("  %s\n", a.Time.Format(time.RFC3339))
			for _, c := range a.Changes {
				fmt.Printf("    %s\n", c)
			}
		}
	}
}
