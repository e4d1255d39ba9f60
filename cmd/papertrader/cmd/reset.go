package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	resetCash  float64
	resetSeeds []string
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the portfolio to a starting balance",
	Long: `Reinitialize the paper portfolio: positions are discarded, the
trade history is cleared and cash returns to the configured balance,
or to --cash when given. --seed places starting quantities on the
books. Tuned parameters and the adaptation log are kept.

Example:
  papertrader reset -f papertrader.yaml --cash 5000 --seed bitcoin=0.1`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().Float64Var(&resetCash, "cash", 0, "starting cash (default: configured balance)")
	resetCmd.Flags().StringArrayVar(&resetSeeds, "seed", nil, "starting quantity as symbol=qty (repeatable)")
	rootCmd.AddCommand(resetCmd)
}

func parseSeeds(seeds []string) (map[string]float64, error) {
	if len(seeds) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(seeds))
	for _, s := range seeds {
		sym, raw, ok := strings.Cut(s, "=")
		if !ok || sym == "" {
			return nil, fmt.Errorf("bad --seed %q: want symbol=qty", s)
		}
		qty, err := strconv.ParseFloat(raw, 64)
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("bad --seed quantity %q", raw)
		}
		out[sym] = qty
	}
	return out, nil
}

func runReset(cmd *cobra.Command, args []string) error {
	holdings, err := parseSeeds(resetSeeds)
	if err != nil {
		return err
	}

	e, cfg, closer, err := buildEngine()
	if err != nil {
		return err
	}
	defer closer()

	e.Reset(time.Now().UTC(), resetCash, holdings)

	cash := resetCash
	if cash <= 0 {
		cash = cfg.Account.Balance
	}
	fmt.Printf("✓ Portfolio reset to $%.2f %s\n", cash, cfg.Account.Currency)
	return nil
}
