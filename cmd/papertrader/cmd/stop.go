package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Activate or clear the emergency stop",
	Long: `Latch the emergency stop: all new entries are refused until the
latch is cleared. Open positions keep their stop and take-profit exits.
The latch is saved with the state and survives restarts.

Examples:
  papertrader stop --reason "exchange outage"
  papertrader stop --clear`,
	RunE: runStop,
}

var (
	stopReason string
	stopClear  bool
)

func init() {
	rootCmd.AddCommand(stopCmd)
	stopCmd.Flags().StringVarP(&stopReason, "reason", "r", "manual stop", "why trading is halted")
	stopCmd.Flags().BoolVar(&stopClear, "clear", false, "clear the latch instead of setting it")
}

func runStop(cmd *cobra.Command, args []string) error {
	e, _, closer, err := buildEngine()
	if err != nil {
		return err
	}
	defer closer()

	if stopClear {
		e.ClearEmergencyStop()
		fmt.Println("✓ Emergency stop cleared, trading resumes next tick")
		return nil
	}

	e.EmergencyStop(stopReason)
	fmt.Printf("✓ Emergency stop active: %s\n", stopReason)
	return nil
}
