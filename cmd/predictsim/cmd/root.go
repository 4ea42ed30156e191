package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "predictsim",
	Short: "A paper-trading simulator for binary prediction markets",
	Long: `Predictsim runs a simulated trading account against live Kalshi market data.

It provides tools for:
  - Scanning open markets with pluggable opportunity analyzers
  - Paper-trading admitted opportunities with stop-loss/take-profit management
  - Journaling closed trades and portfolio snapshots to CSV or SQLite
  - Reporting win rate, drawdown and rejection statistics per run

Complete documentation is available at https://github.com/rustyeddy/predictsim`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
