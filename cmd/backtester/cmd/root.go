package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "A per-minute historical backtesting engine for stock trading strategies",
	Long: `Backtester replays per-minute historical price data against one or more
trading strategies and reports per-strategy performance.

It provides tools for:
  - Backtesting strategies against historical bar data
  - Running multiple strategies in one pass, each with its own portfolio
  - Persisting trade and equity journals to CSV or SQLite
  - Exporting a completed run's summary to an Org-mode file

Complete documentation is available at https://github.com/rustyeddy/backtester`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
