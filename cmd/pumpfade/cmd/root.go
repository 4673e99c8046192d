package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pumpfade",
	Short: "Backtester for a short-biased pump-then-stagnate strategy",
	Long: `Pumpfade evaluates a short-biased pump-then-stagnate strategy against
historical candle data.

It provides tools for:
  - Detecting breakout (pump) candidates over a trailing window
  - Tracking candidates through a stagnation watchlist
  - Simulating short fills with fees, slippage and SL-first priority
  - Risk-adaptive position sizing from per-symbol history
  - Capital ledger, equity curve and drawdown tracking
  - Journaling results to CSV or SQLite`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
