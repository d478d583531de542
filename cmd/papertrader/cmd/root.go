package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "papertrader",
	Short: "A paper-trading simulation engine with virtual margin accounting",
	Long: `Papertrader simulates leveraged trading against live or scripted prices
without touching real funds.

It provides tools for:
  - Placing simulated market, limit and stop orders with slippage and commission
  - Virtual account accounting: balance, equity, margin reservation
  - Automatic stop-loss and take-profit triggering
  - Journaling closed trades and equity curves to CSV or SQLite
  - Performance reports: win rate, profit factor, Sharpe ratio`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional; API keys may come from the environment directly.
		_ = godotenv.Load()
	},
}

var verbose bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
