package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "An intraday expert advisor for single-symbol trading sessions",
	Long: `Advisor runs one strategy on one symbol inside a daily trading window.

It provides tools for:
  - Replaying tick files through the paper terminal
  - Opening, reversing and closing a single position per symbol and magic number
  - Closing everything at the end of the trading day
  - Journaling closed deals to CSV or SQLite
  - Reviewing journaled runs

Complete documentation is available at https://github.com/rustyeddy/advisor`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
