package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scan",
	Short: "Compute indicator sets over OHLCV files",
	Long: `Scan runs a catalog of technical indicators over bar data from CSV
files, using the same engine the streaming service runs.

It provides tools for:
  - Computing an indicator catalog over a CSV of candles
  - Inspecting and validating catalog files
  - Printing results as an aligned table or JSON`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
