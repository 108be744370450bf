package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "httpcall",
	Short: "One-shot HTTP requests with explicit policies.",
	Long: `httpcall issues HTTP requests with explicit redirect policies and
timeout budgets. It ships a mock server for local testing, a latency
probe, and a history of past exchanges.`,
	SilenceUsage: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(mockCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
