// trendreport builds the EV market trend report.
//
// Usage:
//
//	trendreport run   [--config=<file>] [--out=<dir>] [--offline] [--store=<backend> --store-dsn=<dsn>]
//	trendreport audit --run-id=<id> --store=<backend> --store-dsn=<dsn>
//	trendreport graph
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "trendreport",
	Short: "Cited EV market trend reports",
	Long:  "trendreport researches the EV market, benchmark companies and their stocks\nand exports a cited report with an evidence log.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
