// kmeier computes Kaplan-Meier survival curves, censored-subject
// records and a cross-group logrank test from a tab-separated cohort
// table.
//
// Usage:
//
//	kmeier run <root> <vital|progress> [--input=<file>] [--conf-level=<p>] [--plot]
//
// The root directory holds the input table and receives all output
// tables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "kmeier",
	Short: "Survival curves and logrank tests for tabular cohorts",
	Long: "Kmeier estimates group-wise Kaplan-Meier survival curves with\n" +
		"log-log confidence bands from a tab-separated subject table,\n" +
		"records the censored subjects, and compares groups with a\n" +
		"logrank test.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
