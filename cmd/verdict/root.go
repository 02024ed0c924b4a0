package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// verbose is the global --verbose flag.
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "verdict",
	Short: "Declarative rule evaluation engine and ruleset toolkit",
	Long: `Verdict evaluates declarative condition rules against sets of facts.

Rules are trees of comparisons (equal, greaterThan, in, between, ...) joined
by all/any combinators, kept in YAML or JSON ruleset documents. The CLI wraps
the evaluation engine for working with those documents:

  - Lint and validate ruleset files
  - Evaluate rulesets against fact documents
  - Run ruleset test suites
  - Query and summarize the evaluation audit trail
  - Benchmark rule evaluation throughput`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger builds the logger handed to engine and storage components.
// Quiet by default so command output stays clean; --verbose surfaces
// component debug logs on stderr.
func newLogger() *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
