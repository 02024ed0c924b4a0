package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"kestrel-hq/verdict/pkg/cli"
	"kestrel-hq/verdict/pkg/engine"
	"kestrel-hq/verdict/pkg/rule"
)

var benchFlags struct {
	rulesFile   string
	factsFile   string
	ruleName    string
	iterations  int
	concurrency int
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark ruleset evaluation",
	Long: `Measure evaluation throughput and latency for a ruleset.

The benchmark parses the ruleset once, then evaluates it repeatedly
in-process against the same facts. With --rule a single rule is timed;
otherwise every rule in the set is evaluated per iteration.

Press Ctrl+C to stop early; statistics are reported for the completed
iterations.

Examples:
  # Benchmark a whole ruleset
  verdict bench --rules signup.yaml --facts facts.yaml

  # Benchmark one rule with four workers
  verdict bench --rules signup.yaml --facts facts.yaml --rule adult --concurrency 4`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().StringVarP(&benchFlags.rulesFile, "rules", "r", "", "ruleset file (required)")
	benchCmd.Flags().StringVarP(&benchFlags.factsFile, "facts", "F", "", "facts file (YAML or JSON)")
	benchCmd.Flags().StringVar(&benchFlags.ruleName, "rule", "", "benchmark a single rule")
	benchCmd.Flags().IntVarP(&benchFlags.iterations, "iterations", "n", 10000, "number of evaluations")
	benchCmd.Flags().IntVarP(&benchFlags.concurrency, "concurrency", "c", 1, "concurrent workers")

	if err := benchCmd.MarkFlagRequired("rules"); err != nil {
		panic(err)
	}
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	if benchFlags.iterations <= 0 {
		return cli.NewUsageError("bench", "--iterations must be positive")
	}
	if benchFlags.concurrency <= 0 {
		return cli.NewUsageError("bench", "--concurrency must be positive")
	}

	ruleset, err := rule.ParseAndValidate(benchFlags.rulesFile)
	if err != nil {
		return cli.NewCommandError("bench", err)
	}

	facts, err := readFacts(benchFlags.factsFile)
	if err != nil {
		return cli.NewCommandError("bench", err)
	}

	eng := engine.New(nil, newLogger())

	var work func() error
	target := fmt.Sprintf("full ruleset (%d rules)", len(ruleset.Rules))
	if benchFlags.ruleName != "" {
		named := ruleset.Rule(benchFlags.ruleName)
		if named == nil {
			return cli.NewCommandError("bench",
				fmt.Errorf("rule %q not found in ruleset %q", benchFlags.ruleName, ruleset.Name))
		}
		target = fmt.Sprintf("rule %q", named.Name)
		work = func() error {
			_, err := eng.Evaluate(facts, named.When)
			return err
		}
	} else {
		work = func() error {
			for _, result := range eng.EvaluateSet(facts, ruleset) {
				if result.Err != nil {
					return result.Err
				}
			}
			return nil
		}
	}

	fmt.Println("Benchmarking ruleset evaluation...")
	fmt.Println()
	fmt.Printf("Ruleset: %s\n", ruleset.Name)
	fmt.Printf("Target: %s\n", target)
	fmt.Printf("Facts: %d\n", len(facts))
	fmt.Printf("Iterations: %d\n", benchFlags.iterations)
	fmt.Printf("Concurrency: %d\n", benchFlags.concurrency)
	fmt.Println()

	ctx := cli.SetupSignalHandler()
	progress := cli.NewProgressReporter(nil)
	progress.Start(int64(benchFlags.iterations))

	result := executeBench(ctx, work, benchFlags.iterations, benchFlags.concurrency, progress)
	progress.Finish()

	if ctx.Err() != nil {
		fmt.Printf("Benchmark cancelled after %d iterations.\n", result.completed)
	}
	fmt.Println()
	outputBenchResults(result)
	return nil
}

type benchResult struct {
	latencies []time.Duration
	completed int
	errors    int
	elapsed   time.Duration
}

// executeBench runs work iterations times across concurrency workers,
// recording per-call latency. It stops early when ctx is cancelled.
func executeBench(ctx context.Context, work func() error, iterations, concurrency int, progress cli.ProgressReporter) *benchResult {
	result := &benchResult{
		latencies: make([]time.Duration, 0, iterations),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	started := time.Now()

	base := iterations / concurrency
	extra := iterations % concurrency
	for worker := 0; worker < concurrency; worker++ {
		share := base
		if worker < extra {
			share++
		}
		if share == 0 {
			continue
		}

		wg.Add(1)
		go func(share int) {
			defer wg.Done()
			for i := 0; i < share; i++ {
				if ctx.Err() != nil {
					return
				}

				callStart := time.Now()
				err := work()
				latency := time.Since(callStart)

				mu.Lock()
				result.latencies = append(result.latencies, latency)
				result.completed++
				if err != nil {
					result.errors++
				}
				if progress != nil {
					progress.Update(int64(result.completed))
				}
				mu.Unlock()
			}
		}(share)
	}

	wg.Wait()
	result.elapsed = time.Since(started)
	return result
}

type benchStats struct {
	min    time.Duration
	mean   time.Duration
	median time.Duration
	p95    time.Duration
	p99    time.Duration
	max    time.Duration
}

func computeStats(latencies []time.Duration) benchStats {
	if len(latencies) == 0 {
		return benchStats{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, latency := range sorted {
		total += latency
	}

	return benchStats{
		min:    sorted[0],
		mean:   total / time.Duration(len(sorted)),
		median: percentileOf(sorted, 50),
		p95:    percentileOf(sorted, 95),
		p99:    percentileOf(sorted, 99),
		max:    sorted[len(sorted)-1],
	}
}

// percentileOf reads the p-th percentile from an ascending-sorted slice.
func percentileOf(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * p / 100)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func outputBenchResults(result *benchResult) {
	fmt.Println("Results:")
	fmt.Println("--------")
	fmt.Printf("Completed: %d (%d errors)\n", result.completed, result.errors)
	fmt.Printf("Elapsed: %v\n", result.elapsed.Round(time.Millisecond))
	if result.elapsed > 0 {
		throughput := float64(result.completed) / result.elapsed.Seconds()
		fmt.Printf("Throughput: %.0f evaluations/s\n", throughput)
	}

	if result.completed == 0 {
		return
	}

	stats := computeStats(result.latencies)
	fmt.Println()
	fmt.Println("Latency:")
	fmt.Printf("  min:    %v\n", stats.min)
	fmt.Printf("  mean:   %v\n", stats.mean)
	fmt.Printf("  median: %v\n", stats.median)
	fmt.Printf("  p95:    %v\n", stats.p95)
	fmt.Printf("  p99:    %v\n", stats.p99)
	fmt.Printf("  max:    %v\n", stats.max)
}
