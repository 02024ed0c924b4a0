package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestComputeStats(t *testing.T) {
	latencies := make([]time.Duration, 0, 10)
	for i := 10; i >= 1; i-- {
		latencies = append(latencies, time.Duration(i)*time.Millisecond)
	}

	stats := computeStats(latencies)

	if stats.min != time.Millisecond {
		t.Errorf("min = %v, want 1ms", stats.min)
	}
	if stats.max != 10*time.Millisecond {
		t.Errorf("max = %v, want 10ms", stats.max)
	}
	if stats.mean != 5500*time.Microsecond {
		t.Errorf("mean = %v, want 5.5ms", stats.mean)
	}
	if stats.median != 6*time.Millisecond {
		t.Errorf("median = %v, want 6ms", stats.median)
	}
	if stats.p99 != 10*time.Millisecond {
		t.Errorf("p99 = %v, want 10ms", stats.p99)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := computeStats(nil)
	if stats.min != 0 || stats.max != 0 || stats.mean != 0 {
		t.Errorf("empty stats = %+v, want zero value", stats)
	}
}

func TestPercentileOf(t *testing.T) {
	if got := percentileOf(nil, 95); got != 0 {
		t.Errorf("percentileOf(nil) = %v, want 0", got)
	}

	single := []time.Duration{42 * time.Microsecond}
	for _, p := range []float64{0, 50, 99, 100} {
		if got := percentileOf(single, p); got != 42*time.Microsecond {
			t.Errorf("percentileOf(single, %v) = %v, want 42µs", p, got)
		}
	}

	sorted := []time.Duration{1, 2, 3, 4}
	if got := percentileOf(sorted, 100); got != 4 {
		t.Errorf("percentileOf(p100) = %v, want 4 (clamped to max)", got)
	}
}

func TestExecuteBench(t *testing.T) {
	var calls atomic.Int64
	work := func() error {
		calls.Add(1)
		return nil
	}

	result := executeBench(context.Background(), work, 50, 4, nil)

	if calls.Load() != 50 {
		t.Errorf("work called %d times, want 50", calls.Load())
	}
	if result.completed != 50 {
		t.Errorf("completed = %d, want 50", result.completed)
	}
	if result.errors != 0 {
		t.Errorf("errors = %d, want 0", result.errors)
	}
	if len(result.latencies) != 50 {
		t.Errorf("len(latencies) = %d, want 50", len(result.latencies))
	}
	if result.elapsed <= 0 {
		t.Error("elapsed not recorded")
	}
}

func TestExecuteBenchCountsErrors(t *testing.T) {
	work := func() error { return errors.New("boom") }

	result := executeBench(context.Background(), work, 10, 2, nil)

	if result.errors != 10 {
		t.Errorf("errors = %d, want 10", result.errors)
	}
}

func TestExecuteBenchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := executeBench(ctx, func() error { return nil }, 100, 2, nil)

	if result.completed != 0 {
		t.Errorf("completed = %d after pre-cancelled context, want 0", result.completed)
	}
}

func TestRunBenchmarkCommand(t *testing.T) {
	// Set flags
	benchFlags.rulesFile = "testdata/valid-ruleset.yaml"
	benchFlags.factsFile = "testdata/facts.yaml"
	benchFlags.ruleName = ""
	benchFlags.iterations = 50
	benchFlags.concurrency = 2

	// Run bench command
	err := runBenchmark(nil, []string{})
	if err != nil {
		t.Errorf("runBenchmark() returned error: %v", err)
	}
}

func TestRunBenchmarkSingleRule(t *testing.T) {
	benchFlags.rulesFile = "testdata/valid-ruleset.yaml"
	benchFlags.factsFile = "testdata/facts.yaml"
	benchFlags.ruleName = "adult"
	benchFlags.iterations = 20
	benchFlags.concurrency = 1

	err := runBenchmark(nil, []string{})
	if err != nil {
		t.Errorf("runBenchmark() with --rule returned error: %v", err)
	}
}

func TestRunBenchmarkUnknownRule(t *testing.T) {
	benchFlags.rulesFile = "testdata/valid-ruleset.yaml"
	benchFlags.factsFile = "testdata/facts.yaml"
	benchFlags.ruleName = "no-such-rule"
	benchFlags.iterations = 10
	benchFlags.concurrency = 1

	err := runBenchmark(nil, []string{})
	if err == nil {
		t.Error("runBenchmark() with unknown rule should return error")
	}
}

func TestRunBenchmarkInvalidFlags(t *testing.T) {
	benchFlags.rulesFile = "testdata/valid-ruleset.yaml"
	benchFlags.factsFile = ""
	benchFlags.ruleName = ""
	benchFlags.iterations = 0
	benchFlags.concurrency = 1

	if err := runBenchmark(nil, []string{}); err == nil {
		t.Error("runBenchmark() with zero iterations should return error")
	}

	benchFlags.iterations = 10
	benchFlags.concurrency = 0
	if err := runBenchmark(nil, []string{}); err == nil {
		t.Error("runBenchmark() with zero concurrency should return error")
	}
}
