// Package metrics provides Prometheus metrics for rule evaluation.
//
// # Overview
//
// The Collector satisfies the engine's MetricsSink interface: an Engine
// configured with a Collector reports every evaluation here. Metrics cover
// verdict counts, error kinds, evaluation latency, trace length, and
// per-rule verdicts.
//
// # Usage
//
//	collector := metrics.NewCollector(nil, nil)
//	eng := engine.New(engine.DefaultConfig().WithMetrics(collector), nil)
//
//	// Expose the metrics endpoint
//	http.Handle("/metrics", collector.Handler())
//
// # Exposed Metrics
//
//	# HELP verdict_engine_evaluations_total Total number of completed rule evaluations
//	# TYPE verdict_engine_evaluations_total counter
//	verdict_engine_evaluations_total{verdict="true"} 1234
//
// Evaluation duration uses exponential buckets from 1µs to 16ms; rule
// evaluation is an in-memory tree walk and almost never slower.
//
// # Cardinality Management
//
// The rule label on rule_verdicts_total is capped: past 1000 distinct rule
// names new rules aggregate into the "other" label. Rulesets do not normally
// get near the cap; the limiter guards against unbounded generated names.
package metrics
