package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// maxRuleCardinality caps the number of distinct rule label values before
// rule verdicts aggregate into "other".
const maxRuleCardinality = 1000

// Config contains configuration for the metrics collector.
type Config struct {
	// Enabled enables metric recording.
	Enabled bool

	// Namespace is the metric name prefix.
	// Default: "verdict"
	Namespace string

	// Subsystem is the metric name infix.
	// Default: "engine"
	Subsystem string

	// DurationBuckets are the histogram buckets for evaluation duration
	// in seconds.
	DurationBuckets []float64

	// TraceLengthBuckets are the histogram buckets for trace length.
	TraceLengthBuckets []float64
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		Namespace: "verdict",
		Subsystem: "engine",
	}
}

// Collector records evaluation metrics to a Prometheus registry. It
// satisfies the engine's MetricsSink interface, so an Engine configured with
// a Collector reports every evaluation here.
//
// Metrics:
//   - verdict_engine_evaluations_total{verdict}: completed evaluations
//   - verdict_engine_evaluation_errors_total{kind}: failed evaluations
//   - verdict_engine_evaluation_duration_seconds: evaluation latency
//   - verdict_engine_evaluation_trace_length: steps per evaluation
//   - verdict_engine_rule_verdicts_total{rule,verdict}: per-rule verdicts
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	evaluationsTotal   *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	traceLength        prometheus.Histogram
	ruleVerdictsTotal  *prometheus.CounterVec

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a metrics collector registered with the provided
// Prometheus registry. If registry is nil, a fresh registry is created.
func NewCollector(cfg *Config, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "verdict"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "engine"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Rule evaluations are fast: 1µs to 16ms
		cfg.DurationBuckets = prometheus.ExponentialBuckets(0.000001, 2, 15)
	}
	if len(cfg.TraceLengthBuckets) == 0 {
		cfg.TraceLengthBuckets = []float64{1, 2, 5, 10, 25, 50, 100, 250}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(maxRuleCardinality),

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of completed rule evaluations",
			},
			[]string{"verdict"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_errors_total",
				Help:      "Total number of failed rule evaluations by error kind",
			},
			[]string{"kind"},
		),

		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of rule evaluation in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),

		traceLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_trace_length",
				Help:      "Number of trace steps per evaluation",
				Buckets:   cfg.TraceLengthBuckets,
			},
		),

		ruleVerdictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_verdicts_total",
				Help:      "Total verdicts per named rule",
			},
			[]string{"rule", "verdict"},
		),
	}

	registry.MustRegister(
		c.evaluationsTotal,
		c.errorsTotal,
		c.evaluationDuration,
		c.traceLength,
		c.ruleVerdictsTotal,
	)

	return c
}

// ObserveEvaluation records one completed evaluation.
func (c *Collector) ObserveEvaluation(verdict bool, duration time.Duration, steps int) {
	if !c.config.Enabled {
		return
	}

	c.evaluationsTotal.WithLabelValues(strconv.FormatBool(verdict)).Inc()
	c.evaluationDuration.Observe(duration.Seconds())
	c.traceLength.Observe(float64(steps))
}

// ObserveError records one failed evaluation by error kind.
func (c *Collector) ObserveError(kind string) {
	if !c.config.Enabled {
		return
	}

	c.errorsTotal.WithLabelValues(kind).Inc()
}

// ObserveRuleVerdict records the verdict of one named rule. Rules beyond the
// cardinality limit aggregate into the "other" label.
func (c *Collector) ObserveRuleVerdict(rule string, verdict bool) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow("rule:" + rule) {
		rule = "other"
	}

	c.ruleVerdictsTotal.WithLabelValues(rule, strconv.FormatBool(verdict)).Inc()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting the
// number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or the limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
