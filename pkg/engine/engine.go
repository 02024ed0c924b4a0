package engine

import (
	"log/slog"
	"regexp"
	"sync"
	"time"

	"kestrel-hq/verdict/pkg/rule/ast"
)

// MetricsSink receives evaluation observations. The telemetry package
// provides a Prometheus-backed implementation; the engine only depends on
// this interface.
type MetricsSink interface {
	// ObserveEvaluation records one completed evaluation.
	ObserveEvaluation(verdict bool, duration time.Duration, steps int)

	// ObserveError records one failed evaluation by error kind.
	ObserveError(kind string)

	// ObserveRuleVerdict records the verdict of one named rule.
	ObserveRuleVerdict(rule string, verdict bool)
}

// Engine evaluates rule trees against facts. It holds configuration and a
// compiled-pattern cache; all per-call state lives on the stack, so one
// Engine is safe for concurrent use.
type Engine struct {
	config *Config
	logger *slog.Logger

	// patterns caches compiled regex rule values. A nil entry marks a
	// pattern that failed to compile.
	patternsMu sync.RWMutex
	patterns   map[string]*regexp.Regexp
}

// New creates an evaluation engine. A nil config uses DefaultConfig; a nil
// logger uses slog.Default.
func New(config *Config, logger *slog.Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		config:   config,
		logger:   logger.With("component", "engine"),
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Evaluate walks the rule tree against the facts and returns the verdict
// plus the full trace of every node visited. Any evaluation error aborts
// the call: no partial outcome or partial trace is returned. Evaluating the
// same (facts, rules) pair twice yields identical outcomes.
func (e *Engine) Evaluate(facts Facts, rules *ast.Node) (*Outcome, error) {
	start := time.Now()

	ev := &evaluation{engine: e, facts: facts}
	result, err := ev.walk(rules)
	duration := time.Since(start)

	if err != nil {
		if e.config.Metrics != nil {
			e.config.Metrics.ObserveError(ErrorKind(err))
		}
		e.logger.Debug("evaluation failed",
			"error", err,
			"kind", ErrorKind(err),
			"duration", duration,
		)
		return nil, err
	}

	if e.config.Metrics != nil {
		e.config.Metrics.ObserveEvaluation(result, duration, len(ev.history))
	}
	e.logger.Debug("evaluation complete",
		"verdict", result,
		"steps", len(ev.history),
		"duration", duration,
	)

	return &Outcome{Result: result, History: ev.history}, nil
}

// EvaluateSet evaluates every rule in a ruleset against the same facts. A
// rule that fails carries its error in the result; the remaining rules
// still run.
func (e *Engine) EvaluateSet(facts Facts, rs *ast.Ruleset) []RuleResult {
	if rs == nil {
		return nil
	}

	results := make([]RuleResult, 0, len(rs.Rules))
	for _, rule := range rs.Rules {
		start := time.Now()
		outcome, err := e.Evaluate(facts, rule.When)

		results = append(results, RuleResult{
			Name:     rule.Name,
			Outcome:  outcome,
			Err:      err,
			Duration: time.Since(start),
		})

		if err != nil {
			e.logger.Warn("rule evaluation failed",
				"rule", rule.Name,
				"ruleset", rs.Name,
				"error", err,
			)
			continue
		}

		if e.config.Metrics != nil {
			e.config.Metrics.ObserveRuleVerdict(rule.Name, outcome.Result)
		}
	}

	return results
}

// now returns the engine clock's current time.
func (e *Engine) now() time.Time {
	if e.config.Now != nil {
		return e.config.Now()
	}
	return time.Now()
}

// compilePattern returns the compiled form of a regex rule value, caching
// compilations across calls. Patterns that do not compile return nil and
// are cached as such.
func (e *Engine) compilePattern(pattern string) *regexp.Regexp {
	e.patternsMu.RLock()
	re, ok := e.patterns[pattern]
	e.patternsMu.RUnlock()
	if ok {
		return re
	}

	compiled, err := regexp.Compile(pattern)
	if err != nil {
		e.logger.Debug("regex pattern does not compile", "pattern", pattern, "error", err)
		compiled = nil
	}

	e.patternsMu.Lock()
	e.patterns[pattern] = compiled
	e.patternsMu.Unlock()

	return compiled
}

// defaultEngine serves the package-level entry point.
var defaultEngine = New(nil, nil)

// EvaluateRules evaluates a rule tree against facts using a shared default
// engine. Hosts that need collation, clock, or metrics configuration should
// construct their own Engine with New.
func EvaluateRules(facts Facts, rules *ast.Node) (*Outcome, error) {
	return defaultEngine.Evaluate(facts, rules)
}
