package engine

import (
	"time"

	"kestrel-hq/verdict/pkg/rule/ast"
)

// Facts maps fact names to the values one evaluation runs against. Values
// may be numbers, strings, booleans, times, sequences, or nested structures;
// nothing is schema-validated.
type Facts map[string]any

// HistoryEntry records the verdict of a single tree node.
type HistoryEntry struct {
	Rule   *ast.Node `json:"rule"`
	Result bool      `json:"result"`
}

// Outcome is the result of evaluating one rule tree against one set of
// facts: the final verdict plus the trace of every node visited, in the
// order sub-evaluations completed (children before their combinator).
type Outcome struct {
	Result  bool           `json:"result"`
	History []HistoryEntry `json:"history"`
}

// Steps returns the number of nodes visited during the evaluation.
func (o *Outcome) Steps() int {
	return len(o.History)
}

// RuleResult is the per-rule outcome of evaluating a ruleset. A failed rule
// carries its error; the remaining rules still run.
type RuleResult struct {
	Name     string
	Outcome  *Outcome
	Err      error
	Duration time.Duration
}

// absentValue marks a fact name missing from the facts map, distinguishing
// an absent fact from one explicitly set to nil.
type absentValue struct{}

var absent any = absentValue{}

// isAbsent reports whether a fact value is the absent marker.
func isAbsent(v any) bool {
	_, ok := v.(absentValue)
	return ok
}
