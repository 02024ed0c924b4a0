// Package engine evaluates declarative condition trees against a set of
// named facts, producing a boolean verdict and a complete evaluation trace.
//
// Hosts embed the engine for data-driven conditional logic (access control,
// eligibility checks, feature targeting) without hard-coding boolean
// expressions. Rules arrive as trees of comparisons and all/any groups,
// usually parsed from YAML or JSON by the rule package.
//
// # Evaluation Flow
//
//	Facts + rule tree
//	       ↓
//	Depth-first walk:
//	  comparison → resolve fact, apply operator
//	  all group  → evaluate every child, AND
//	  any group  → evaluate every child, OR
//	       ↓
//	Outcome (verdict + trace)
//
// Groups are never short-circuited: every child is evaluated and traced
// even once the aggregate verdict is decided, so the trace always covers
// the whole tree and errors in later children still surface.
//
// # Basic Usage
//
//	eng := engine.New(nil, logger)
//
//	rules := ast.AllOf(
//	    ast.Atomic("age", ast.OperatorGreaterThanOrEqual, 18),
//	    ast.Atomic("country", ast.OperatorIn, []any{"USA", "Canada"}),
//	)
//
//	outcome, err := eng.Evaluate(engine.Facts{"age": 25, "country": "USA"}, rules)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(outcome.Result)       // true
//	fmt.Println(len(outcome.History)) // 3: two comparisons plus the group
//
// # Operator Failure Policy
//
// Operators split shape mismatches two ways. Mismatches expected from
// well-formed rules over messy facts evaluate to false: membership against
// a non-sequence, string tests against non-strings, patterns that do not
// compile. Mismatches that signal a broken rule or an unorderable fact are
// typed errors: an unknown operator, a malformed node, a between range
// without two elements, a length operator on a fact with no length, or
// ordering across incompatible types. An error aborts the whole call with
// no partial outcome.
//
// ErrorKind maps any evaluation error to a stable label for metrics and
// audit records.
//
// # Thread Safety
//
// One Engine is safe for concurrent use: per-call state lives in a
// call-scoped accumulator and the pattern cache is lock-protected. The
// engine holds no state between calls; evaluating the same inputs twice
// yields identical outcomes.
package engine
