package engine

import (
	"golang.org/x/text/collate"

	"kestrel-hq/verdict/pkg/rule/ast"
)

/// evaluation carries the state of one Evaluate call: the facts under test,
// the trace built so far, and a collator built on first use. Keeping this
// state call-scoped instead of on the Engine is what makes the engine safe
// for concurrent callers.
type evaluation struct {
	engine   *Engine
	facts    Facts
	history  []HistoryEntry
	collator *collate.Collator
}

// compareStrings orders two strings under the configured collation. The
// collator carries internal buffers, so each evaluation builds its own.
func (ev *evaluation) compareStrings(a, b string) int {
	if ev.collator == nil {
		ev.collator = collate.New(ev.engine.config.Collation)
	}
	return ev.collator.CompareString(a, b)
}

// walk evaluates a tree node depth-first and returns its verdict. Each
// visited node appends one trace entry after its sub-evaluations complete.
func (ev *evaluation) walk(node *ast.Node) (bool, error) {
	switch node.Kind() {
	case ast.KindAtomic:
		return ev.walkAtomic(node)

	case ast.KindAll:
		return ev.walkGroup(node, node.All, true)

	case ast.KindAny:
		return ev.walkGroup(node, node.Any, false)

	case ast.KindCombined:
		return ev.walkCombined(node)

	default:
		return false, &InvalidRuleStructureError{Node: node}
	}
}

// walkAtomic resolves the named fact and applies the operator. A fact name
// missing from the facts map resolves to the absent marker, not an error.
func (ev *evaluation) walkAtomic(node *ast.Node) (bool, error) {
	fact, ok := ev.facts[node.Fact]
	if !ok {
		fact = absent
	}

	result, err := ev.applyOperator(node.Operator, fact, node.Value)
	if err != nil {
		return false, err
	}

	ev.record(node, result)
	return result, nil
}

// walkGroup evaluates every child of a combinator and aggregates with AND
// (conjunctive) or OR. Children are never short-circuited: the trace must
// record every child, and an error in a later child must still surface even
// when the aggregate verdict is already decided. An empty conjunctive group
// is vacuously true; an empty disjunctive group is false.
func (ev *evaluation) walkGroup(node *ast.Node, children []*ast.Node, conjunctive bool) (bool, error) {
	result := conjunctive

	for _, child := range children {
		childResult, err := ev.walk(child)
		if err != nil {
			return false, err
		}
		if conjunctive {
			result = result && childResult
		} else {
			result = result || childResult
		}
	}

	ev.record(node, result)
	return result, nil
}

// walkCombined evaluates a node carrying both groups: the all-group as its
// own conjunction, the any-group as its own disjunction, then one further
// entry for their AND. A combined node therefore traces each child, one
// entry per group, and one entry for itself.
func (ev *evaluation) walkCombined(node *ast.Node) (bool, error) {
	allResult, err := ev.walkGroup(&ast.Node{All: node.All}, node.All, true)
	if err != nil {
		return false, err
	}

	anyResult, err := ev.walkGroup(&ast.Node{Any: node.Any}, node.Any, false)
	if err != nil {
		return false, err
	}

	result := allResult && anyResult
	ev.record(node, result)
	return result, nil
}

func (ev *evaluation) record(node *ast.Node, result bool) {
	ev.history = append(ev.history, HistoryEntry{Rule: node, Result: result})
}
