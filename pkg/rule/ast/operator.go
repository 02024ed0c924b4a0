package ast

// Operator names a predicate from the engine's operator library.
// The constant values are the wire names used in rule documents.
type Operator string

const (
	OperatorEqual              Operator = "equal"
	OperatorNotEqual           Operator = "notEqual"
	OperatorGreaterThan        Operator = "greaterThan"
	OperatorLessThan           Operator = "lessThan"
	OperatorGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OperatorLessThanOrEqual    Operator = "lessThanOrEqual"
	OperatorIn                 Operator = "in"
	OperatorNotIn              Operator = "notIn"
	OperatorContains           Operator = "contains"
	OperatorStartsWith         Operator = "startsWith"
	OperatorEndsWith           Operator = "endsWith"
	OperatorRegex              Operator = "regex"
	OperatorMatches            Operator = "matches" // alias of regex
	OperatorBetween            Operator = "between"
	OperatorSize               Operator = "size"
	OperatorSmaller            Operator = "smaller"
	OperatorBigger             Operator = "bigger"
	OperatorWithinLast         Operator = "withinLast"
	OperatorBefore             Operator = "before"
	OperatorAfter              Operator = "after"
	OperatorExists             Operator = "exists"
	OperatorNotExists          Operator = "notExists"
	OperatorContainsSubstring  Operator = "containsSubstring"
	OperatorIsEmpty            Operator = "isEmpty"
	OperatorIsNotEmpty         Operator = "isNotEmpty"
)

// allOperators lists every operator the engine dispatches on, in the order
// the library documents them.
var allOperators = []Operator{
	OperatorEqual,
	OperatorNotEqual,
	OperatorGreaterThan,
	OperatorLessThan,
	OperatorGreaterThanOrEqual,
	OperatorLessThanOrEqual,
	OperatorIn,
	OperatorNotIn,
	OperatorContains,
	OperatorStartsWith,
	OperatorEndsWith,
	OperatorRegex,
	OperatorMatches,
	OperatorBetween,
	OperatorSize,
	OperatorSmaller,
	OperatorBigger,
	OperatorWithinLast,
	OperatorBefore,
	OperatorAfter,
	OperatorExists,
	OperatorNotExists,
	OperatorContainsSubstring,
	OperatorIsEmpty,
	OperatorIsNotEmpty,
}

var operatorSet = func() map[Operator]struct{} {
	set := make(map[Operator]struct{}, len(allOperators))
	for _, op := range allOperators {
		set[op] = struct{}{}
	}
	return set
}()

// Valid reports whether the operator names a predicate in the engine's
// operator library.
func (o Operator) Valid() bool {
	_, ok := operatorSet[o]
	return ok
}

// Operators returns every recognized operator name. The returned slice is a
// copy; callers may reorder it freely.
func Operators() []Operator {
	ops := make([]Operator, len(allOperators))
	copy(ops, allOperators)
	return ops
}
