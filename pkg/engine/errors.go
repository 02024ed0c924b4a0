package engine

import (
	"errors"
	"fmt"

	"kestrel-hq/verdict/pkg/rule/ast"
)

// Error kind labels. Metrics and audit records use these to bucket
// evaluation failures.
const (
	KindInvalidOperator      = "invalid_operator"
	KindInvalidRuleStructure = "invalid_rule_structure"
	KindInvalidBetweenValue  = "invalid_between_value"
	KindInvalidSizeType      = "invalid_size_type"
	KindUnsupportedType      = "unsupported_type"
	KindInternal             = "internal"
)

// InvalidOperatorError indicates an atomic rule names an operator that is
// not in the operator library.
type InvalidOperatorError struct {
	Operator ast.Operator
}

// Error returns the error message.
func (e *InvalidOperatorError) Error() string {
	return fmt.Sprintf("unknown operator: %q", e.Operator)
}

// InvalidRuleStructureError indicates a node that matches none of the
// grammar's variants: it is neither a comparison nor an all/any group.
type InvalidRuleStructureError struct {
	Node *ast.Node
}

// Error returns the error message.
func (e *InvalidRuleStructureError) Error() string {
	return "rule node is neither a comparison nor an all/any group"
}

// InvalidBetweenValueError indicates a between operand that is not a
// two-element range.
type InvalidBetweenValueError struct {
	Value any
}

// Error returns the error message.
func (e *InvalidBetweenValueError) Error() string {
	return fmt.Sprintf("between requires a two-element range, got %v", e.Value)
}

// InvalidSizeTypeError indicates a length operator applied to a fact that
// has no length.
type InvalidSizeTypeError struct {
	Value any
}

// Error returns the error message.
func (e *InvalidSizeTypeError) Error() string {
	return fmt.Sprintf("length operators require a string or sequence fact, got %T", e.Value)
}

// UnsupportedTypeError indicates operands the shared comparator cannot
// order: not both numbers, both strings, or both times.
type UnsupportedTypeError struct {
	Left  any
	Right any
}

// Error returns the error message.
func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("cannot compare %T with %T", e.Left, e.Right)
}

// ErrorKind maps an evaluation error to its taxonomy label. Errors from
// outside the taxonomy map to "internal"; nil maps to "".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var (
		operatorErr  *InvalidOperatorError
		structureErr *InvalidRuleStructureError
		betweenErr   *InvalidBetweenValueError
		sizeErr      *InvalidSizeTypeError
		typeErr      *UnsupportedTypeError
	)

	switch {
	case errors.As(err, &operatorErr):
		return KindInvalidOperator
	case errors.As(err, &structureErr):
		return KindInvalidRuleStructure
	case errors.As(err, &betweenErr):
		return KindInvalidBetweenValue
	case errors.As(err, &sizeErr):
		return KindInvalidSizeType
	case errors.As(err, &typeErr):
		return KindUnsupportedType
	default:
		return KindInternal
	}
}
