package engine

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"kestrel-hq/verdict/pkg/rule/ast"
)

// applyOperator dispatches an atomic comparison to its predicate. Predicates
// are pure over (fact, value) except for the clock behind withinLast and the
// collation behind string ordering.
//
// Shape mismatches split two ways, and the split is part of the operator
// contract: mismatches that plausibly occur with well-formed rules over
// messy facts return false, while mismatches that signal a broken rule or an
// unorderable fact raise a typed error.
func (ev *evaluation) applyOperator(op ast.Operator, fact, value any) (bool, error) {
	switch op {
	case ast.OperatorEqual:
		return equalValues(fact, value), nil

	case ast.OperatorNotEqual:
		return !equalValues(fact, value), nil

	case ast.OperatorGreaterThan:
		cmp, err := ev.compare(fact, value)
		if err != nil {
			return false, err
		}
		return cmp > 0, nil

	case ast.OperatorLessThan:
		cmp, err := ev.compare(fact, value)
		if err != nil {
			return false, err
		}
		return cmp < 0, nil

	case ast.OperatorGreaterThanOrEqual:
		cmp, err := ev.compare(fact, value)
		if err != nil {
			return false, err
		}
		return cmp >= 0, nil

	case ast.OperatorLessThanOrEqual:
		cmp, err := ev.compare(fact, value)
		if err != nil {
			return false, err
		}
		return cmp <= 0, nil

	case ast.OperatorIn:
		found, ok := containsElement(value, fact)
		return ok && found, nil

	case ast.OperatorNotIn:
		// Not the negation of in: a non-sequence rule value fails both.
		found, ok := containsElement(value, fact)
		return ok && !found, nil

	case ast.OperatorContains:
		found, ok := containsElement(fact, value)
		return ok && found, nil

	case ast.OperatorStartsWith:
		factStr, valueStr, ok := stringOperands(fact, value)
		return ok && strings.HasPrefix(factStr, valueStr), nil

	case ast.OperatorEndsWith:
		factStr, valueStr, ok := stringOperands(fact, value)
		return ok && strings.HasSuffix(factStr, valueStr), nil

	case ast.OperatorContainsSubstring:
		factStr, valueStr, ok := stringOperands(fact, value)
		return ok && strings.Contains(factStr, valueStr), nil

	case ast.OperatorRegex, ast.OperatorMatches:
		return ev.matchPattern(fact, value), nil

	case ast.OperatorBetween:
		return ev.evalBetween(fact, value)

	case ast.OperatorSize:
		length, err := factLength(fact)
		if err != nil {
			return false, err
		}
		want, ok := toFloat64(value)
		return ok && float64(length) == want, nil

	case ast.OperatorSmaller:
		length, err := factLength(fact)
		if err != nil {
			return false, err
		}
		want, ok := toFloat64(value)
		return ok && float64(length) < want, nil

	case ast.OperatorBigger:
		length, err := factLength(fact)
		if err != nil {
			return false, err
		}
		want, ok := toFloat64(value)
		return ok && float64(length) > want, nil

	case ast.OperatorWithinLast:
		return ev.evalWithinLast(fact, value)

	case ast.OperatorBefore:
		return ev.evalBefore(fact, value)

	case ast.OperatorAfter:
		return ev.evalAfter(fact, value)

	case ast.OperatorExists:
		return !isAbsent(fact) && fact != nil, nil

	case ast.OperatorNotExists:
		return isAbsent(fact) || fact == nil, nil

	case ast.OperatorIsEmpty:
		length, ok := lengthOf(fact)
		return ok && length == 0, nil

	case ast.OperatorIsNotEmpty:
		// Not the negation of isEmpty: a fact without a length fails both.
		length, ok := lengthOf(fact)
		return ok && length > 0, nil

	default:
		return false, &InvalidOperatorError{Operator: op}
	}
}

// evalBetween reports whether the fact lies in the closed interval the rule
// value describes, using the shared comparator for both bounds.
func (ev *evaluation) evalBetween(fact, value any) (bool, error) {
	bounds := reflect.ValueOf(value)
	if !bounds.IsValid() || (bounds.Kind() != reflect.Slice && bounds.Kind() != reflect.Array) || bounds.Len() != 2 {
		return false, &InvalidBetweenValueError{Value: value}
	}

	cmpLow, err := ev.compare(fact, bounds.Index(0).Interface())
	if err != nil {
		return false, err
	}
	cmpHigh, err := ev.compare(fact, bounds.Index(1).Interface())
	if err != nil {
		return false, err
	}

	return cmpLow >= 0 && cmpHigh <= 0, nil
}

// matchPattern reports whether the fact string matches the rule pattern.
// Non-string operands and patterns that do not compile soft-fail.
func (ev *evaluation) matchPattern(fact, value any) bool {
	factStr, pattern, ok := stringOperands(fact, value)
	if !ok {
		return false
	}

	re := ev.engine.compilePattern(pattern)
	if re == nil {
		return false
	}
	return re.MatchString(factStr)
}

// containsElement reports whether seq holds an element equal to elem under
// equalValues. ok is false when seq is not a slice or array.
func containsElement(seq, elem any) (found, ok bool) {
	rv := reflect.ValueOf(seq)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false, false
	}

	for i := 0; i < rv.Len(); i++ {
		if equalValues(rv.Index(i).Interface(), elem) {
			return true, true
		}
	}
	return false, true
}

// stringOperands asserts both operands are strings.
func stringOperands(fact, value any) (string, string, bool) {
	factStr, ok := fact.(string)
	if !ok {
		return "", "", false
	}
	valueStr, ok := value.(string)
	if !ok {
		return "", "", false
	}
	return factStr, valueStr, true
}

// lengthOf returns the element count of a string or sequence fact. Strings
// count runes, not bytes.
func lengthOf(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s), true
	}

	rv := reflect.ValueOf(v)
	if rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		return rv.Len(), true
	}
	return 0, false
}

// factLength is lengthOf for the size operator family, where a fact without
// a length is a hard error rather than a soft false.
func factLength(v any) (int, error) {
	length, ok := lengthOf(v)
	if !ok {
		return 0, &InvalidSizeTypeError{Value: v}
	}
	return length, nil
}
