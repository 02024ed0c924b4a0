package engine

import (
	"reflect"
	"time"
)

// compare orders two values of the same recognized type: numbers of any
// width numerically, strings by the configured collation, times
// chronologically. It returns negative, zero, or positive, and an
// UnsupportedTypeError for mismatched or unorderable operands. This is the
// shared comparator behind the ordering operators and between.
func (ev *evaluation) compare(left, right any) (int, error) {
	if leftNum, ok := toFloat64(left); ok {
		rightNum, ok := toFloat64(right)
		if !ok {
			return 0, &UnsupportedTypeError{Left: left, Right: right}
		}
		switch {
		case leftNum < rightNum:
			return -1, nil
		case leftNum > rightNum:
			return 1, nil
		default:
			return 0, nil
		}
	}

	if leftStr, ok := left.(string); ok {
		rightStr, ok := right.(string)
		if !ok {
			return 0, &UnsupportedTypeError{Left: left, Right: right}
		}
		return ev.compareStrings(leftStr, rightStr), nil
	}

	if leftTime, ok := left.(time.Time); ok {
		rightTime, ok := right.(time.Time)
		if !ok {
			return 0, &UnsupportedTypeError{Left: left, Right: right}
		}
		return leftTime.Compare(rightTime), nil
	}

	return 0, &UnsupportedTypeError{Left: left, Right: right}
}

// equalValues reports loose equality: numbers compare across widths, times
// by instant, everything else by deep equality. Used by equal, notEqual,
// and sequence membership.
func equalValues(left, right any) bool {
	if left == nil && right == nil {
		return true
	}
	if left == nil || right == nil {
		return false
	}

	if leftNum, ok := toFloat64(left); ok {
		rightNum, ok := toFloat64(right)
		return ok && leftNum == rightNum
	}

	if leftTime, ok := left.(time.Time); ok {
		rightTime, ok := right.(time.Time)
		return ok && leftTime.Equal(rightTime)
	}

	return reflect.DeepEqual(left, right)
}

// toFloat64 widens any numeric value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
