package engine

import "time"

// dateLayouts are tried in order when a date operator receives a string.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDateString parses a date string against the supported layouts.
func parseDateString(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateOperands resolves both sides of a before/after comparison. A fact of
// the wrong type is an UnsupportedTypeError; a fact string that does not
// parse soft-fails with ok=false. The rule side is authored configuration,
// so a bad rule date is always a hard error.
func dateOperands(fact, value any) (factTime, ruleTime time.Time, ok bool, err error) {
	switch f := fact.(type) {
	case time.Time:
		factTime = f
	case string:
		var parsed bool
		if factTime, parsed = parseDateString(f); !parsed {
			return time.Time{}, time.Time{}, false, nil
		}
	default:
		return time.Time{}, time.Time{}, false, &UnsupportedTypeError{Left: fact, Right: value}
	}

	switch r := value.(type) {
	case time.Time:
		ruleTime = r
	case string:
		var parsed bool
		if ruleTime, parsed = parseDateString(r); !parsed {
			return time.Time{}, time.Time{}, false, &UnsupportedTypeError{Left: fact, Right: value}
		}
	default:
		return time.Time{}, time.Time{}, false, &UnsupportedTypeError{Left: fact, Right: value}
	}

	return factTime, ruleTime, true, nil
}

// evalBefore reports whether the fact date strictly precedes the rule date.
func (ev *evaluation) evalBefore(fact, value any) (bool, error) {
	factTime, ruleTime, ok, err := dateOperands(fact, value)
	if err != nil || !ok {
		return false, err
	}
	return factTime.Before(ruleTime), nil
}

// evalAfter reports whether the fact date strictly follows the rule date.
func (ev *evaluation) evalAfter(fact, value any) (bool, error) {
	factTime, ruleTime, ok, err := dateOperands(fact, value)
	if err != nil || !ok {
		return false, err
	}
	return factTime.After(ruleTime), nil
}

// evalWithinLast reports whether the fact date falls within the trailing
// window of ruleValue milliseconds ending at the engine clock's now. A fact
// in the future is trivially within any window.
func (ev *evaluation) evalWithinLast(fact, value any) (bool, error) {
	var factTime time.Time
	switch f := fact.(type) {
	case time.Time:
		factTime = f
	case string:
		var parsed bool
		if factTime, parsed = parseDateString(f); !parsed {
			return false, nil
		}
	default:
		return false, &UnsupportedTypeError{Left: fact, Right: value}
	}

	millis, ok := toFloat64(value)
	if !ok {
		return false, &UnsupportedTypeError{Left: fact, Right: value}
	}

	elapsed := ev.engine.now().Sub(factTime)
	return float64(elapsed.Milliseconds()) <= millis, nil
}
