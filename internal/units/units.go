// Package units provides shared constants and conversion for mass units
// used by activity-data forms. Records store masses in the unit the form
// schema declares as required_unit; conversion happens at submission time.
package units

import (
	"errors"
	"fmt"
	"strconv"
)

// Unit constants
const (
	Kilograms       = "kg"
	Tonnes          = "tonnes"
	Pounds          = "lb"
	KilogramsCarbon = "kg C"
	TonnesCarbon    = "tonnes C"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Kilograms, Tonnes, Pounds, KilogramsCarbon, TonnesCarbon}

// ErrUnsupported reports a unit pair with no known conversion. Convert
// returns the original value alongside it so callers can warn without
// blocking a submission.
var ErrUnsupported = errors.New("unsupported unit conversion")

// ErrNotNumeric reports a value that could not be interpreted as a number.
var ErrNotNumeric = errors.New("value is not numeric")

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// Convert converts a mass value between units. Converting a unit to itself
// is the identity. An unrecognised pair returns the value unchanged together
// with ErrUnsupported.
func Convert(value float64, from, to string) (float64, error) {
	if from == to {
		return value, nil
	}
	switch {
	case from == Kilograms && to == Tonnes:
		return value / 1000, nil
	case from == Tonnes && to == Kilograms:
		return value * 1000, nil
	case from == Pounds && to == Tonnes:
		return value * 0.000453592, nil
	case from == Tonnes && to == Pounds:
		return value / 0.000453592, nil
	case from == Pounds && to == Kilograms:
		return value * 0.453592, nil
	case from == Kilograms && to == Pounds:
		return value * 2.20462, nil
	case from == KilogramsCarbon && to == TonnesCarbon:
		return value / 1000, nil
	case from == TonnesCarbon && to == KilogramsCarbon:
		return value * 1000, nil
	default:
		return value, fmt.Errorf("%w: %s to %s", ErrUnsupported, from, to)
	}
}

// ConvertValue applies Convert to a raw form value. Empty or nil values
// convert to nil. Non-numeric values return ErrNotNumeric.
func ConvertValue(value any, from, to string) (any, error) {
	if from == to {
		return value, nil
	}
	if value == nil || value == "" {
		return nil, nil
	}
	f, ok := toFloat(value)
	if !ok {
		return nil, fmt.Errorf("%w: %v (%s to %s)", ErrNotNumeric, value, from, to)
	}
	return Convert(f, from, to)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
