package form

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ghg-data/inventory.report/internal/schema"
)

// Widget describes one rendered input for the presentation layer: its kind,
// the value bound into the session, and the constraints the UI should show.
// The engine is headless; a widget is the whole render contract.
type Widget struct {
	Name  string      `json:"name"`
	Key   string      `json:"key"`
	Label string      `json:"label"`
	Kind  schema.Kind `json:"kind"`
	Value any         `json:"value"`

	Options []string `json:"options,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`

	// Unit is a display-only unit annotation (no selector).
	Unit string `json:"unit,omitempty"`
	// UnitOptions, UnitKey and SelectedUnit describe the unit selector
	// rendered beside number fields that declare unit_options.
	UnitOptions  []string `json:"unit_options,omitempty"`
	UnitKey      string   `json:"unit_key,omitempty"`
	SelectedUnit string   `json:"selected_unit,omitempty"`
}

// RenderField interprets one field schema entry against the session,
// binding the field's resolved value into state and returning the widget
// to display. A field whose condition evaluates false is skipped: the
// returned widget is nil and the session is not touched.
func RenderField(f *schema.Field, sess *Session, prefix string) (*Widget, error) {
	visible, err := conditionVisible(f, sess, prefix)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, nil
	}

	key := FieldKey(prefix, f.Name)
	w := &Widget{
		Name:    f.Name,
		Key:     key,
		Label:   f.Label,
		Kind:    f.Kind,
		Options: f.Options,
		Unit:    f.Unit,
		Min:     f.Validation.Min,
		Max:     f.Validation.Max,
	}

	current, bound := sess.Get(key)
	if !bound {
		current = f.Default
	}

	switch f.Kind {
	case schema.KindText:
		w.Value = asString(current)

	case schema.KindNumber:
		v := asFloat(current)
		// The min bound is a display clamp, not a validation gate.
		if f.Validation.Min != nil && v < *f.Validation.Min {
			v = *f.Validation.Min
		}
		w.Value = v
		if f.HasUnitSelector() {
			unitKey := UnitKey(key)
			unit, ok := sess.Get(unitKey)
			selected := asString(unit)
			if !ok || !containsString(f.UnitOptions, selected) {
				selected = f.UnitOptions[0]
			}
			w.UnitOptions = f.UnitOptions
			w.UnitKey = unitKey
			w.SelectedUnit = selected
			sess.Set(unitKey, selected)
		}

	case schema.KindDate:
		w.Value = asDate(current, sess.clock.Now())

	case schema.KindSelect, schema.KindRadio:
		// Stored value outside the options list falls back to the first
		// option, and the fallback is persisted. Recovery, not an error.
		v := asString(current)
		if !containsString(f.Options, v) {
			v = f.Options[0]
		}
		w.Value = v

	case schema.KindMultiSelect:
		w.Value = filterToOptions(current, f.Options)

	case schema.KindHidden:
		w.Value = f.Value

	default:
		return nil, fmt.Errorf("field %q: unhandled kind %q", f.Name, f.Kind)
	}

	sess.Set(key, w.Value)
	return w, nil
}

// conditionVisible evaluates a field's visibility condition against the
// session. Unconditional fields are always visible.
func conditionVisible(f *schema.Field, sess *Session, prefix string) (bool, error) {
	cond := f.Cond()
	if cond == nil {
		return true, nil
	}
	vars := map[string]any{}
	for _, name := range cond.Fields() {
		if v, ok := sess.Lookup(prefix, name); ok {
			vars[name] = v
		}
	}
	visible, err := cond.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("field %q: %w", f.Name, err)
	}
	return visible, nil
}

// RenderFields renders a slice of fields in order, dropping the ones whose
// conditions hide them.
func RenderFields(fields []*schema.Field, sess *Session, prefix string) ([]*Widget, error) {
	var out []*Widget
	for _, f := range fields {
		w, err := RenderField(f, sess, prefix)
		if err != nil {
			return nil, err
		}
		if w != nil {
			out = append(out, w)
		}
	}
	return out, nil
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		if x == "" {
			return 0.0
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}

// asDate accepts a native time, an ISO "2006-01-02" string from prior
// state, or falls back to today.
func asDate(v any, today time.Time) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case string:
		if x != "" {
			if t, err := time.Parse("2006-01-02", x); err == nil {
				return t
			}
		}
	}
	return today
}

func filterToOptions(v any, options []string) []string {
	var candidates []string
	switch x := v.(type) {
	case nil:
		return []string{}
	case []string:
		candidates = x
	case []any:
		for _, item := range x {
			candidates = append(candidates, asString(item))
		}
	case string:
		if x == "" {
			return []string{}
		}
		candidates = []string{x}
	default:
		candidates = []string{asString(x)}
	}
	out := []string{}
	for _, c := range candidates {
		if containsString(options, c) {
			out = append(out, c)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
