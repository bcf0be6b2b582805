// Package schema loads and validates the declarative YAML form documents
// that drive data-entry for each reporting subcategory. A form document
// describes ordinary fields, repeating-row tables and fields rendered after
// the tables; an index document maps subcategory names to form files.
//
// All structural problems (unknown field kind, select without options,
// condition referencing a later field) are caught by Validate before any
// rendering begins, so renderers can assume a well-formed schema.
package schema

import (
	"fmt"

	"github.com/ghg-data/inventory.report/internal/condition"
)

// Kind identifies how a field is rendered and which schema attributes are
// meaningful for it. The set is closed: unmarshalling rejects anything else.
type Kind string

const (
	KindText        Kind = "text"
	KindNumber      Kind = "number"
	KindDate        Kind = "date"
	KindSelect      Kind = "select"
	KindRadio       Kind = "radio"
	KindMultiSelect Kind = "multiselect"
	KindHidden      Kind = "hidden"
)

// UnmarshalYAML validates the kind so malformed documents fail at load time.
func (k *Kind) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch Kind(s) {
	case KindText, KindNumber, KindDate, KindSelect, KindRadio, KindMultiSelect, KindHidden:
		*k = Kind(s)
		return nil
	default:
		return fmt.Errorf("unknown field kind %q", s)
	}
}

// Validation holds optional numeric bounds for number fields.
type Validation struct {
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

// Field describes one form input. Which attributes are meaningful depends
// on Kind: Options for select/radio/multiselect, UnitOptions/RequiredUnit
// and Validation for number, Value for hidden.
type Field struct {
	Name         string     `yaml:"name"`
	Kind         Kind       `yaml:"type"`
	Label        string     `yaml:"label"`
	Default      any        `yaml:"default"`
	Value        any        `yaml:"value"`
	Required     bool       `yaml:"required"`
	Unit         string     `yaml:"unit"`
	UnitOptions  []string   `yaml:"unit_options"`
	RequiredUnit string     `yaml:"required_unit"`
	Options      []string   `yaml:"options"`
	Validation   Validation `yaml:"validation"`
	Condition    string     `yaml:"condition"`

	cond *condition.Expr
}

// Cond returns the compiled visibility condition, or nil if the field is
// unconditional. Only valid after the owning FormConfig has been validated.
func (f *Field) Cond() *condition.Expr { return f.cond }

// HasUnitSelector reports whether the field carries a per-value unit choice.
func (f *Field) HasUnitSelector() bool {
	return f.Kind == KindNumber && len(f.UnitOptions) > 0
}

// TargetUnit returns the unit a persisted value must be expressed in:
// required_unit if declared, else the first unit option.
func (f *Field) TargetUnit() string {
	if f.RequiredUnit != "" {
		return f.RequiredUnit
	}
	if len(f.UnitOptions) > 0 {
		return f.UnitOptions[0]
	}
	return ""
}

// Table describes a dynamic list of rows, each row one value per column.
// Columns reuse Field but only kind, unit and validation attributes apply.
type Table struct {
	Name    string  `yaml:"name"`
	Label   string  `yaml:"label"`
	Columns []Field `yaml:"columns"`
}

// FormConfig is one subcategory's complete form description.
type FormConfig struct {
	Fields            []Field `yaml:"fields"`
	Tables            []Table `yaml:"tables"`
	FieldsAfterTables []Field `yaml:"fields_after_tables"`
}

// AllFields returns the non-table fields in render order.
func (c *FormConfig) AllFields() []*Field {
	out := make([]*Field, 0, len(c.Fields)+len(c.FieldsAfterTables))
	for i := range c.Fields {
		out = append(out, &c.Fields[i])
	}
	for i := range c.FieldsAfterTables {
		out = append(out, &c.FieldsAfterTables[i])
	}
	return out
}

// RequiredFieldNames returns the names of fields marked required.
func (c *FormConfig) RequiredFieldNames() []string {
	var names []string
	for _, f := range c.AllFields() {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Error is a schema validation failure tied to a specific field.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema error: %s", e.Reason)
	}
	return fmt.Sprintf("schema error: field %q: %s", e.Field, e.Reason)
}

// Validate checks structural invariants and compiles conditions. It must be
// called (and succeed) before the config is handed to a renderer.
func (c *FormConfig) Validate() error {
	seen := map[string]bool{}

	validateField := func(f *Field, inTable bool) error {
		if f.Name == "" {
			return &Error{Reason: "field with empty name"}
		}
		switch f.Kind {
		case KindSelect, KindRadio, KindMultiSelect:
			if len(f.Options) == 0 {
				return &Error{Field: f.Name, Reason: fmt.Sprintf("%s field requires options", f.Kind)}
			}
		case KindNumber:
			if f.RequiredUnit != "" && len(f.UnitOptions) > 0 && !containsString(f.UnitOptions, f.RequiredUnit) {
				return &Error{Field: f.Name, Reason: fmt.Sprintf("required_unit %q not in unit_options", f.RequiredUnit)}
			}
			if f.Validation.Min != nil && f.Validation.Max != nil && *f.Validation.Min > *f.Validation.Max {
				return &Error{Field: f.Name, Reason: "validation min exceeds max"}
			}
		}
		if f.Condition != "" {
			if inTable {
				return &Error{Field: f.Name, Reason: "table columns cannot carry conditions"}
			}
			expr, err := condition.Parse(f.Condition)
			if err != nil {
				return &Error{Field: f.Name, Reason: err.Error()}
			}
			// Conditions may only look backwards at fields already rendered.
			for _, ref := range expr.Fields() {
				if !seen[ref] {
					return &Error{Field: f.Name, Reason: fmt.Sprintf("condition references %q before it is rendered", ref)}
				}
			}
			f.cond = expr
		}
		return nil
	}

	for i := range c.Fields {
		if err := validateField(&c.Fields[i], false); err != nil {
			return err
		}
		seen[c.Fields[i].Name] = true
	}
	for ti := range c.Tables {
		t := &c.Tables[ti]
		if t.Name == "" {
			return &Error{Reason: "table with empty name"}
		}
		if len(t.Columns) == 0 {
			return &Error{Field: t.Name, Reason: "table requires at least one column"}
		}
		for ci := range t.Columns {
			if err := validateField(&t.Columns[ci], true); err != nil {
				return err
			}
		}
	}
	for i := range c.FieldsAfterTables {
		if err := validateField(&c.FieldsAfterTables[i], false); err != nil {
			return err
		}
		seen[c.FieldsAfterTables[i].Name] = true
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
