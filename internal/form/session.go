// Package form implements the schema-driven form engine: an explicit
// session state object, per-kind field rendering, repeating-row tables,
// and assembly of session state into persistence-ready records.
package form

import (
	"strings"

	"github.com/ghg-data/inventory.report/internal/timeutil"
)

// Row is one table row: column name to value, plus <column>_unit entries
// for numeric columns with unit selectors.
type Row map[string]any

// Session holds the state of one data-entry session. All form progress is
// threaded through a Session value rather than ambient global state: every
// renderer takes the session, mutates it, and the caller owns its lifecycle.
// Sessions are single-editor; they are not safe for concurrent use.
type Session struct {
	clock  timeutil.Clock
	values map[string]any
}

// NewSession creates an empty session. A nil clock defaults to real time.
func NewSession(clock timeutil.Clock) *Session {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Session{clock: clock, values: make(map[string]any)}
}

// Get returns the value stored under a composite key.
func (s *Session) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value under a composite key.
func (s *Session) Set(key string, value any) {
	s.values[key] = value
}

// Lookup resolves a bare field name the way condition expressions see it:
// the subcategory-prefixed key first, then the unprefixed key (general
// fields such as data_year live unprefixed).
func (s *Session) Lookup(prefix, name string) (any, bool) {
	if v, ok := s.values[prefix+name]; ok {
		return v, true
	}
	v, ok := s.values[name]
	return v, ok
}

// Rows returns the row list stored under a table key, or nil.
func (s *Session) Rows(key string) []Row {
	rows, _ := s.values[key].([]Row)
	return rows
}

// LoadState seeds the session from a decoded JSON payload. Table row lists
// arrive as []any of objects and are converted to []Row; everything else is
// stored as-is under its composite key.
func (s *Session) LoadState(state map[string]any) {
	for key, value := range state {
		if rows, ok := asRows(value); ok {
			s.values[key] = rows
			continue
		}
		s.values[key] = value
	}
}

func asRows(v any) ([]Row, bool) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	rows := make([]Row, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		rows[i] = Row(m)
	}
	return rows, true
}

// ClearPrefix removes all state under a subcategory prefix. Called after a
// successful subcategory submission.
func (s *Session) ClearPrefix(prefix string) {
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			delete(s.values, key)
		}
	}
}

// Clear empties the session entirely, ending the submission workflow.
func (s *Session) Clear() {
	s.values = make(map[string]any)
}

// Len reports how many composite keys the session holds.
func (s *Session) Len() int { return len(s.values) }

// FieldKey builds the composite key for a subcategory-scoped field.
func FieldKey(prefix, field string) string { return prefix + field }

// UnitKey builds the sibling key holding a field's chosen unit.
func UnitKey(fieldKey string) string { return fieldKey + "_unit" }

// TableKey builds the composite key holding a table's row list.
func TableKey(prefix, table string) string { return prefix + table + "_data" }

// Prefix derives the state-key prefix for a subcategory name.
func Prefix(subcategory string) string {
	if subcategory == "" {
		return ""
	}
	return subcategory + "_"
}
