package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ghg-data/inventory.report/internal/inventory"
	"github.com/ghg-data/inventory.report/internal/monitoring"
	"github.com/ghg-data/inventory.report/internal/schema"
	"github.com/ghg-data/inventory.report/internal/store"
	"github.com/ghg-data/inventory.report/internal/timeutil"
	"github.com/ghg-data/inventory.report/internal/units"
)

// GeneralFields are the cross-subcategory provider metadata fields copied
// verbatim into every record when present in the session.
var GeneralFields = []string{
	"name", "email", "data_provider", "provider_contact_person", "position",
	"contact_email", "contact_phone", "data_request_date", "data_supply_date",
}

// DefaultBaselineYear is used when a session carries no data_year.
const DefaultBaselineYear = 2023

// Assembler flattens session state into persistence-ready records.
type Assembler struct {
	Clock        timeutil.Clock
	BaselineYear int
}

// NewAssembler returns an assembler with the default baseline year. A nil
// clock defaults to real time.
func NewAssembler(clock timeutil.Clock) *Assembler {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Assembler{Clock: clock, BaselineYear: DefaultBaselineYear}
}

// Assemble transforms the session state for one subcategory into one or
// more records. Subcategories with tables produce one record per row;
// subcategories without tables produce a single flat record. Every numeric
// field declaring a required unit is converted into it before the record
// leaves the assembler.
func (a *Assembler) Assemble(sess *Session, cfg *schema.FormConfig, sub *inventory.Subcategory) ([]store.Record, error) {
	prefix := Prefix(sub.Name)

	base := store.Record{
		store.KeyDataYear:       a.dataYear(sess),
		store.KeySubcategory:    sub.Name,
		store.KeyStatus:         store.StatusPending,
		store.KeySubmissionDate: a.Clock.Now().Format(time.RFC3339),
	}

	for _, name := range GeneralFields {
		if v, ok := sess.Get(name); ok {
			base[name] = normalizeScalar(v)
		}
	}

	for _, f := range cfg.AllFields() {
		// Re-check visibility here: rendering skips hidden fields without
		// clearing state, so a stale value can still sit in the session.
		visible, err := conditionVisible(f, sess, prefix)
		if err != nil {
			return nil, err
		}
		if !visible {
			continue
		}
		key := FieldKey(prefix, f.Name)
		v, ok := sess.Get(key)
		if !ok {
			continue
		}
		base[f.Name] = a.convertToRequired(f, v, asString(mustGet(sess, UnitKey(key))))
	}

	if len(cfg.Tables) == 0 {
		return []store.Record{base}, nil
	}

	var records []store.Record
	for ti := range cfg.Tables {
		t := &cfg.Tables[ti]
		for _, row := range sess.Rows(TableKey(prefix, t.Name)) {
			rec := base.Clone()
			for ci := range t.Columns {
				col := &t.Columns[ci]
				v, ok := row[col.Name]
				if !ok {
					continue
				}
				rec[col.Name] = a.convertToRequired(col, v, asString(row[UnitKey(col.Name)]))
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// convertToRequired applies the required-unit conversion rule to one value.
// An unsupported unit pair keeps the original value with a warning; a
// non-numeric value converts to null. Neither blocks the submission.
func (a *Assembler) convertToRequired(f *schema.Field, value any, currentUnit string) any {
	if !f.HasUnitSelector() {
		return value
	}
	if currentUnit == "" {
		currentUnit = f.UnitOptions[0]
	}
	target := f.TargetUnit()
	if currentUnit == target {
		return value
	}
	converted, err := units.ConvertValue(value, currentUnit, target)
	switch {
	case errors.Is(err, units.ErrUnsupported):
		monitoring.Logf("field %s: %v; keeping original value", f.Name, err)
		return value
	case errors.Is(err, units.ErrNotNumeric):
		monitoring.Logf("field %s: %v; storing null", f.Name, err)
		return nil
	case err != nil:
		monitoring.Logf("field %s: conversion failed: %v", f.Name, err)
		return nil
	}
	return converted
}

// dataYear normalizes the session's data_year: scalar or single-element
// sequence, defaulting to the baseline year when absent or empty.
func (a *Assembler) dataYear(sess *Session) int {
	baseline := a.BaselineYear
	if baseline == 0 {
		baseline = DefaultBaselineYear
	}
	v, ok := sess.Get(store.KeyDataYear)
	if !ok {
		return baseline
	}
	v = normalizeScalar(v)
	switch x := v.(type) {
	case nil:
		return baseline
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case string:
		if x == "" {
			return baseline
		}
		if y, err := strconv.Atoi(x); err == nil {
			return y
		}
		return baseline
	default:
		return baseline
	}
}

// normalizeScalar collapses single-element sequences and converts dates to
// ISO-8601 strings.
func normalizeScalar(v any) any {
	switch x := v.(type) {
	case []any:
		if len(x) == 0 {
			return nil
		}
		return normalizeScalar(x[0])
	case []string:
		if len(x) == 0 {
			return nil
		}
		return x[0]
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return v
	}
}

func mustGet(sess *Session, key string) any {
	v, _ := sess.Get(key)
	return v
}

// PersistenceError reports a failed store call during submission. Inserted
// carries how many records had already been persisted before the failure;
// there is no rollback of those rows, so callers must surface the count.
type PersistenceError struct {
	Collection string
	Inserted   int
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to insert into %s after %d successful inserts: %v", e.Collection, e.Inserted, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Submit persists assembled records to the subcategory's pending collection
// in order. The first failed insert aborts the remainder; the returned
// count reports how many records made it in.
func (a *Assembler) Submit(ctx context.Context, st store.Store, collection string, records []store.Record) (int, error) {
	for i, rec := range records {
		if _, err := st.Insert(ctx, collection, rec); err != nil {
			return i, &PersistenceError{Collection: collection, Inserted: i, Err: err}
		}
	}
	return len(records), nil
}
