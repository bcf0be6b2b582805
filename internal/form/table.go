package form

import (
	"fmt"

	"github.com/ghg-data/inventory.report/internal/schema"
)

// TableWidget describes a rendered repeating-row table: the column specs
// for the presentation layer and the current row contents.
type TableWidget struct {
	Name    string    `json:"name"`
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Columns []*Widget `json:"columns"`
	Rows    []Row     `json:"rows"`
}

// RenderTable maintains the row list for one table schema. If no rows exist
// yet it initialises a single empty row. Every numeric column with unit
// options tracks its own per-row unit, defaulting to the first option.
func RenderTable(t *schema.Table, sess *Session, prefix string) (*TableWidget, error) {
	key := TableKey(prefix, t.Name)

	rows := sess.Rows(key)
	if len(rows) == 0 {
		rows = []Row{{}}
	}

	// Read-back reconstructs every row against the column specs so edits
	// made out of band still come out well-formed.
	normalized := make([]Row, len(rows))
	for i, row := range rows {
		normalized[i] = normalizeRow(row, t.Columns)
	}
	sess.Set(key, normalized)

	columns := make([]*Widget, len(t.Columns))
	for i := range t.Columns {
		col := &t.Columns[i]
		columns[i] = &Widget{
			Name:    col.Name,
			Label:   col.Label,
			Kind:    col.Kind,
			Options: col.Options,
			Min:     col.Validation.Min,
			Max:     col.Validation.Max,
		}
		if col.HasUnitSelector() {
			columns[i].UnitOptions = col.UnitOptions
			columns[i].UnitKey = UnitKey(col.Name)
		}
	}

	return &TableWidget{
		Name:    t.Name,
		Key:     key,
		Label:   t.Label,
		Columns: columns,
		Rows:    normalized,
	}, nil
}

// AppendRow adds one blank row, one per explicit user action.
func AppendRow(t *schema.Table, sess *Session, prefix string) {
	key := TableKey(prefix, t.Name)
	rows := sess.Rows(key)
	if len(rows) == 0 {
		rows = []Row{{}}
	}
	blank := Row{}
	for i := range t.Columns {
		blank[t.Columns[i].Name] = ""
	}
	sess.Set(key, append(rows, blank))
}

// SetCell edits one cell in place. Unit columns are addressed with the
// <column>_unit key.
func SetCell(t *schema.Table, sess *Session, prefix string, rowIndex int, column string, value any) error {
	key := TableKey(prefix, t.Name)
	rows := sess.Rows(key)
	if rowIndex < 0 || rowIndex >= len(rows) {
		return fmt.Errorf("table %q: row %d out of range (have %d rows)", t.Name, rowIndex, len(rows))
	}
	rows[rowIndex][column] = value
	sess.Set(key, rows)
	return nil
}

// normalizeRow copies a row, attaching the unit key for every numeric
// column with unit options (defaulting to the first option if unset).
func normalizeRow(row Row, columns []schema.Field) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	for i := range columns {
		col := &columns[i]
		if !col.HasUnitSelector() {
			continue
		}
		unitKey := UnitKey(col.Name)
		unit := asString(out[unitKey])
		if !containsString(col.UnitOptions, unit) {
			out[unitKey] = col.UnitOptions[0]
		}
	}
	return out
}
