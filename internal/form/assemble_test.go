package form

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ghg-data/inventory.report/internal/inventory"
	"github.com/ghg-data/inventory.report/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records inserts and can fail after a set number of them.
type fakeStore struct {
	inserted  map[string][]store.Record
	failAfter int // -1 never fails
}

func newFakeStore(failAfter int) *fakeStore {
	return &fakeStore{inserted: map[string][]store.Record{}, failAfter: failAfter}
}

func (f *fakeStore) Insert(_ context.Context, collection string, rec store.Record) (store.Record, error) {
	total := 0
	for _, recs := range f.inserted {
		total += len(recs)
	}
	if f.failAfter >= 0 && total >= f.failAfter {
		return nil, fmt.Errorf("store unavailable")
	}
	f.inserted[collection] = append(f.inserted[collection], rec)
	return rec, nil
}

func (f *fakeStore) Select(context.Context, string, store.Filter) ([]store.Record, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeStore) Update(context.Context, string, store.Record, store.Filter) (int64, error) {
	return 0, errors.New("not implemented")
}
func (f *fakeStore) Delete(context.Context, string, store.Filter) (int64, error) {
	return 0, errors.New("not implemented")
}
func (f *fakeStore) Promote(context.Context, string, string, string, []string) error {
	return errors.New("not implemented")
}

var glassSub = inventory.Subcategory{
	Name:              "2A3_Glass_Production",
	Sector:            inventory.SectorIPPU,
	PendingCollection: "ippu_2a3_validation",
}

func TestAssembleFlatRecordWithUnitConversion(t *testing.T) {
	cfg := mustForm(t, `
fields:
  - name: mass_glass_produced_tonnes
    type: number
    label: Mass of Glass Produced
    unit_options: [kg, tonnes]
    required_unit: tonnes
`)
	sess := newTestSession()
	sess.Set("data_year", []any{2022})
	sess.Set("data_provider", "National Glassworks")
	sess.Set("data_supply_date", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	sess.Set("2A3_Glass_Production_mass_glass_produced_tonnes", 5000.0)
	sess.Set("2A3_Glass_Production_mass_glass_produced_tonnes_unit", "kg")

	a := NewAssembler(sess.clock)
	records, err := a.Assemble(sess, cfg, &glassSub)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, 5.0, rec["mass_glass_produced_tonnes"], "5000 kg must persist as 5.0 tonnes")
	assert.Equal(t, 2022, rec[store.KeyDataYear], "single-element sequence collapses to scalar")
	assert.Equal(t, "2A3_Glass_Production", rec[store.KeySubcategory])
	assert.Equal(t, store.StatusPending, rec[store.KeyStatus])
	assert.Equal(t, testDay.Format(time.RFC3339), rec[store.KeySubmissionDate])
	assert.Equal(t, "National Glassworks", rec["data_provider"])
	assert.Equal(t, "2024-06-01", rec["data_supply_date"], "dates persist as ISO strings")
}

func TestAssembleAlreadyInRequiredUnit(t *testing.T) {
	cfg := mustForm(t, `
fields:
  - name: mass_glass_produced_tonnes
    type: number
    unit_options: [kg, tonnes]
    required_unit: tonnes
`)
	sess := newTestSession()
	sess.Set("2A3_Glass_Production_mass_glass_produced_tonnes", 7.5)
	sess.Set("2A3_Glass_Production_mass_glass_produced_tonnes_unit", "tonnes")

	records, err := NewAssembler(sess.clock).Assemble(sess, cfg, &glassSub)
	require.NoError(t, err)
	assert.Equal(t, 7.5, records[0]["mass_glass_produced_tonnes"])
}

func TestAssembleDataYearDefaults(t *testing.T) {
	cfg := mustForm(t, `fields: [{name: note, type: text}]`)
	a := NewAssembler(newTestSession().clock)

	tests := []struct {
		name  string
		value any
		set   bool
		want  int
	}{
		{"absent", nil, false, DefaultBaselineYear},
		{"empty string", "", true, DefaultBaselineYear},
		{"empty list", []any{}, true, DefaultBaselineYear},
		{"scalar int", 2021, true, 2021},
		{"scalar string", "2020", true, 2020},
		{"single-element list", []any{2019}, true, 2019},
		{"float from a number input", 2018.0, true, 2018},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newTestSession()
			if tt.set {
				sess.Set("data_year", tt.value)
			}
			records, err := a.Assemble(sess, cfg, &glassSub)
			require.NoError(t, err)
			assert.Equal(t, tt.want, records[0][store.KeyDataYear])
		})
	}
}

func TestAssembleSkippedConditionalFieldAbsent(t *testing.T) {
	cfg := mustForm(t, `
fields:
  - name: has_gas_recovery
    type: radio
    options: ["No", "Yes"]
  - name: gas_recovery_volume
    type: number
    condition: has_gas_recovery == 'Yes'
`)
	sess := newTestSession()
	prefix := Prefix(glassSub.Name)
	_, err := RenderFields(cfg.AllFields(), sess, prefix)
	require.NoError(t, err)

	records, err := NewAssembler(sess.clock).Assemble(sess, cfg, &glassSub)
	require.NoError(t, err)
	_, present := records[0]["gas_recovery_volume"]
	assert.False(t, present, "condition-guarded field with false condition must not reach the record")
	assert.Equal(t, "No", records[0]["has_gas_recovery"])
}

func TestAssembleDropsStaleConditionalValue(t *testing.T) {
	cfg := mustForm(t, `
fields:
  - name: has_gas_recovery
    type: radio
    options: ["No", "Yes"]
  - name: gas_recovery_volume
    type: number
    condition: has_gas_recovery == 'Yes'
`)
	sess := newTestSession()
	prefix := Prefix(glassSub.Name)

	// Client-supplied state can carry a value for a field its own answers
	// hide; rendering skips the field but leaves the value in the session.
	sess.LoadState(map[string]any{
		prefix + "has_gas_recovery":    "No",
		prefix + "gas_recovery_volume": 12.5,
	})
	_, err := RenderFields(cfg.AllFields(), sess, prefix)
	require.NoError(t, err)
	_, still := sess.Get(prefix + "gas_recovery_volume")
	require.True(t, still, "precondition: the stale value survives rendering")

	records, err := NewAssembler(sess.clock).Assemble(sess, cfg, &glassSub)
	require.NoError(t, err)
	_, present := records[0]["gas_recovery_volume"]
	assert.False(t, present, "hidden field's stale value must not reach the record")
	assert.Equal(t, "No", records[0]["has_gas_recovery"])
}

func TestAssembleTableRowsFanOut(t *testing.T) {
	cfg := mustForm(t, disposalTable)
	tbl := &cfg.Tables[0]
	sess := newTestSession()
	sess.Set("data_year", 2022)
	sess.Set("data_provider", "City Waste Dept")

	prefix := Prefix(glassSub.Name)
	_, err := RenderTable(tbl, sess, prefix)
	require.NoError(t, err)
	AppendRow(tbl, sess, prefix)
	require.NoError(t, SetCell(tbl, sess, prefix, 0, "site_name", "North Landfill"))
	require.NoError(t, SetCell(tbl, sess, prefix, 0, "mass_received_tonnes", 1200.0))
	require.NoError(t, SetCell(tbl, sess, prefix, 0, "mass_received_tonnes_unit", "kg"))
	require.NoError(t, SetCell(tbl, sess, prefix, 1, "site_name", "South Landfill"))
	require.NoError(t, SetCell(tbl, sess, prefix, 1, "mass_received_tonnes", 3.4))
	require.NoError(t, SetCell(tbl, sess, prefix, 1, "mass_received_tonnes_unit", "tonnes"))

	records, err := NewAssembler(sess.clock).Assemble(sess, cfg, &glassSub)
	require.NoError(t, err)
	require.Len(t, records, 2, "one table with two rows produces exactly two records")

	for _, rec := range records {
		assert.Equal(t, 2022, rec[store.KeyDataYear])
		assert.Equal(t, "City Waste Dept", rec["data_provider"])
		assert.Equal(t, store.StatusPending, rec[store.KeyStatus])
	}
	assert.Equal(t, "North Landfill", records[0]["site_name"])
	assert.Equal(t, 1.2, records[0]["mass_received_tonnes"], "per-row kg converts to tonnes")
	assert.Equal(t, "South Landfill", records[1]["site_name"])
	assert.Equal(t, 3.4, records[1]["mass_received_tonnes"])
}

func TestAssembleNonNumericConversionStoresNull(t *testing.T) {
	cfg := mustForm(t, `
fields:
  - name: mass
    type: number
    unit_options: [kg, tonnes]
    required_unit: tonnes
`)
	sess := newTestSession()
	prefix := Prefix(glassSub.Name)
	sess.Set(prefix+"mass", "not a number")
	sess.Set(prefix+"mass_unit", "kg")

	records, err := NewAssembler(sess.clock).Assemble(sess, cfg, &glassSub)
	require.NoError(t, err)
	assert.Nil(t, records[0]["mass"])
}

func TestSubmitAbortsOnFirstFailure(t *testing.T) {
	records := []store.Record{
		{"site_name": "A"}, {"site_name": "B"}, {"site_name": "C"},
	}
	st := newFakeStore(2)

	a := NewAssembler(newTestSession().clock)
	inserted, err := a.Submit(context.Background(), st, "waste_4a1a_validation", records)

	require.Error(t, err)
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Inserted, "error must report how many rows were already persisted")
	assert.Equal(t, 2, inserted)
	assert.Len(t, st.inserted["waste_4a1a_validation"], 2, "no rollback of prior inserts")
}

func TestSubmitAllRecords(t *testing.T) {
	st := newFakeStore(-1)
	a := NewAssembler(newTestSession().clock)
	inserted, err := a.Submit(context.Background(), st, "c", []store.Record{{"x": 1}, {"x": 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
}

func TestSessionClearPrefix(t *testing.T) {
	sess := newTestSession()
	sess.Set("2A3_Glass_Production_mass", 1.0)
	sess.Set("2A3_Glass_Production_mass_unit", "kg")
	sess.Set("data_provider", "x")

	sess.ClearPrefix(Prefix("2A3_Glass_Production"))
	_, ok := sess.Get("2A3_Glass_Production_mass")
	assert.False(t, ok)
	_, ok = sess.Get("data_provider")
	assert.True(t, ok, "general fields survive a per-subcategory clear")

	sess.Clear()
	assert.Equal(t, 0, sess.Len())
}
