package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghg-data/inventory.report/internal/db"
	"github.com/ghg-data/inventory.report/internal/inventory"
	"github.com/ghg-data/inventory.report/internal/schema"
	"github.com/ghg-data/inventory.report/internal/store"
	"github.com/ghg-data/inventory.report/internal/timeutil"
)

var serverNow = timeutil.FixedClock{Time: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}

const testIndexYAML = `forms:
  - name: 2A3_Glass_Production
    path: glass.yaml
`

const testGeneralYAML = `fields:
  - name: provider_contact_person
    type: text
    label: Contact Person
  - name: contact_email
    type: text
    label: Contact Email
  - name: contact_phone
    type: text
    label: Contact Phone
  - name: data_year
    type: multiselect
    label: Data Year
    options: ["2021", "2022", "2023"]
`

const testGlassYAML = `fields:
  - name: mass_glass_produced_tonnes
    type: number
    label: Mass of Glass Produced
    unit_options: [kg, tonnes]
    required_unit: tonnes
    validation:
      min: 0
  - name: has_co2_capture
    type: radio
    label: CO2 Capture in Place
    options: ["No", "Yes"]
  - name: co2_capture_volume_tonnes
    type: number
    label: CO2 Capture Volume
    condition: has_co2_capture == 'Yes'
fields_after_tables:
  - name: notes
    type: text
    label: Notes
`

func writeTestForms(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		"index.yaml":   testIndexYAML,
		"general.yaml": testGeneralYAML,
		"glass.yaml":   testGlassYAML,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func glassTestRegistry() *inventory.Registry {
	return inventory.NewRegistry([]inventory.Subcategory{{
		Name:                "2A3_Glass_Production",
		DisplayName:         "2A3 - Glass Production",
		Sector:              inventory.SectorIPPU,
		PendingCollection:   "ippu_2a3_validation",
		ValidatedCollection: "ippu_2a3_validated",
		FormFile:            "glass.yaml",
		KeyFields:           []string{"mass_glass_produced_tonnes"},
		Activities: []inventory.Activity{
			{Label: "Glass Production", Column: "mass_glass_produced_tonnes", Units: "tonnes", Notes: "Total mass of glass produced", Aggregation: inventory.AggSum},
		},
	}})
}

func newTestServer(t *testing.T) (*Server, store.Store) {
	return newTestServerWith(t, 0, 0)
}

func newTestServerWith(t *testing.T, baselineYear, collationSpan int) (*Server, store.Store) {
	t.Helper()
	d, err := db.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	forms, err := schema.OpenDir(writeTestForms(t))
	require.NoError(t, err)

	return NewServer(d, glassTestRegistry(), forms, serverNow, baselineYear, collationSpan), d
}

func doRequest(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func TestShowFormRendersGeneralAndSubcategoryFields(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/forms/2A3_Glass_Production", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[map[string]json.RawMessage](t, rec)
	var name string
	require.NoError(t, json.Unmarshal(resp["subcategory"], &name))
	assert.Equal(t, "2A3_Glass_Production", name)

	var general, fields []map[string]any
	require.NoError(t, json.Unmarshal(resp["general"], &general))
	require.NoError(t, json.Unmarshal(resp["fields"], &fields))
	assert.Len(t, general, 4)

	// The conditional capture-volume field is hidden while the radio sits
	// on its default answer, so only two widgets come back.
	var names []string
	for _, f := range fields {
		names = append(names, f["name"].(string))
	}
	assert.Equal(t, []string{"mass_glass_produced_tonnes", "has_co2_capture", "notes"}, names)
}

func TestShowFormUnknownSubcategory(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/forms/9Z_Nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitPersistsPendingRecord(t *testing.T) {
	s, st := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/submit", map[string]any{
		"subcategory": "2A3_Glass_Production",
		"state": map[string]any{
			"provider_contact_person":                       "Ana Seru",
			"contact_email":                                 "ana@example.org",
			"data_year":                                     []any{2022},
			"2A3_Glass_Production_mass_glass_produced_tonnes":      5000,
			"2A3_Glass_Production_mass_glass_produced_tonnes_unit": "kg",
			"2A3_Glass_Production_has_co2_capture":                 "No",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeBody[submitResponse](t, rec)
	assert.Equal(t, "ippu_2a3_validation", resp.Collection)
	assert.Equal(t, 1, resp.Inserted)

	stored, err := st.Select(context.Background(), "ippu_2a3_validation", nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, store.StatusPending, stored[0][store.KeyStatus])
	assert.Equal(t, 2022, stored[0][store.KeyDataYear])
	assert.Equal(t, 5.0, stored[0]["mass_glass_produced_tonnes"])
	assert.Equal(t, "Ana Seru", stored[0]["provider_contact_person"])
}

func TestSubmitUnknownSubcategory(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/submit", map[string]any{
		"subcategory": "9Z_Nope",
		"state":       map[string]any{},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitRejectsInvalidBody(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/submit", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func seedPendingRecord(t *testing.T, st store.Store, fields store.Record) store.Record {
	t.Helper()
	rec := store.Record{
		store.KeyStatus:         store.StatusPending,
		store.KeyDataYear:       2022,
		store.KeySubmissionDate: serverNow.Now().Format(time.RFC3339),
	}
	for k, v := range fields {
		rec[k] = v
	}
	out, err := st.Insert(context.Background(), "ippu_2a3_validation", rec)
	require.NoError(t, err)
	return out
}

func TestListPendingBySubcategory(t *testing.T) {
	s, st := newTestServer(t)
	seedPendingRecord(t, st, store.Record{"mass_glass_produced_tonnes": 12.5})

	rec := doRequest(t, s, http.MethodGet, "/api/pending?subcategory=2A3_Glass_Production", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[map[string][]store.Record](t, rec)
	require.Len(t, resp["2A3_Glass_Production"], 1)
	assert.Equal(t, 12.5, resp["2A3_Glass_Production"][0]["mass_glass_produced_tonnes"])
}

func TestListPendingAllSubcategories(t *testing.T) {
	s, st := newTestServer(t)
	seedPendingRecord(t, st, store.Record{"mass_glass_produced_tonnes": 3.0})

	rec := doRequest(t, s, http.MethodGet, "/api/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[map[string][]store.Record](t, rec)
	require.Contains(t, resp, "2A3_Glass_Production")
	assert.Len(t, resp["2A3_Glass_Production"], 1)
}

func TestListPendingUnknownSubcategoryIs404(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/pending?subcategory=9Z_Nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPromoteMovesRecordToValidated(t *testing.T) {
	s, st := newTestServer(t)
	seeded := seedPendingRecord(t, st, store.Record{"mass_glass_produced_tonnes": 42.0})
	id := seeded[store.KeyID].(string)

	rec := doRequest(t, s, http.MethodPost, "/api/promote", map[string]any{
		"subcategory": "2A3_Glass_Production",
		"record_id":   id,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	pending, err := st.Select(context.Background(), "ippu_2a3_validation", nil)
	require.NoError(t, err)
	assert.Empty(t, pending)

	validated, err := st.Select(context.Background(), "ippu_2a3_validated", nil)
	require.NoError(t, err)
	require.Len(t, validated, 1)
	assert.Equal(t, store.StatusValidated, validated[0][store.KeyStatus])
	assert.NotEqual(t, id, validated[0][store.KeyID])
}

func TestPromoteErrorStatuses(t *testing.T) {
	s, st := newTestServer(t)

	// 422: key field holds zero, so review rejects the record.
	zero := seedPendingRecord(t, st, store.Record{"mass_glass_produced_tonnes": 0.0})
	rec := doRequest(t, s, http.MethodPost, "/api/promote", map[string]any{
		"subcategory": "2A3_Glass_Production",
		"record_id":   zero[store.KeyID].(string),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// 404: record id not present in the pending collection.
	rec = doRequest(t, s, http.MethodPost, "/api/promote", map[string]any{
		"subcategory": "2A3_Glass_Production",
		"record_id":   "no-such-id",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// 404: unknown subcategory.
	rec = doRequest(t, s, http.MethodPost, "/api/promote", map[string]any{
		"subcategory": "9Z_Nope",
		"record_id":   "whatever",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// 400: missing identifiers.
	rec = doRequest(t, s, http.MethodPost, "/api/promote", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPromoteAlreadyValidatedConflicts(t *testing.T) {
	s, st := newTestServer(t)
	seeded := seedPendingRecord(t, st, store.Record{"mass_glass_produced_tonnes": 7.0})
	id := seeded[store.KeyID].(string)

	// Flip the stored status out from under the reviewer.
	_, err := st.Update(context.Background(), "ippu_2a3_validation",
		store.Record{store.KeyStatus: store.StatusValidated}, store.Filter{store.KeyID: id})
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodPost, "/api/promote", map[string]any{
		"subcategory": "2A3_Glass_Production",
		"record_id":   id,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestShowContact(t *testing.T) {
	s, st := newTestServer(t)
	seeded := seedPendingRecord(t, st, store.Record{
		"mass_glass_produced_tonnes": 9.0,
		"provider_contact_person":    "Ana Seru",
		"contact_email":              "ana@example.org",
		"contact_phone":              "555-0101",
	})

	rec := doRequest(t, s, http.MethodGet,
		"/api/contact?subcategory=2A3_Glass_Production&id="+seeded[store.KeyID].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "Ana Seru", resp["provider_contact_person"])
	assert.Equal(t, "ana@example.org", resp["contact_email"])
	assert.Equal(t, "555-0101", resp["contact_phone"])
}

func TestShowContactRequiresParams(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/contact?subcategory=2A3_Glass_Production", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func seedValidatedRecord(t *testing.T, st store.Store, year int, mass float64) {
	t.Helper()
	_, err := st.Insert(context.Background(), "ippu_2a3_validated", store.Record{
		store.KeyStatus:              store.StatusValidated,
		store.KeyDataYear:            year,
		"mass_glass_produced_tonnes": mass,
	})
	require.NoError(t, err)
}

func TestShowCollationJSON(t *testing.T) {
	s, st := newTestServer(t)
	seedValidatedRecord(t, st, 2021, 10.0)
	seedValidatedRecord(t, st, 2021, 5.0)
	seedValidatedRecord(t, st, 2022, 2.5)

	rec := doRequest(t, s, http.MethodGet, "/api/collation?from=2021&to=2022", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rows := decodeBody[[]map[string]any](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "Glass Production", rows[0]["activity"])
	assert.Equal(t, "2A3", rows[0]["category"])
	values := rows[0]["values"].(map[string]any)
	assert.Equal(t, 15.0, values["2021"])
	assert.Equal(t, 2.5, values["2022"])
}

func TestShowCollationCSV(t *testing.T) {
	s, st := newTestServer(t)
	seedValidatedRecord(t, st, 2021, 10.0)

	rec := doRequest(t, s, http.MethodGet, "/api/collation?from=2021&to=2022&format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "collation.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Activity,Category,Units,Notes,2021,2022", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Glass Production,2A3,tonnes,"))
	assert.True(t, strings.HasSuffix(lines[1], ",10.00,0.00"))
}

func TestShowCollationDefaultRangeFollowsClock(t *testing.T) {
	s, st := newTestServer(t)
	seedValidatedRecord(t, st, 2020, 4.0)

	rec := doRequest(t, s, http.MethodGet, "/api/collation", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rows := decodeBody[[]map[string]any](t, rec)
	require.Len(t, rows, 1)
	values := rows[0]["values"].(map[string]any)
	// Clock year is 2024, so the window runs 2014 through 2024.
	assert.Len(t, values, 11)
	assert.Equal(t, 4.0, values["2020"])
}

func TestShowCollationRejectsInvertedRange(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/collation?from=2023&to=2020", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShowConfig(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, float64(2023), resp["baseline_year"])
	subs := resp["subcategories"].(map[string]any)
	ippu := subs[inventory.SectorIPPU].([]any)
	assert.Contains(t, ippu, "2A3_Glass_Production")
}

func TestConfiguredBaselineAndCollationSpan(t *testing.T) {
	s, st := newTestServerWith(t, 2020, 3)

	// A submission with no data_year falls back to the configured baseline.
	rec := doRequest(t, s, http.MethodPost, "/api/submit", map[string]any{
		"subcategory": "2A3_Glass_Production",
		"state": map[string]any{
			"2A3_Glass_Production_mass_glass_produced_tonnes":      2.0,
			"2A3_Glass_Production_mass_glass_produced_tonnes_unit": "tonnes",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	stored, err := st.Select(context.Background(), "ippu_2a3_validation", nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 2020, stored[0][store.KeyDataYear])

	// /api/config reports the configured baseline, not the built-in one.
	rec = doRequest(t, s, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, float64(2020), resp["baseline_year"])

	// Default collation window follows the configured span: 2021..2024.
	seedValidatedRecord(t, st, 2022, 6.0)
	rec = doRequest(t, s, http.MethodGet, "/api/collation", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rows := decodeBody[[]map[string]any](t, rec)
	require.Len(t, rows, 1)
	values := rows[0]["values"].(map[string]any)
	assert.Len(t, values, 4)
	assert.Equal(t, 6.0, values["2022"])
	assert.NotContains(t, values, "2020")
}

func TestDashboardRouteServesHTML(t *testing.T) {
	s, st := newTestServer(t)
	seedValidatedRecord(t, st, 2022, 8.0)

	rec := doRequest(t, s, http.MethodGet, "/dashboard/IPPU", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Records by Subcategory")
}

func TestLoggingMiddlewarePreservesStatus(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
