package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ghg-data/inventory.report/internal/fsutil"
)

func parseForm(t *testing.T, doc string) (*FormConfig, error) {
	t.Helper()
	var cfg FormConfig
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))
	return &cfg, cfg.Validate()
}

func TestValidateWellFormed(t *testing.T) {
	cfg, err := parseForm(t, `
fields:
  - name: facility_name
    type: text
    label: Facility Name
    required: true
  - name: waste_type
    type: select
    label: Waste Type
    options: [municipal, industrial, clinical]
  - name: mass_waste_disposed_tonnes
    type: number
    label: Mass of Waste Disposed
    unit_options: [kg, tonnes]
    required_unit: tonnes
    validation:
      min: 0
  - name: gas_recovery_volume
    type: number
    label: Gas Recovery Volume
    condition: waste_type == 'municipal'
tables:
  - name: disposal_sites
    columns:
      - name: site_name
        type: text
      - name: mass_received_tonnes
        type: number
        unit_options: [kg, tonnes]
        required_unit: tonnes
`)
	require.NoError(t, err)
	assert.Len(t, cfg.Fields, 4)
	assert.Equal(t, KindSelect, cfg.Fields[1].Kind)
	assert.True(t, cfg.Fields[2].HasUnitSelector())
	assert.Equal(t, "tonnes", cfg.Fields[2].TargetUnit())
	assert.NotNil(t, cfg.Fields[3].Cond())
	assert.Equal(t, []string{"facility_name"}, cfg.RequiredFieldNames())
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	var cfg FormConfig
	err := yaml.Unmarshal([]byte(`
fields:
  - name: bad
    type: slider
`), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field kind")
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		reason string
	}{
		{
			"select without options",
			`fields: [{name: choice, type: select, label: Choice}]`,
			"requires options",
		},
		{
			"required unit outside options",
			`fields: [{name: mass, type: number, unit_options: [kg], required_unit: tonnes}]`,
			"not in unit_options",
		},
		{
			"condition forward reference",
			"fields:\n  - name: a\n    type: text\n    condition: b == 'x'\n  - name: b\n    type: text",
			"before it is rendered",
		},
		{
			"condition parse failure",
			"fields:\n  - name: a\n    type: text\n  - name: b\n    type: text\n    condition: \"a === 'x'\"",
			"schema error",
		},
		{
			"table without columns",
			`tables: [{name: empty_table}]`,
			"at least one column",
		},
		{
			"min above max",
			"fields:\n  - name: n\n    type: number\n    validation: {min: 10, max: 5}",
			"min exceeds max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseForm(t, tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestTargetUnitDefaultsToFirstOption(t *testing.T) {
	f := Field{Name: "mass", Kind: KindNumber, UnitOptions: []string{"kg", "tonnes"}}
	assert.Equal(t, "kg", f.TargetUnit())

	f.RequiredUnit = "tonnes"
	assert.Equal(t, "tonnes", f.TargetUnit())
}

func TestOpenDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.yaml", `
forms:
  - name: 4B_Biological_Treatment
    path: waste_4b.yaml
`)
	writeFile(t, dir, "waste_4b.yaml", `
fields:
  - name: mass_composted_tonnes
    type: number
    label: Mass Composted
    unit_options: [kg, tonnes]
    required_unit: tonnes
`)
	writeFile(t, dir, "general.yaml", `
fields:
  - name: data_provider
    type: text
    label: Data Provider
    required: true
`)

	d, err := OpenDir(dir)
	require.NoError(t, err)

	_, ok := d.Index().Lookup("4B_Biological_Treatment")
	assert.True(t, ok)

	cfg, err := d.Form("4B_Biological_Treatment")
	require.NoError(t, err)
	assert.Len(t, cfg.Fields, 1)

	// Cached on second load.
	again, err := d.Form("4B_Biological_Treatment")
	require.NoError(t, err)
	assert.Same(t, cfg, again)

	general, err := d.General()
	require.NoError(t, err)
	assert.True(t, general.Fields[0].Required)

	_, err = d.Form("4Z_Unknown")
	assert.Error(t, err)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestOpenDirFSMemoryFilesystem(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.WriteFile("forms/index.yaml", []byte(`
forms:
  - name: 4E_Other
    path: waste_4e.yaml
`), 0o644))
	require.NoError(t, mem.WriteFile("forms/waste_4e.yaml", []byte(`
fields:
  - name: mass_waste_other_tonnes
    type: number
    label: Mass of Waste Handled
`), 0o644))

	d, err := OpenDirFS(mem, "forms")
	require.NoError(t, err)

	cfg, err := d.Form("4E_Other")
	require.NoError(t, err)
	assert.Equal(t, "mass_waste_other_tonnes", cfg.Fields[0].Name)

	// general.yaml was never written.
	_, err = d.General()
	assert.Error(t, err)
}
