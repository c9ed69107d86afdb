package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
workers: 4
jobs:
  - input: data/dz.csv
  - name: north
    input: https://example.com/north.zip
    attribute: depth
    method: nearest
    resolution: 2
    ulc: "0,10"
    lrc: "10,0"
    nodata: 0
    crs: EPSG:32610
    classes: 3
`)

	m, err := loadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Workers)
	require.Len(t, m.Jobs, 2)

	assert.Equal(t, "dz", m.Jobs[0].Name)
	assert.Nil(t, m.Jobs[0].NoData)

	j := m.Jobs[1]
	assert.Equal(t, "north", j.Name)
	assert.Equal(t, 3, j.Classes)
	require.NotNil(t, j.NoData)
	assert.Equal(t, 0.0, *j.NoData)
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{"no jobs", "workers: 2\n", "has no jobs"},
		{"missing input", "jobs:\n  - name: a\n", "job 1 has no input"},
		{"duplicate names", "jobs:\n  - input: a/dz.csv\n  - input: b/dz.xlsx\n", `duplicate job name "dz"`},
		{"unknown key", "jobs:\n  - input: a.csv\n    colour: red\n", "manifest: parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadManifest(writeManifest(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := loadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest: read")
}

func TestManifestJob_FieldConfig(t *testing.T) {
	base := baseFieldConfig()
	base.ULC, base.LRC = "0,5", "5,0"

	// An empty job inherits everything.
	assert.Equal(t, base, manifestJob{Input: "x.csv"}.fieldConfig(base))

	nd := 0.0
	fc := manifestJob{
		Input:      "x.csv",
		Attribute:  "depth",
		Method:     "none",
		Resolution: 0.5,
		ULC:        "1,9",
		LRC:        "9,1",
		NoData:     &nd,
		CRS:        "EPSG:3857",
	}.fieldConfig(base)

	assert.Equal(t, "depth", fc.Attribute)
	assert.Equal(t, "none", fc.Method)
	assert.Equal(t, 0.5, fc.Resolution)
	assert.Equal(t, "1,9", fc.ULC)
	assert.Equal(t, "9,1", fc.LRC)
	assert.Equal(t, 0.0, fc.NoData)
	assert.Equal(t, "EPSG:3857", fc.CRS)
}
