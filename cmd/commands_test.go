package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/soil"
	"github.com/sells-group/terra/internal/viewport"
)

// execute runs the root command with args against a throwaway SQLite store.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func useTempStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TERRA_STORE_DRIVER", "sqlite")
	t.Setenv("TERRA_STORE_SQLITE_PATH", filepath.Join(dir, "terra.db"))
	t.Setenv("TERRA_LOG_LEVEL", "error")
	return dir
}

func TestZoomCommand(t *testing.T) {
	useTempStore(t)

	out, err := execute(t, "zoom", "--area-m2", "1000000", "-o", "json")
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 14, got["zoom"])
}

func TestSoilAssessCommand(t *testing.T) {
	useTempStore(t)

	out, err := execute(t, "soil", "assess", "--clay", "30", "--sand", "30", "--oc", "40", "--ph", "6.5", "-o", "json")
	require.NoError(t, err)

	var a soil.Assessment
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, 100, a.WeightedTotal)
	assert.Equal(t, soil.LabelExcellent, a.QualityLabel)
}

func TestGeometryAreaCommand_RequiresOneSource(t *testing.T) {
	useTempStore(t)

	_, err := execute(t, "geometry", "area", "-o", "table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")
}

func TestFieldLifecycle(t *testing.T) {
	dir := useTempStore(t)
	points := "38.95,-92.33;38.95,-92.32;38.96,-92.32;38.96,-92.33"

	out, err := execute(t, "field", "add", "--name", "North 40", "--crop", "corn", "--points", points, "-o", "json")
	require.NoError(t, err)

	var created field.Record
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Corn", created.Crop)
	assert.Greater(t, created.Area, 0.0)

	geojson := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"name":"Creek"},"geometry":{"type":"Polygon","coordinates":[[[-92.30,38.90],[-92.29,38.90],[-92.29,38.91],[-92.30,38.90]]]}}
	]}`
	importPath := filepath.Join(dir, "import.json")
	require.NoError(t, os.WriteFile(importPath, []byte(geojson), 0o644))

	_, err = execute(t, "field", "import", "--geojson", importPath, "--crop", "soybeans", "-o", "json")
	require.NoError(t, err)

	out, err = execute(t, "field", "list", "-o", "json")
	require.NoError(t, err)
	var listed []field.Record
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 2)
	crops := map[string]string{}
	for _, r := range listed {
		crops[r.Name] = r.Crop
	}
	assert.Equal(t, map[string]string{"North 40": "Corn", "Creek": "Soybeans"}, crops)

	out, err = execute(t, "farm", "view", "-o", "json")
	require.NoError(t, err)
	var vp viewport.Viewport
	require.NoError(t, json.Unmarshal([]byte(out), &vp))
	assert.GreaterOrEqual(t, vp.Zoom, 1)
	require.NotNil(t, vp.Bounds)

	report := filepath.Join(dir, "farm.xlsx")
	out, err = execute(t, "farm", "report", "--xlsx", report, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 fields")
	info, err := os.Stat(report)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	out, err = execute(t, "field", "delete", created.ID, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+created.ID)

	_, err = execute(t, "field", "show", created.ID, "-o", "table")
	assert.Error(t, err)
}
