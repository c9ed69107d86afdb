package main

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fieldmap/internal/geo"
	"github.com/sells-group/fieldmap/internal/raster"
	"github.com/sells-group/fieldmap/internal/store"
)

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("12345678-aaaa-bbbb-cccc-dddddddddddd"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestFormatNum(t *testing.T) {
	assert.Equal(t, "nan", formatNum(math.NaN()))
	assert.Equal(t, "-9999", formatNum(-9999))
	assert.Equal(t, "0.25", formatNum(0.25))
}

func TestFormatBreaks(t *testing.T) {
	assert.Equal(t, "[]", formatBreaks(nil))
	assert.Equal(t, "[1, 2.5, 10]", formatBreaks([]float64{1, 2.5, 10}))
}

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	runs := []store.Run{
		{
			ID:        "abcdef0123456789",
			Kind:      store.RunKindBuild,
			Name:      "dz",
			Method:    "linear",
			Status:    store.RunStatusComplete,
			CreatedAt: created,
			UpdatedAt: created.Add(1500 * time.Millisecond),
		},
		{
			ID:        "run-2",
			Kind:      store.RunKindClassify,
			Name:      strings.Repeat("n", 40),
			Status:    store.RunStatusFailed,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "abcdef01")
	assert.NotContains(t, out, "abcdef0123")
	assert.Contains(t, out, "2026-03-01 09:30")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, strings.Repeat("n", 27)+"...")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, " - ")
}

func TestPrintFieldInfo(t *testing.T) {
	f, err := raster.New([]float64{1, 2, 3, -9999}, 2, 2, -9999, geo.Coord{X: 10, Y: 20}, 5, "EPSG:32610")
	require.NoError(t, err)

	var buf bytes.Buffer
	printFieldInfo(&buf, "dz.tif", f)
	out := buf.String()

	assert.Contains(t, out, "2 rows x 2 cols")
	assert.Contains(t, out, "10, 10 - 20, 20")
	assert.Contains(t, out, "EPSG:32610")
	assert.Contains(t, out, "3 of 4")
	assert.Contains(t, out, "1 / 3")
}

func TestNewFieldInfo_NaNNoData(t *testing.T) {
	f, err := raster.New([]float64{1, math.NaN()}, 1, 2, math.NaN(), geo.Coord{X: 0, Y: 1}, 1, "")
	require.NoError(t, err)

	data, err := json.Marshal(newFieldInfo("x.tif", f))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nodata":null`)
}

func TestNewRunView(t *testing.T) {
	e := geo.Extent{XMin: 0, YMin: 0, XMax: 4, YMax: 2}
	fp, err := geo.Footprint(e, "EPSG:32610")
	require.NoError(t, err)

	v, err := newRunView(store.Run{ID: "r1", NoData: -9999, Footprint: fp})
	require.NoError(t, err)
	require.NotNil(t, v.NoData)
	assert.Equal(t, -9999.0, *v.NoData)

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "r1", got["id"])
	assert.Equal(t, -9999.0, got["nodata"])

	footprint, ok := got["footprint"].(map[string]any)
	require.True(t, ok, "footprint should be a GeoJSON object")
	assert.Equal(t, "Polygon", footprint["type"])
}

func TestNewRunView_NaNNoData(t *testing.T) {
	v, err := newRunView(store.Run{ID: "r1", NoData: math.NaN()})
	require.NoError(t, err)
	assert.Nil(t, v.NoData)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nodata":null`)
	assert.NotContains(t, string(data), "footprint")
}

func TestNewRunView_BadFootprint(t *testing.T) {
	_, err := newRunView(store.Run{ID: "r1", Footprint: []byte{0x01, 0x02}})
	assert.Error(t, err)
}
