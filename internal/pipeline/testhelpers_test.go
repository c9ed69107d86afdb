package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/fieldmap/internal/geo"
	"github.com/sells-group/fieldmap/internal/interp"
	"github.com/sells-group/fieldmap/internal/points"
	"github.com/sells-group/fieldmap/internal/raster"
)

// planeDataset has one sample at the center of every cell of a 4x4 unit
// grid over (0,0)-(4,4), valued x + y.
func planeDataset(t *testing.T) *points.Dataset {
	t.Helper()
	var samples []points.Sample
	for i := range 4 {
		for j := range 4 {
			x, y := float64(i)+0.5, float64(j)+0.5
			samples = append(samples, points.Sample{X: x, Y: y, Value: x + y})
		}
	}
	d, err := points.FromSamples("dz", samples)
	require.NoError(t, err)
	return d
}

// sparseDataset has three samples in the corner cells of the same grid.
func sparseDataset(t *testing.T) *points.Dataset {
	t.Helper()
	d, err := points.FromSamples("dz", []points.Sample{
		{X: 0.5, Y: 3.5, Value: 1},
		{X: 3.5, Y: 3.5, Value: 2},
		{X: 0.5, Y: 0.5, Value: 3},
	})
	require.NoError(t, err)
	return d
}

func unitParams(method interp.Method) Params {
	res := 1.0
	return Params{
		Method:     method,
		Resolution: &res,
		Corners:    &Corners{ULC: geo.Coord{X: 0, Y: 4}, LRC: geo.Coord{X: 4, Y: 0}},
		NoData:     -9999,
		CRS:        "EPSG:32610",
	}
}

// groupedField is a 3x3 field with one nodata cell and three clear value
// groups.
func groupedField(t *testing.T) *raster.Field {
	t.Helper()
	f, err := raster.New(
		[]float64{-9999, 1, 1, 2, 10, 11, 12, 20, 21},
		3, 3, -9999, geo.Coord{X: 100, Y: 200}, 10, "EPSG:32610",
	)
	require.NoError(t, err)
	return f
}
