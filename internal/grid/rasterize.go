package grid

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fieldmap/internal/geo"
	"github.com/sells-group/fieldmap/internal/points"
)

// Result is the output of Rasterize.
type Result struct {
	Grid     *Masked
	Binned   int
	Outliers int
}

// Rasterize bins the samples of d into the cells of spec over extent and
// averages them. Cells are aligned to the upper-left corner of the extent and
// are closed on their west and south edges, points on the east or north edge
// of the extent fall into the last column or the first row. Points outside
// the extent are discarded. Bins are accumulated south-up and flipped so
// that row 0 of the result is the northernmost row.
func Rasterize(d *points.Dataset, extent geo.Extent, spec Spec) (*Result, error) {
	if err := spec.Validate(extent); err != nil {
		return nil, eris.Wrap(err, "grid: rasterize")
	}

	bottom := extent.YMax - float64(spec.NRow)*spec.Resolution
	res := &Result{Grid: NewMasked(spec.NRow, spec.NCol)}
	d.Each(func(s points.Sample) {
		if !extent.Contains(s.X, s.Y) {
			res.Outliers++
			return
		}
		c := binIndex(s.X-extent.XMin, spec.Resolution, spec.NCol)
		up := binIndex(s.Y-bottom, spec.Resolution, spec.NRow)
		res.Grid.add(spec.NRow-1-up, c, s.Value)
		res.Binned++
	})

	zap.L().Debug("grid: rasterized samples",
		zap.Int("rows", spec.NRow),
		zap.Int("cols", spec.NCol),
		zap.Int("binned", res.Binned),
		zap.Int("outliers", res.Outliers),
		zap.Int("cells_set", res.Grid.Valid()),
	)
	return res, nil
}

func binIndex(offset, res float64, n int) int {
	i := int(math.Floor(offset / res))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
