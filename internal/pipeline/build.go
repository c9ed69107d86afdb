// Package pipeline runs the point → grid → field → classes stages and
// records what each run produced.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fieldmap/internal/geo"
	"github.com/sells-group/fieldmap/internal/grid"
	"github.com/sells-group/fieldmap/internal/interp"
	"github.com/sells-group/fieldmap/internal/points"
	"github.com/sells-group/fieldmap/internal/raster"
)

// Corners pins the raster extent instead of deriving it from the samples.
type Corners struct {
	ULC geo.Coord
	LRC geo.Coord
}

// Params controls how a field is built.
type Params struct {
	Method     interp.Method
	Plain      bool     // skip interpolation, unset cells become nodata
	Resolution *float64 // nil derives from the extent
	Corners    *Corners // nil uses the sample bounds
	NoData     float64
	CRS        string
}

// MethodName is the method label recorded for the run.
func (p Params) MethodName() string {
	if p.Plain {
		return "none"
	}
	return p.Method.String()
}

// BuildResult is a built field plus the grid it was derived on.
type BuildResult struct {
	Field    *raster.Field
	Extent   geo.Extent
	Spec     grid.Spec
	Stats    raster.Stats
	Binned   int
	Outliers int
	Filled   int
	Unfilled int
}

// Build grids d and fills the grid into a raster field.
func Build(ctx context.Context, d *points.Dataset, p Params) (*BuildResult, error) {
	if d == nil {
		return nil, eris.New("pipeline: nil dataset")
	}
	log := zap.L().With(zap.String("attribute", d.Attribute()), zap.String("method", p.MethodName()))

	extent, err := resolveExtent(d, p.Corners)
	if err != nil {
		return nil, err
	}
	spec, err := grid.NewSpec(extent, p.Resolution)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: grid spec")
	}

	start := time.Now()
	binned, err := grid.Rasterize(d, extent, spec)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: rasterize")
	}
	log.Debug("pipeline: stage complete",
		zap.String("stage", "rasterize"),
		zap.Int("rows", spec.NRow),
		zap.Int("cols", spec.NCol),
		zap.Duration("duration", time.Since(start)),
	)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: build")
	}

	res := &BuildResult{Extent: extent, Spec: spec, Binned: binned.Binned, Outliers: binned.Outliers}

	start = time.Now()
	var data []float64
	if p.Plain {
		data = binned.Grid.Fill(p.NoData)
		res.Unfilled = spec.Cells() - binned.Grid.Valid()
	} else {
		filled, err := interp.Interpolate(binned.Grid, p.Method, p.NoData)
		if err != nil {
			return nil, err
		}
		data = filled.Data
		res.Filled = filled.Filled
		res.Unfilled = filled.Unfilled
	}
	log.Debug("pipeline: stage complete",
		zap.String("stage", "interpolate"),
		zap.Int("filled", res.Filled),
		zap.Int("unfilled", res.Unfilled),
		zap.Duration("duration", time.Since(start)),
	)

	field, err := raster.New(data, spec.NRow, spec.NCol, p.NoData, extent.UpperLeft(), spec.Resolution, p.CRS)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: assemble field")
	}
	res.Field = field
	res.Stats = field.Stats()
	return res, nil
}

func resolveExtent(d *points.Dataset, c *Corners) (geo.Extent, error) {
	if c != nil {
		e, err := geo.ExtentFromCorners(c.ULC, c.LRC)
		return e, eris.Wrap(err, "pipeline: extent")
	}
	e, err := d.Bounds()
	return e, eris.Wrap(err, "pipeline: extent")
}
