// Package grid derives regular cell grids over a spatial extent and bins
// point samples into them.
package grid

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldmap/internal/geo"
)

// DefaultDivisions is the number of columns used to derive a resolution when
// none is given.
const DefaultDivisions = 1000

// MaxCells bounds the size of a single grid.
const MaxCells = 200_000_000

// Spec describes a regular grid: square cells of Resolution units,
// NCol columns and NRow rows.
type Spec struct {
	Resolution float64 `json:"resolution" yaml:"resolution"`
	NCol       int     `json:"ncol" yaml:"ncol"`
	NRow       int     `json:"nrow" yaml:"nrow"`
}

// NewSpec derives the grid covering extent. A nil resolution means
// (xmax - xmin) / DefaultDivisions.
func NewSpec(extent geo.Extent, resolution *float64) (Spec, error) {
	if err := extent.Validate(); err != nil {
		return Spec{}, eris.Wrap(err, "grid: spec")
	}

	res := extent.Width() / DefaultDivisions
	if resolution != nil {
		res = *resolution
	}
	if !(res > 0) || math.IsInf(res, 0) {
		return Spec{}, eris.Errorf("grid: resolution must be positive and finite, got %g", res)
	}

	ncol := math.Ceil(extent.Width() / res)
	nrow := math.Ceil(extent.Height() / res)
	if ncol*nrow > MaxCells {
		return Spec{}, eris.Errorf("grid: %gx%g cells exceeds the %d cell limit", nrow, ncol, MaxCells)
	}

	return Spec{Resolution: res, NCol: int(ncol), NRow: int(nrow)}, nil
}

// Cells returns NRow * NCol.
func (s Spec) Cells() int { return s.NRow * s.NCol }

// Validate checks that s is the grid NewSpec would derive for extent at
// the same resolution.
func (s Spec) Validate(extent geo.Extent) error {
	want, err := NewSpec(extent, &s.Resolution)
	if err != nil {
		return err
	}
	if want != s {
		return eris.Errorf("grid: spec %dx%d does not match extent (want %dx%d)", s.NRow, s.NCol, want.NRow, want.NCol)
	}
	return nil
}

// CellCenter returns the coordinate of the center of cell (r, c) for a grid
// anchored at the upper-left corner of extent.
func (s Spec) CellCenter(extent geo.Extent, r, c int) geo.Coord {
	return geo.Coord{
		X: extent.XMin + (float64(c)+0.5)*s.Resolution,
		Y: extent.YMax - (float64(r)+0.5)*s.Resolution,
	}
}
