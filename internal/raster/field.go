// Package raster holds the dense, georeferenced single-band field produced
// by the gridding pipeline and its on-disk encodings.
package raster

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/fieldmap/internal/geo"
)

// Field is a row-major grid of values. Origin is the upper-left corner of
// cell (0, 0); rows run south from there. Every cell holds a finite value or
// exactly NoData. A NaN NoData means the field has no nodata value and NaN
// cells are the missing ones.
type Field struct {
	Data       []float64
	Rows       int
	Cols       int
	NoData     float64
	Origin     geo.Coord
	Resolution float64
	CRS        string
}

// New validates and returns a Field. data is used as-is, not copied.
func New(data []float64, rows, cols int, nodata float64, origin geo.Coord, resolution float64, crs string) (*Field, error) {
	f := &Field{
		Data:       data,
		Rows:       rows,
		Cols:       cols,
		NoData:     nodata,
		Origin:     origin,
		Resolution: resolution,
		CRS:        crs,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks shape, georeferencing and the nodata invariant.
func (f *Field) Validate() error {
	if f.Rows <= 0 || f.Cols <= 0 {
		return eris.Errorf("raster: invalid shape %dx%d", f.Rows, f.Cols)
	}
	if len(f.Data) != f.Rows*f.Cols {
		return eris.Errorf("raster: %d values for a %dx%d grid", len(f.Data), f.Rows, f.Cols)
	}
	if !(f.Resolution > 0) || math.IsInf(f.Resolution, 0) {
		return eris.Errorf("raster: resolution must be positive, got %g", f.Resolution)
	}
	if math.IsInf(f.Origin.X, 0) || math.IsInf(f.Origin.Y, 0) || math.IsNaN(f.Origin.X) || math.IsNaN(f.Origin.Y) {
		return eris.Errorf("raster: origin must be finite, got %v", f.Origin)
	}
	if math.IsInf(f.NoData, 0) {
		return eris.New("raster: nodata must not be infinite")
	}
	for i, v := range f.Data {
		if !f.IsNoData(v) && (math.IsNaN(v) || math.IsInf(v, 0)) {
			return eris.Errorf("raster: cell %d holds %g, which is neither finite nor nodata", i, v)
		}
	}
	return nil
}

// IsNoData reports whether v is the nodata value.
func (f *Field) IsNoData(v float64) bool {
	if math.IsNaN(f.NoData) {
		return math.IsNaN(v)
	}
	return v == f.NoData
}

// At returns the value of cell (r, c).
func (f *Field) At(r, c int) float64 { return f.Data[r*f.Cols+c] }

// Extent returns the area covered by the grid.
func (f *Field) Extent() geo.Extent {
	return geo.Extent{
		XMin: f.Origin.X,
		XMax: f.Origin.X + float64(f.Cols)*f.Resolution,
		YMin: f.Origin.Y - float64(f.Rows)*f.Resolution,
		YMax: f.Origin.Y,
	}
}

// Valid returns the non-nodata values in row-major order.
func (f *Field) Valid() []float64 {
	out := make([]float64, 0, len(f.Data))
	for _, v := range f.Data {
		if !f.IsNoData(v) {
			out = append(out, v)
		}
	}
	return out
}

// WithData returns a copy of f's georeferencing around new values.
func (f *Field) WithData(data []float64, nodata float64) (*Field, error) {
	return New(data, f.Rows, f.Cols, nodata, f.Origin, f.Resolution, f.CRS)
}

// Stats summarises the valid cells of a field.
type Stats struct {
	Cells  int     `json:"cells"`
	Valid  int     `json:"valid"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Stats computes summary statistics over the valid cells.
func (f *Field) Stats() Stats {
	vals := f.Valid()
	s := Stats{Cells: len(f.Data), Valid: len(vals)}
	if len(vals) == 0 {
		return s
	}
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	s.Mean, s.StdDev = stat.MeanStdDev(vals, nil)
	if len(vals) == 1 {
		s.StdDev = 0
	}
	return s
}
