// Package geo provides the spatial primitives shared by the gridding pipeline:
// coordinates, rectangular extents and their geometry encodings.
package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// Coord is a planar coordinate in the units of the dataset CRS.
type Coord struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Extent is a rectangular bounding box.
type Extent struct {
	XMin float64 `json:"xmin" yaml:"xmin"`
	XMax float64 `json:"xmax" yaml:"xmax"`
	YMin float64 `json:"ymin" yaml:"ymin"`
	YMax float64 `json:"ymax" yaml:"ymax"`
}

// Validate reports whether the extent has finite bounds and positive area.
func (e Extent) Validate() error {
	for _, v := range []float64{e.XMin, e.XMax, e.YMin, e.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.Errorf("geo: extent has non-finite bound %v", e)
		}
	}
	if e.XMin >= e.XMax {
		return eris.Errorf("geo: extent xmin %g must be less than xmax %g", e.XMin, e.XMax)
	}
	if e.YMin >= e.YMax {
		return eris.Errorf("geo: extent ymin %g must be less than ymax %g", e.YMin, e.YMax)
	}
	return nil
}

// Width returns XMax - XMin.
func (e Extent) Width() float64 { return e.XMax - e.XMin }

// Height returns YMax - YMin.
func (e Extent) Height() float64 { return e.YMax - e.YMin }

// Contains reports whether (x, y) lies inside the extent, edges included.
func (e Extent) Contains(x, y float64) bool {
	return x >= e.XMin && x <= e.XMax && y >= e.YMin && y <= e.YMax
}

// UpperLeft returns the (xmin, ymax) corner.
func (e Extent) UpperLeft() Coord { return Coord{X: e.XMin, Y: e.YMax} }

// LowerRight returns the (xmax, ymin) corner.
func (e Extent) LowerRight() Coord { return Coord{X: e.XMax, Y: e.YMin} }

// ExtentFromCorners builds an extent from an upper-left and a lower-right corner.
func ExtentFromCorners(ulc, lrc Coord) (Extent, error) {
	e := Extent{XMin: ulc.X, XMax: lrc.X, YMin: lrc.Y, YMax: ulc.Y}
	if err := e.Validate(); err != nil {
		return Extent{}, eris.Wrap(err, "geo: corners")
	}
	return e, nil
}

// ExtentFromBounds converts go-geom bounds to an Extent.
func ExtentFromBounds(b *geom.Bounds) Extent {
	return Extent{XMin: b.Min(0), XMax: b.Max(0), YMin: b.Min(1), YMax: b.Max(1)}
}

// ParseCoord parses "x,y".
func ParseCoord(s string) (Coord, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coord{}, eris.Errorf("geo: coordinate %q must be of the form x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coord{}, eris.Wrapf(err, "geo: parse x of %q", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coord{}, eris.Wrapf(err, "geo: parse y of %q", s)
	}
	return Coord{X: x, Y: y}, nil
}

// SRID extracts the numeric code from an "EPSG:nnnn" identifier.
// Any other identifier yields 0; the CRS is otherwise opaque here.
func SRID(crs string) int {
	code, ok := strings.CutPrefix(strings.ToUpper(strings.TrimSpace(crs)), "EPSG:")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Polygon returns the extent as a closed rectangular polygon.
func (e Extent) Polygon(srid int) *geom.Polygon {
	ring := []float64{
		e.XMin, e.YMin,
		e.XMax, e.YMin,
		e.XMax, e.YMax,
		e.XMin, e.YMax,
		e.XMin, e.YMin,
	}
	return geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)}).SetSRID(srid)
}

// Footprint encodes the extent polygon as little-endian EWKB.
func Footprint(e Extent, crs string) ([]byte, error) {
	data, err := ewkb.Marshal(e.Polygon(SRID(crs)), ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode footprint")
	}
	return data, nil
}

// DecodeFootprint reverses Footprint.
func DecodeFootprint(data []byte) (Extent, int, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return Extent{}, 0, eris.Wrap(err, "geo: decode footprint")
	}
	poly, ok := g.(*geom.Polygon)
	if !ok {
		return Extent{}, 0, eris.Errorf("geo: footprint is %T, want polygon", g)
	}
	return ExtentFromBounds(poly.Bounds()), poly.SRID(), nil
}
