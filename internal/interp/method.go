// Package interp fills the unset cells of a masked grid by scattered-data
// interpolation over the set cells.
//
// Coordinates are grid indices (column, row), so cells are unit squares and
// all interpolation happens in index space. Three methods are available:
//
//   - Nearest copies the value of the nearest set cell and fills every cell.
//   - Linear triangulates the set cells (Delaunay) and interpolates
//     barycentrically inside each triangle.
//   - Cubic uses the same triangulation with a cubic Bézier patch per
//     triangle built from least-squares vertex gradients.
//
// Linear and cubic leave cells outside the convex hull of the set cells
// unfilled; those cells receive the nodata value.
package interp

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Method selects an interpolation scheme.
type Method int

// Interpolation methods.
const (
	Nearest Method = iota
	Linear
	Cubic
)

func (m Method) String() string {
	switch m {
	case Nearest:
		return "nearest"
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	default:
		return "unknown"
	}
}

// ParseMethod parses a method name, case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nearest":
		return Nearest, nil
	case "linear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	default:
		return 0, eris.Errorf("interp: unknown method %q (want nearest, linear or cubic)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	if m < Nearest || m > Cubic {
		return nil, eris.Errorf("interp: invalid method %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(b []byte) error {
	v, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
