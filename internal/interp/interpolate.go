package interp

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fieldmap/internal/grid"
)

// Result is a dense, row-major field where every cell holds either an
// interpolated value or the nodata value.
type Result struct {
	Data     []float64
	Rows     int
	Cols     int
	Filled   int // cells filled by interpolation, excluding set cells
	Unfilled int // cells left at nodata
}

// site is a set cell: its grid coordinate and value.
type site struct {
	vertex
	value float64
}

// Interpolate fills every cell of m with the chosen method. Set cells keep
// their value; cells the method cannot reach are assigned nodata.
func Interpolate(m *grid.Masked, method Method, nodata float64) (*Result, error) {
	var sites []site
	m.Each(func(r, c int, v float64) {
		sites = append(sites, site{vertex: vertex{x: int64(c), y: int64(r)}, value: v})
	})
	if len(sites) == 0 {
		return nil, &InsufficientDataError{Reason: "no valid cells"}
	}
	if method != Nearest && len(sites) < MinPoints {
		return nil, &InsufficientDataError{Valid: len(sites), Reason: "need at least 3 valid cells to triangulate"}
	}
	if math.IsNaN(nodata) {
		return nil, eris.New("interp: nodata must be a number")
	}

	start := time.Now()
	out := make([]float64, m.Rows()*m.Cols())
	for i := range out {
		out[i] = nodata
	}
	filled := make([]bool, len(out))

	var err error
	switch method {
	case Nearest:
		fillNearest(sites, m.Rows(), m.Cols(), out, filled)
	case Linear, Cubic:
		err = fillTriangulated(sites, method, m.Cols(), out, filled)
	default:
		err = eris.Errorf("interp: unsupported method %d", int(method))
	}
	if err != nil {
		return nil, err
	}

	// Set cells are exact.
	for _, s := range sites {
		i := int(s.y)*m.Cols() + int(s.x)
		out[i] = s.value
		filled[i] = true
	}

	res := &Result{Data: out, Rows: m.Rows(), Cols: m.Cols()}
	for _, f := range filled {
		if f {
			res.Filled++
		} else {
			res.Unfilled++
		}
	}
	res.Filled -= len(sites)

	zap.L().Debug("interp: interpolated grid",
		zap.String("method", method.String()),
		zap.Int("sites", len(sites)),
		zap.Int("filled", res.Filled),
		zap.Int("unfilled", res.Unfilled),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
