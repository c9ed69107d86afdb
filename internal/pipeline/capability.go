package pipeline

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/fieldmap/internal/points"
)

// ErrUnavailable is returned when an optional collaborator is not configured.
var ErrUnavailable = eris.New("pipeline: capability unavailable")

// Comparator scores the similarity of two classified rasters with a fuzzy
// neighbourhood comparison.
type Comparator interface {
	Compare(ctx context.Context, pathA, pathB string, radius int, halving float64) (float64, error)
}

// Outliner derives a boundary polygon around a point dataset, such as an
// alpha shape. A nil alpha lets the outliner choose its own.
type Outliner interface {
	Outline(ctx context.Context, d *points.Dataset, alpha *float64) (*geom.Polygon, error)
}

// Compare runs c on two rasters. radius is the neighbourhood size in cells
// and halving the distance at which membership drops to one half.
func Compare(ctx context.Context, c Comparator, pathA, pathB string, radius int, halving float64) (float64, error) {
	if c == nil {
		return 0, eris.Wrap(ErrUnavailable, "pipeline: compare")
	}
	if radius < 0 {
		return 0, eris.Errorf("pipeline: compare radius must not be negative, got %d", radius)
	}
	if !(halving > 0) || math.IsInf(halving, 0) {
		return 0, eris.Errorf("pipeline: compare halving distance must be positive, got %g", halving)
	}
	score, err := c.Compare(ctx, pathA, pathB, radius, halving)
	if err != nil {
		return 0, eris.Wrap(err, "pipeline: compare")
	}
	return score, nil
}

// Outline runs o on d. alpha is optional; when set it must be positive.
func Outline(ctx context.Context, o Outliner, d *points.Dataset, alpha *float64) (*geom.Polygon, error) {
	if o == nil {
		return nil, eris.Wrap(ErrUnavailable, "pipeline: outline")
	}
	if alpha != nil && (!(*alpha > 0) || math.IsInf(*alpha, 0)) {
		return nil, eris.Errorf("pipeline: outline alpha must be positive, got %g", *alpha)
	}
	poly, err := o.Outline(ctx, d, alpha)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: outline")
	}
	return poly, nil
}

// IsUnavailable reports whether err means a collaborator is missing.
func IsUnavailable(err error) bool {
	return eris.Is(err, ErrUnavailable)
}
