package classify

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/fieldmap/internal/raster"
)

// Digitize returns the right-inclusive bin of v: 0 when v <= breaks[0], i
// when breaks[i-1] < v <= breaks[i], and len(breaks) above the last break.
func Digitize(v float64, breaks Breaks) int {
	return sort.SearchFloat64s(breaks, v)
}

// ApplyBreaks classifies field into class indices. Nodata and non-finite
// cells take class 0, which is then re-filled with the field's nodata value.
// The source field is not modified.
func ApplyBreaks(field *raster.Field, breaks Breaks) (*raster.Field, error) {
	if err := breaks.Validate(); err != nil {
		return nil, err
	}
	nodata := field.NoData
	if math.IsNaN(nodata) {
		return nil, failf("nodata must be a number to classify")
	}
	if nodata == math.Trunc(nodata) && nodata >= 1 && nodata <= float64(len(breaks)) {
		return nil, failf("nodata %g collides with class index %d", nodata, int(nodata))
	}

	out := make([]float64, len(field.Data))
	refilled := 0
	for i, v := range field.Data {
		if field.IsNoData(v) || math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = nodata
			refilled++
			continue
		}
		c := Digitize(v, breaks)
		if c == 0 {
			return nil, failf("valid value %g at cell %d falls at or below the lowest break %g", v, i, breaks[0])
		}
		out[i] = float64(c)
	}

	if refilled > 0 {
		lowest := out[0]
		for _, v := range out[1:] {
			lowest = math.Min(lowest, v)
		}
		if lowest != nodata {
			return nil, failf("nodata %g is not the minimum of the classified field (%g)", nodata, lowest)
		}
	}

	classified, err := field.WithData(out, nodata)
	if err != nil {
		return nil, &ClassificationError{Reason: "build classified field", Err: err}
	}
	zap.L().Debug("classify: applied breaks",
		zap.Int("classes", breaks.Classes()),
		zap.Int("cells", len(out)),
		zap.Int("nodata", refilled),
	)
	return classified, nil
}
