package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/fieldmap/internal/classify"
	"github.com/sells-group/fieldmap/internal/raster"
)

// ClassifyResult holds the breaks found for a field and the field they produce.
type ClassifyResult struct {
	Breaks classify.Breaks
	Field  *raster.Field
	GVF    float64
}

// Classify computes k natural-breaks classes over field and applies them.
// maxSample <= 0 keeps the default sample cap.
func Classify(field *raster.Field, k, maxSample int) (*ClassifyResult, error) {
	var opts []classify.Option
	if maxSample > 0 {
		opts = append(opts, classify.WithMaxSample(maxSample))
	}

	start := time.Now()
	breaks, err := classify.ComputeBreaks(field, k, opts...)
	if err != nil {
		return nil, err
	}
	classified, err := classify.ApplyBreaks(field, breaks)
	if err != nil {
		return nil, err
	}

	res := &ClassifyResult{
		Breaks: breaks,
		Field:  classified,
		GVF:    classify.GVF(field.Valid(), breaks),
	}
	zap.L().Info("pipeline: classified field",
		zap.Int("classes", breaks.Classes()),
		zap.Float64s("breaks", breaks),
		zap.Float64("gvf", res.GVF),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}
