// Package classify reduces continuous raster fields to discrete classes
// using Fisher-Jenks natural breaks.
package classify

import (
	"math"
	"slices"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/sells-group/fieldmap/internal/raster"
)

// DefaultMaxSample caps the number of values fed to the Jenks optimiser.
const DefaultMaxSample = 3000

// Breaks are strictly increasing class thresholds. Breaks[0] is the reserved
// lower edge; Breaks[i] is the upper bound of class i.
type Breaks []float64

// Classes returns the number of data classes the breaks define.
func (b Breaks) Classes() int { return len(b) - 1 }

// Validate checks that the breaks are finite and strictly increasing.
func (b Breaks) Validate() error {
	if len(b) < 2 {
		return failf("need at least 2 breaks, got %d", len(b))
	}
	for i, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return failf("break %d is not finite", i)
		}
		if i > 0 && v <= b[i-1] {
			return failf("breaks are not strictly increasing at %d (%g <= %g)", i, v, b[i-1])
		}
	}
	return nil
}

type options struct {
	maxSample int
}

// Option configures ComputeBreaks.
type Option func(*options)

// WithMaxSample sets the sample cap for large fields. Values below k+1 are
// ignored.
func WithMaxSample(n int) Option {
	return func(o *options) { o.maxSample = n }
}

// ComputeBreaks partitions the valid cells of field into k natural classes.
// The result has k+1 entries: a lower edge just below the minimum followed by
// the upper bound of each class, the last being the maximum.
func ComputeBreaks(field *raster.Field, k int, opts ...Option) (Breaks, error) {
	o := options{maxSample: DefaultMaxSample}
	for _, opt := range opts {
		opt(&o)
	}
	if k < 1 {
		return nil, failf("number of classes must be at least 1, got %d", k)
	}

	vals := make([]float64, 0, len(field.Data))
	for _, v := range field.Data {
		if !field.IsNoData(v) && !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	slices.Sort(vals)
	if d := distinct(vals); d < k+1 {
		return nil, failf("%d classes need at least %d distinct values, field has %d", k, k+1, d)
	}

	data := vals
	if o.maxSample > k && len(vals) > o.maxSample {
		data = sample(vals, o.maxSample)
		if distinct(data) < k {
			data = vals
		}
	}

	upper := jenks(data, k)
	breaks := make(Breaks, 0, k+1)
	breaks = append(breaks, math.Nextafter(vals[0], math.Inf(-1)))
	breaks = append(breaks, upper...)

	zap.L().Debug("classify: computed breaks",
		zap.Int("classes", k),
		zap.Int("values", len(vals)),
		zap.Int("sampled", len(data)),
		zap.Float64s("breaks", breaks),
	)
	return breaks, nil
}

func distinct(sorted []float64) int {
	n := 0
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			n++
		}
	}
	return n
}

// sample picks m evenly spaced entries from sorted, keeping both ends.
func sample(sorted []float64, m int) []float64 {
	n := len(sorted)
	out := make([]float64, m)
	for i := range out {
		out[i] = sorted[i*(n-1)/(m-1)]
	}
	return out
}

// jenks runs the Fisher-Jenks dynamic program over sorted values and returns
// the upper bound of each of the k classes. Classes only split between
// distinct values, so the bounds are strictly increasing.
func jenks(sorted []float64, k int) []float64 {
	n := len(sorted)

	// Centre before accumulating to keep the prefix sums well conditioned.
	mean := floats.Sum(sorted) / float64(n)
	sum := make([]float64, n+1)
	sq := make([]float64, n+1)
	for i, v := range sorted {
		d := v - mean
		sum[i+1] = sum[i] + d
		sq[i+1] = sq[i] + d*d
	}
	// ssd of sorted[i:j].
	ssd := func(i, j int) float64 {
		s := sum[j] - sum[i]
		v := sq[j] - sq[i] - s*s/float64(j-i)
		if v < 0 {
			return 0
		}
		return v
	}
	canStart := func(i int) bool { return i == 0 || sorted[i] != sorted[i-1] }

	inf := math.Inf(1)
	// cost[c][j]: best ssd for sorted[:j] split into c+1 classes.
	// from[c][j]: start index of the last class in that split.
	cost := make([][]float64, k)
	from := make([][]int, k)
	for c := range cost {
		cost[c] = make([]float64, n+1)
		from[c] = make([]int, n+1)
		for j := range cost[c] {
			cost[c][j] = inf
		}
	}
	for j := 1; j <= n; j++ {
		if j == n || sorted[j] != sorted[j-1] {
			cost[0][j] = ssd(0, j)
		}
	}
	for c := 1; c < k; c++ {
		for j := c + 1; j <= n; j++ {
			if j < n && sorted[j] == sorted[j-1] {
				continue
			}
			for i := c; i < j; i++ {
				if !canStart(i) || math.IsInf(cost[c-1][i], 1) {
					continue
				}
				if v := cost[c-1][i] + ssd(i, j); v < cost[c][j] {
					cost[c][j] = v
					from[c][j] = i
				}
			}
		}
	}

	upper := make([]float64, k)
	j := n
	for c := k - 1; c >= 0; c-- {
		upper[c] = sorted[j-1]
		j = from[c][j]
	}
	return upper
}

// GVF returns the goodness of variance fit of breaks over values: 1 minus the
// ratio of within-class to total squared deviation.
func GVF(values []float64, breaks Breaks) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := floats.Sum(values) / float64(len(values))
	var total float64
	for _, v := range values {
		total += (v - mean) * (v - mean)
	}
	if total == 0 {
		return 1
	}

	classes := make(map[int][]float64)
	for _, v := range values {
		c := Digitize(v, breaks)
		classes[c] = append(classes[c], v)
	}
	var within float64
	for c := 0; c <= len(breaks); c++ {
		vs := classes[c]
		if len(vs) == 0 {
			continue
		}
		m := floats.Sum(vs) / float64(len(vs))
		for _, v := range vs {
			within += (v - m) * (v - m)
		}
	}
	return (total - within) / total
}
