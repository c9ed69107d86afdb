package classify

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fieldmap/internal/geo"
	"github.com/sells-group/fieldmap/internal/raster"
)

func rowField(t *testing.T, nodata float64, vals ...float64) *raster.Field {
	t.Helper()
	f, err := raster.New(vals, 1, len(vals), nodata, geo.Coord{X: 0, Y: 1}, 1, "EPSG:4326")
	require.NoError(t, err)
	return f
}

func TestDigitize_RightInclusive(t *testing.T) {
	breaks := Breaks{0, 1, 2}
	var got []int
	for _, v := range []float64{-1, 0.5, 1.5, 5} {
		got = append(got, Digitize(v, breaks))
	}
	assert.Equal(t, []int{0, 1, 2, 3}, got)

	assert.Equal(t, 0, Digitize(0, breaks))
	assert.Equal(t, 1, Digitize(1, breaks))
	assert.Equal(t, 2, Digitize(2, breaks))
	assert.Equal(t, 3, Digitize(math.Nextafter(2, 3), breaks))
}

func TestComputeBreaks_NaturalGroups(t *testing.T) {
	f := rowField(t, -9999, 10.1, 1, 5.1, -9999, 1.1, 10, 5, 1.2, 5.2)

	breaks, err := ComputeBreaks(f, 3)
	require.NoError(t, err)
	assert.Equal(t, Breaks{math.Nextafter(1, math.Inf(-1)), 1.2, 5.2, 10.1}, breaks)
}

func TestComputeBreaks_TooFewDistinct(t *testing.T) {
	f := rowField(t, -9999, 1, 2, 3, 1, 2, 3, -9999)

	_, err := ComputeBreaks(f, 5)
	require.Error(t, err)
	assert.True(t, IsClassification(err))

	_, err = ComputeBreaks(f, 3)
	assert.True(t, IsClassification(err))

	breaks, err := ComputeBreaks(f, 2)
	require.NoError(t, err)
	assert.Len(t, breaks, 3)
}

func TestComputeBreaks_InvalidK(t *testing.T) {
	_, err := ComputeBreaks(rowField(t, -1, 1, 2, 3), 0)
	assert.True(t, IsClassification(err))
}

func TestComputeBreaks_Ties(t *testing.T) {
	f := rowField(t, -9999, 1, 1, 1, 1, 2, 2, 3, 3, 3, 9)

	breaks, err := ComputeBreaks(f, 3)
	require.NoError(t, err)
	require.NoError(t, breaks.Validate())
	assert.Equal(t, 9.0, breaks[len(breaks)-1])
}

func TestComputeBreaks_Monotone(t *testing.T) {
	vals := make([]float64, 500)
	for i := range vals {
		x := float64(i)
		vals[i] = math.Sin(x*0.37)*40 + x*0.1
	}
	f := rowField(t, -9999, vals...)

	for k := 1; k <= 8; k++ {
		breaks, err := ComputeBreaks(f, k)
		require.NoError(t, err)
		require.Len(t, breaks, k+1)
		require.NoError(t, breaks.Validate())
		stats := f.Stats()
		assert.Less(t, breaks[0], stats.Min)
		assert.Equal(t, stats.Max, breaks[k])
	}
}

func TestComputeBreaks_SampledDeterministic(t *testing.T) {
	vals := make([]float64, 10000)
	for i := range vals {
		vals[i] = float64((i*7919)%10000) / 100
	}
	f := rowField(t, -9999, vals...)

	a, err := ComputeBreaks(f, 5, WithMaxSample(200))
	require.NoError(t, err)
	b, err := ComputeBreaks(f, 5, WithMaxSample(200))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 99.99, a[5])
	assert.Less(t, a[0], 0.0)
	require.NoError(t, a.Validate())
}

func TestApplyBreaks_NoDataOnlyInClassZero(t *testing.T) {
	f := rowField(t, -9999, 3, -9999, 7, 12, -9999, 20, 25, 1)
	breaks, err := ComputeBreaks(f, 3)
	require.NoError(t, err)

	out, err := ApplyBreaks(f, breaks)
	require.NoError(t, err)

	for i, v := range f.Data {
		if v == -9999 {
			assert.Equal(t, -9999.0, out.Data[i], "cell %d", i)
			continue
		}
		assert.GreaterOrEqual(t, out.Data[i], 1.0, "cell %d", i)
		assert.LessOrEqual(t, out.Data[i], 3.0, "cell %d", i)
	}
	assert.Equal(t, -9999.0, out.NoData)
	assert.Equal(t, f.Origin, out.Origin)
	assert.Equal(t, f.CRS, out.CRS)
	assert.Equal(t, []float64{3, -9999, 7, 12, -9999, 20, 25, 1}, f.Data)
}

func TestApplyBreaks_LowestGroupIsClassOne(t *testing.T) {
	vals := make([]float64, 11)
	for i := range vals {
		vals[i] = float64(i + 1)
	}
	f := rowField(t, -9999, vals...)

	breaks, err := ComputeBreaks(f, 5)
	require.NoError(t, err)
	assert.Equal(t, Breaks{math.Nextafter(1, math.Inf(-1)), 2, 4, 6, 8, 11}, breaks)
	assert.Equal(t, 5, breaks.Classes())

	out, err := ApplyBreaks(f, breaks)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 5}, out.Data)
	assert.NotContains(t, out.Data, -9999.0)
}

func TestApplyBreaks_SortedValuesGiveNonDecreasingClasses(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		n := 20 + rng.Intn(200)
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = rng.NormFloat64()*50 + float64(rng.Intn(4))*100
		}
		sort.Float64s(vals)
		f := rowField(t, -9999, vals...)

		k := 1 + rng.Intn(7)
		breaks, err := ComputeBreaks(f, k)
		require.NoError(t, err)
		out, err := ApplyBreaks(f, breaks)
		require.NoError(t, err)

		for i := 1; i < len(out.Data); i++ {
			require.LessOrEqual(t, out.Data[i-1], out.Data[i], "trial %d cell %d", trial, i)
		}
		assert.Equal(t, 1.0, out.Data[0])
		assert.Equal(t, float64(k), out.Data[n-1])
	}
}

func TestApplyBreaks_Errors(t *testing.T) {
	tests := []struct {
		name   string
		field  func(t *testing.T) *raster.Field
		breaks Breaks
	}{
		{
			name:   "valid value below lowest break",
			field:  func(t *testing.T) *raster.Field { return rowField(t, -9999, -9999, 1, 4, 8) },
			breaks: Breaks{2, 5, 10},
		},
		{
			name:   "valid value equal to lowest break",
			field:  func(t *testing.T) *raster.Field { return rowField(t, -9999, 2, 4, 8) },
			breaks: Breaks{2, 5, 10},
		},
		{
			name:   "nodata collides with a class index",
			field:  func(t *testing.T) *raster.Field { return rowField(t, 2, 2, 4, 8) },
			breaks: Breaks{3, 5, 10},
		},
		{
			name:   "nodata above the classes",
			field:  func(t *testing.T) *raster.Field { return rowField(t, 100, 100, 4, 8) },
			breaks: Breaks{3, 5, 10},
		},
		{
			name:   "nan nodata",
			field:  func(t *testing.T) *raster.Field { return rowField(t, math.NaN(), math.NaN(), 4, 8) },
			breaks: Breaks{3, 5, 10},
		},
		{
			name:   "breaks not increasing",
			field:  func(t *testing.T) *raster.Field { return rowField(t, -9999, 4, 8) },
			breaks: Breaks{3, 3, 10},
		},
		{
			name:   "single break",
			field:  func(t *testing.T) *raster.Field { return rowField(t, -9999, 4, 8) },
			breaks: Breaks{3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyBreaks(tt.field(t), tt.breaks)
			require.Error(t, err)
			assert.True(t, IsClassification(err))
		})
	}
}

func TestApplyBreaks_NoRefill(t *testing.T) {
	f := rowField(t, 100, 4, 8, 10)

	out, err := ApplyBreaks(f, Breaks{3, 5, 10})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 2}, out.Data)
}

func TestGVF(t *testing.T) {
	vals := []float64{1, 1.1, 1.2, 5, 5.1, 5.2, 10, 10.1}

	good := GVF(vals, Breaks{0.5, 1.2, 5.2, 10.1})
	poor := GVF(vals, Breaks{0.5, 5, 5.1, 10.1})
	assert.Greater(t, good, 0.99)
	assert.Less(t, poor, good)
	assert.Equal(t, 1.0, GVF([]float64{2, 2}, Breaks{1, 2}))
	assert.Zero(t, GVF(nil, Breaks{1, 2}))
}
