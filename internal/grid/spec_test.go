package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fieldmap/internal/geo"
)

func ptr(v float64) *float64 { return &v }

func TestNewSpec(t *testing.T) {
	tests := []struct {
		name   string
		extent geo.Extent
		res    *float64
		want   Spec
	}{
		{
			name:   "exact division",
			extent: geo.Extent{XMin: 0, XMax: 2, YMin: 0, YMax: 2},
			res:    ptr(1),
			want:   Spec{Resolution: 1, NCol: 2, NRow: 2},
		},
		{
			name:   "ceil on partial cells",
			extent: geo.Extent{XMin: 0, XMax: 2.5, YMin: 0, YMax: 1.2},
			res:    ptr(1),
			want:   Spec{Resolution: 1, NCol: 3, NRow: 2},
		},
		{
			name:   "default resolution",
			extent: geo.Extent{XMin: 0, XMax: 1000, YMin: 0, YMax: 500},
			want:   Spec{Resolution: 1, NCol: 1000, NRow: 500},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSpec(tt.extent, tt.res)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.NRow*tt.want.NCol, got.Cells())
		})
	}
}

func TestNewSpec_Errors(t *testing.T) {
	e := geo.Extent{XMin: 0, XMax: 10, YMin: 0, YMax: 10}

	_, err := NewSpec(e, ptr(0))
	assert.Error(t, err)
	_, err = NewSpec(e, ptr(-1))
	assert.Error(t, err)
	_, err = NewSpec(geo.Extent{XMin: 1, XMax: 0, YMin: 0, YMax: 1}, ptr(1))
	assert.Error(t, err)
	_, err = NewSpec(geo.Extent{XMin: 0, XMax: 1e6, YMin: 0, YMax: 1e6}, ptr(0.01))
	assert.ErrorContains(t, err, "cell limit")
}

func TestSpecValidate(t *testing.T) {
	e := geo.Extent{XMin: 0, XMax: 4, YMin: 0, YMax: 2}
	s, err := NewSpec(e, ptr(1))
	require.NoError(t, err)
	assert.NoError(t, s.Validate(e))

	s.NCol = 3
	assert.Error(t, s.Validate(e))
}

func TestCellCenter(t *testing.T) {
	e := geo.Extent{XMin: 10, XMax: 14, YMin: 0, YMax: 2}
	s := Spec{Resolution: 1, NCol: 4, NRow: 2}
	assert.Equal(t, geo.Coord{X: 10.5, Y: 1.5}, s.CellCenter(e, 0, 0))
	assert.Equal(t, geo.Coord{X: 13.5, Y: 0.5}, s.CellCenter(e, 1, 3))
}
