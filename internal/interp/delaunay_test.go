package interp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrient(t *testing.T) {
	a, b := vertex{0, 0}, vertex{4, 0}
	assert.Positive(t, orient(a, b, vertex{1, 1}))
	assert.Negative(t, orient(a, b, vertex{1, -1}))
	assert.Zero(t, orient(a, b, vertex{9, 0}))
}

func randomVertices(rng *rand.Rand, n int) []vertex {
	seen := map[vertex]bool{}
	var pts []vertex
	for len(pts) < n {
		p := vertex{rng.Int63n(60), rng.Int63n(40)}
		if seen[p] {
			continue
		}
		seen[p] = true
		pts = append(pts, p)
	}
	return pts
}

func TestTriangulate_CoversHull(t *testing.T) {
	pts := randomVertices(rand.New(rand.NewSource(42)), 150)

	tris, err := triangulate(pts)
	require.NoError(t, err)
	require.NotEmpty(t, tris)

	var area int64
	for _, tv := range tris {
		a, b, c := pts[tv[0]], pts[tv[1]], pts[tv[2]]
		o := orient(a, b, c)
		require.Positive(t, o, "triangles must be counter-clockwise and non-degenerate")
		area += o
		for _, p := range pts {
			require.LessOrEqual(t, inCircumcircle(a, b, c, p), int64(0), "point %v inside circumcircle of %v", p, tv)
		}
	}
	assert.Equal(t, hullArea2(pts), area)
}

func TestTriangulate_FullGrid(t *testing.T) {
	var pts []vertex
	for y := int64(0); y < 6; y++ {
		for x := int64(0); x < 8; x++ {
			pts = append(pts, vertex{x, y})
		}
	}
	tris, err := triangulate(pts)
	require.NoError(t, err)
	// A 7x5 block of unit squares splits into two triangles each.
	assert.Len(t, tris, 70)
}

func TestTriangulate_Collinear(t *testing.T) {
	for _, pts := range [][]vertex{
		{{0, 0}, {1, 1}, {2, 2}, {5, 5}},
		{{3, 0}, {3, 4}, {3, 9}},
	} {
		_, err := triangulate(pts)
		require.Error(t, err)
		assert.True(t, IsInsufficient(err))
	}
}

// inCircumcircle is positive when d lies strictly inside the circumcircle of
// the counter-clockwise triangle (a, b, c).
func inCircumcircle(a, b, c, d vertex) int64 {
	adx, ady := a.x-d.x, a.y-d.y
	bdx, bdy := b.x-d.x, b.y-d.y
	cdx, cdy := c.x-d.x, c.y-d.y
	ad := adx*adx + ady*ady
	bd := bdx*bdx + bdy*bdy
	cd := cdx*cdx + cdy*cdy
	return adx*(bdy*cd-bd*cdy) - ady*(bdx*cd-bd*cdx) + ad*(bdx*cdy-bdy*cdx)
}

// hullArea2 returns twice the area of the convex hull of pts (monotone chain).
func hullArea2(pts []vertex) int64 {
	sorted := append([]vertex(nil), pts...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && less(sorted[j], sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	var hull []vertex
	for pass := 0; pass < 2; pass++ {
		start := len(hull)
		for _, p := range sorted {
			for len(hull) >= start+2 && orient(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
				hull = hull[:len(hull)-1]
			}
			hull = append(hull, p)
		}
		hull = hull[:len(hull)-1]
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
	}
	var twice int64
	for i := range hull {
		p, q := hull[i], hull[(i+1)%len(hull)]
		twice += p.x*q.y - q.x*p.y
	}
	return twice
}

func less(a, b vertex) bool {
	return a.x < b.x || (a.x == b.x && a.y < b.y)
}
