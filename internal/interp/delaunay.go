package interp

import "github.com/fogleman/delaunay"

// vertex is an integer grid coordinate.
type vertex struct {
	x, y int64
}

// orient returns twice the signed area of (a, b, c): positive when the
// points turn counter-clockwise. Grid coordinates keep it exact.
func orient(a, b, c vertex) int64 {
	return (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
}

// triangulate returns the Delaunay triangles of pts as counter-clockwise
// index triples. Zero-area triangles are dropped.
func triangulate(pts []vertex) ([][3]int, error) {
	in := make([]delaunay.Point, len(pts))
	for i, p := range pts {
		in[i] = delaunay.Point{X: float64(p.x), Y: float64(p.y)}
	}
	t, err := delaunay.Triangulate(in)
	if err != nil {
		return nil, &InsufficientDataError{Valid: len(pts), Reason: "valid cells are collinear"}
	}

	tris := make([][3]int, 0, len(t.Triangles)/3)
	for i := 0; i+2 < len(t.Triangles); i += 3 {
		a, b, c := t.Triangles[i], t.Triangles[i+1], t.Triangles[i+2]
		switch o := orient(pts[a], pts[b], pts[c]); {
		case o > 0:
			tris = append(tris, [3]int{a, b, c})
		case o < 0:
			tris = append(tris, [3]int{a, c, b})
		}
	}
	if len(tris) == 0 {
		return nil, &InsufficientDataError{Valid: len(pts), Reason: "valid cells are collinear"}
	}
	return tris, nil
}
