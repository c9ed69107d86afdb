package interp

import (
	"slices"

	"gonum.org/v1/gonum/mat"
)

// patch evaluates an interpolant over one triangle at barycentric
// coordinates (u, v, w) relative to the triangle's vertices.
type patch func(u, v, w float64) float64

func fillTriangulated(in []site, method Method, cols int, out []float64, filled []bool) error {
	pts := make([]vertex, len(in))
	for i, s := range in {
		pts[i] = s.vertex
	}
	tris, err := triangulate(pts)
	if err != nil {
		return err
	}

	var grads [][2]float64
	if method == Cubic {
		grads = estimateGradients(in, tris)
	}

	for _, tv := range tris {
		a, b, c := in[tv[0]], in[tv[1]], in[tv[2]]
		var f patch
		if method == Cubic {
			f = cubicPatch(a, b, c, grads[tv[0]], grads[tv[1]], grads[tv[2]])
		} else {
			f = func(u, v, w float64) float64 { return u*a.value + v*b.value + w*c.value }
		}
		scanTriangle(a.vertex, b.vertex, c.vertex, func(x, y int64, u, v, w float64) {
			i := int(y)*cols + int(x)
			out[i] = f(u, v, w)
			filled[i] = true
		})
	}
	return nil
}

// scanTriangle visits every integer coordinate inside or on the boundary of
// the counter-clockwise triangle abc with its barycentric coordinates.
func scanTriangle(a, b, c vertex, fn func(x, y int64, u, v, w float64)) {
	area := float64(orient(a, b, c))
	minX, maxX := min(a.x, b.x, c.x), max(a.x, b.x, c.x)
	minY, maxY := min(a.y, b.y, c.y), max(a.y, b.y, c.y)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := vertex{x, y}
			wa, wb, wc := orient(b, c, p), orient(c, a, p), orient(a, b, p)
			if wa < 0 || wb < 0 || wc < 0 {
				continue
			}
			fn(x, y, float64(wa)/area, float64(wb)/area, float64(wc)/area)
		}
	}
}

// estimateGradients fits a plane through each vertex and its triangulation
// neighbours by inverse-distance-weighted least squares.
func estimateGradients(in []site, tris [][3]int) [][2]float64 {
	neighbours := make([][]int, len(in))
	for _, tv := range tris {
		for k := 0; k < 3; k++ {
			i := tv[k]
			neighbours[i] = append(neighbours[i], tv[(k+1)%3], tv[(k+2)%3])
		}
	}
	for i := range neighbours {
		slices.Sort(neighbours[i])
		neighbours[i] = slices.Compact(neighbours[i])
	}

	grads := make([][2]float64, len(in))
	a := mat.NewSymDense(2, nil)
	rhs := mat.NewVecDense(2, nil)
	var g mat.VecDense
	var chol mat.Cholesky
	for i, nbs := range neighbours {
		if len(nbs) < 2 {
			continue
		}
		var sxx, sxy, syy, sxf, syf float64
		for _, j := range nbs {
			dx := float64(in[j].x - in[i].x)
			dy := float64(in[j].y - in[i].y)
			df := in[j].value - in[i].value
			w := 1 / (dx*dx + dy*dy)
			sxx += w * dx * dx
			sxy += w * dx * dy
			syy += w * dy * dy
			sxf += w * dx * df
			syf += w * dy * df
		}
		if sxx*syy-sxy*sxy <= 1e-12*sxx*syy {
			continue
		}
		a.SetSym(0, 0, sxx)
		a.SetSym(0, 1, sxy)
		a.SetSym(1, 1, syy)
		rhs.SetVec(0, sxf)
		rhs.SetVec(1, syf)
		if ok := chol.Factorize(a); !ok {
			continue
		}
		if err := chol.SolveVecTo(&g, rhs); err != nil {
			continue
		}
		grads[i] = [2]float64{g.AtVec(0), g.AtVec(1)}
	}
	return grads
}

// cubicPatch builds the cubic Bézier triangle interpolating the vertex
// values and gradients of abc. Edge curves depend only on the two edge
// vertices, so adjacent patches agree along shared edges.
func cubicPatch(a, b, c site, ga, gb, gc [2]float64) patch {
	dir := func(g [2]float64, from, to site) float64 {
		return (g[0]*float64(to.x-from.x) + g[1]*float64(to.y-from.y)) / 3
	}

	b300, b030, b003 := a.value, b.value, c.value
	b210 := a.value + dir(ga, a, b)
	b201 := a.value + dir(ga, a, c)
	b120 := b.value + dir(gb, b, a)
	b021 := b.value + dir(gb, b, c)
	b102 := c.value + dir(gc, c, a)
	b012 := c.value + dir(gc, c, b)

	e := (b210 + b201 + b120 + b021 + b102 + b012) / 6
	mid := (b300 + b030 + b003) / 3
	b111 := e + (e-mid)/2

	return func(u, v, w float64) float64 {
		return b300*u*u*u + b030*v*v*v + b003*w*w*w +
			3*(b210*u*u*v+b201*u*u*w+b120*u*v*v+b021*v*v*w+b102*u*w*w+b012*v*w*w) +
			6*b111*u*v*w
	}
}
