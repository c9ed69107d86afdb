package interp

import "gonum.org/v1/gonum/spatial/kdtree"

// Compare implements kdtree.Comparable.
func (s site) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(site)
	switch d {
	case 0:
		return float64(s.x - q.x)
	case 1:
		return float64(s.y - q.y)
	default:
		panic("interp: illegal dimension")
	}
}

// Dims implements kdtree.Comparable.
func (s site) Dims() int { return 2 }

// Distance implements kdtree.Comparable and returns the squared distance.
func (s site) Distance(c kdtree.Comparable) float64 {
	q := c.(site)
	dx, dy := float64(s.x-q.x), float64(s.y-q.y)
	return dx*dx + dy*dy
}

// siteList satisfies kdtree.Interface.
type siteList []site

func (p siteList) Index(i int) kdtree.Comparable { return p[i] }
func (p siteList) Len() int { return len(p) }
func (p siteList) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p siteList) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(sitePlane{siteList: p, Dim: d}, kdtree.MedianOfMedians(sitePlane{siteList: p, Dim: d}))
}

// sitePlane sorts sites along one dimension.
type sitePlane struct {
	kdtree.Dim
	siteList
}

func (p sitePlane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.siteList[i].x < p.siteList[j].x
	}
	return p.siteList[i].y < p.siteList[j].y
}

func (p sitePlane) Slice(start, end int) kdtree.SortSlicer {
	p.siteList = p.siteList[start:end]
	return p
}

func (p sitePlane) Swap(i, j int) { p.siteList[i], p.siteList[j] = p.siteList[j], p.siteList[i] }

func fillNearest(in []site, rows, cols int, out []float64, filled []bool) {
	pts := make(siteList, len(in))
	copy(pts, in)
	tree := kdtree.New(pts, false)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			nearest, _ := tree.Nearest(site{vertex: vertex{x: int64(c), y: int64(r)}})
			i := r*cols + c
			out[i] = nearest.(site).value
			filled[i] = true
		}
	}
}
