package grid

import "github.com/rotisserie/eris"

// Masked is a row-major grid of cell means where cells that received no
// samples are unset. Row 0 is the northernmost row.
type Masked struct {
	rows, cols int
	sum        []float64
	count      []int
}

// NewMasked returns a grid with every cell unset.
func NewMasked(rows, cols int) *Masked {
	return &Masked{
		rows:  rows,
		cols:  cols,
		sum:   make([]float64, rows*cols),
		count: make([]int, rows*cols),
	}
}

// Rows returns the number of rows.
func (m *Masked) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Masked) Cols() int { return m.cols }

// Set marks (r, c) as holding exactly v.
func (m *Masked) Set(r, c int, v float64) {
	i := m.index(r, c)
	m.sum[i] = v
	m.count[i] = 1
}

func (m *Masked) add(r, c int, v float64) {
	i := m.index(r, c)
	m.sum[i] += v
	m.count[i]++
}

func (m *Masked) index(r, c int) int {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		panic(eris.Errorf("grid: cell (%d, %d) outside %dx%d grid", r, c, m.rows, m.cols))
	}
	return r*m.cols + c
}

// Value returns the mean of cell (r, c) and whether the cell is set.
func (m *Masked) Value(r, c int) (float64, bool) {
	i := m.index(r, c)
	if m.count[i] == 0 {
		return 0, false
	}
	return m.sum[i] / float64(m.count[i]), true
}

// Count returns the number of samples aggregated in cell (r, c).
func (m *Masked) Count(r, c int) int {
	return m.count[m.index(r, c)]
}

// Valid returns the number of set cells.
func (m *Masked) Valid() int {
	n := 0
	for _, c := range m.count {
		if c > 0 {
			n++
		}
	}
	return n
}

// Each calls fn for every set cell in row-major order.
func (m *Masked) Each(fn func(r, c int, v float64)) {
	for i, n := range m.count {
		if n == 0 {
			continue
		}
		fn(i/m.cols, i%m.cols, m.sum[i]/float64(n))
	}
}

// Fill returns a dense copy with unset cells replaced by fill.
func (m *Masked) Fill(fill float64) []float64 {
	out := make([]float64, len(m.sum))
	for i, n := range m.count {
		if n == 0 {
			out[i] = fill
			continue
		}
		out[i] = m.sum[i] / float64(n)
	}
	return out
}
