// Package spectrum provides the ordered (wavenumber, intensity) table
// that all fitting operates on.
//
// Tables are normalized to ascending wavenumber order at construction,
// so downstream code can rely on binary-search style range scans. The
// on-disk representation is plain two-column numeric text; delimiter
// and line-ending normalization happen upstream of this package.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Errors returned by spectrum functions.
var (
	ErrEmpty      = errors.New("spectrum: table has no points")
	ErrBadColumns = errors.New("spectrum: line does not hold two numeric columns")
	ErrEmptyRange = errors.New("spectrum: wavenumber range contains no points")
)

// Point is a single (wavenumber, intensity) sample.
type Point struct {
	X float64 // wavenumber in 1/cm
	Y float64 // intensity in arbitrary counts
}

// Table is an ordered sequence of spectral samples.
//
// A Table is always non-empty and sorted by ascending wavenumber.
type Table struct {
	pts []Point
}

// New builds a Table from points, normalizing to ascending wavenumber
// order. The input slice is copied. Returns ErrEmpty for zero points.
func New(points []Point) (*Table, error) {
	if len(points) == 0 {
		return nil, ErrEmpty
	}

	pts := make([]Point, len(points))
	copy(pts, points)

	sort.SliceStable(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	return &Table{pts: pts}, nil
}

// FromColumns builds a Table from parallel x and y slices.
func FromColumns(xs, ys []float64) (*Table, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("spectrum: column length mismatch: %d vs %d", len(xs), len(ys))
	}

	pts := make([]Point, len(xs))
	for i := range xs {
		pts[i] = Point{X: xs[i], Y: ys[i]}
	}

	return New(pts)
}

// Len returns the number of samples.
func (t *Table) Len() int {
	return len(t.pts)
}

// At returns the i-th sample in ascending wavenumber order.
func (t *Table) At(i int) Point {
	return t.pts[i]
}

// Points returns a copy of all samples.
func (t *Table) Points() []Point {
	out := make([]Point, len(t.pts))
	copy(out, t.pts)

	return out
}

// Xs returns a copy of the wavenumber column.
func (t *Table) Xs() []float64 {
	out := make([]float64, len(t.pts))
	for i, p := range t.pts {
		out[i] = p.X
	}

	return out
}

// Ys returns a copy of the intensity column.
func (t *Table) Ys() []float64 {
	out := make([]float64, len(t.pts))
	for i, p := range t.pts {
		out[i] = p.Y
	}

	return out
}

// Bounds returns the lowest and highest wavenumber in the table.
func (t *Table) Bounds() (lo, hi float64) {
	return t.pts[0].X, t.pts[len(t.pts)-1].X
}

// Window returns the sub-table with lo <= x <= hi.
// Returns ErrEmptyRange when no sample falls inside the window.
func (t *Table) Window(lo, hi float64) (*Table, error) {
	i := sort.Search(len(t.pts), func(k int) bool { return t.pts[k].X >= lo })
	j := sort.Search(len(t.pts), func(k int) bool { return t.pts[k].X > hi })

	if i >= j {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrEmptyRange, lo, hi)
	}

	pts := make([]Point, j-i)
	copy(pts, t.pts[i:j])

	return &Table{pts: pts}, nil
}

// CountIn returns the number of samples with lo <= x <= hi.
func (t *Table) CountIn(lo, hi float64) int {
	i := sort.Search(len(t.pts), func(k int) bool { return t.pts[k].X >= lo })
	j := sort.Search(len(t.pts), func(k int) bool { return t.pts[k].X > hi })

	if j < i {
		return 0
	}

	return j - i
}

// MinYIn returns the minimum intensity among samples with lo <= x <= hi.
// ok is false when the window holds no samples.
func (t *Table) MinYIn(lo, hi float64) (minY float64, ok bool) {
	return t.extremumIn(lo, hi, true)
}

// MaxYIn returns the maximum intensity among samples with lo <= x <= hi.
// ok is false when the window holds no samples.
func (t *Table) MaxYIn(lo, hi float64) (maxY float64, ok bool) {
	return t.extremumIn(lo, hi, false)
}

func (t *Table) extremumIn(lo, hi float64, wantMin bool) (float64, bool) {
	best := math.NaN()
	found := false

	for _, p := range t.pts {
		if p.X < lo {
			continue
		}

		if p.X > hi {
			break
		}

		if !found || (wantMin && p.Y < best) || (!wantMin && p.Y > best) {
			best = p.Y
			found = true
		}
	}

	return best, found
}

// MinY returns the minimum intensity over the whole table.
func (t *Table) MinY() float64 {
	best := t.pts[0].Y
	for _, p := range t.pts[1:] {
		if p.Y < best {
			best = p.Y
		}
	}

	return best
}

// Nearest returns the sample closest in wavenumber to x.
func (t *Table) Nearest(x float64) Point {
	i := sort.Search(len(t.pts), func(k int) bool { return t.pts[k].X >= x })

	switch {
	case i == 0:
		return t.pts[0]
	case i == len(t.pts):
		return t.pts[len(t.pts)-1]
	}

	if x-t.pts[i-1].X <= t.pts[i].X-x {
		return t.pts[i-1]
	}

	return t.pts[i]
}
