// Package mixture composes the fitted model: a baseline plus one
// scaled copy of each material's calibrated sub-peak set.
//
// The modeled intensity at wavenumber x is
//
//	y(x) = background(x) + Σ_material height · Σ_subpeak scale · Shape(x − location, width)
//
// Sub-peak locations, scales and widths are frozen calibration data;
// mixture fitting only moves the per-material heights and the
// background parameters.
package mixture

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/robertsparkes/raman-fitting-pvc/background"
	"github.com/robertsparkes/raman-fitting-pvc/basis"
	"github.com/robertsparkes/raman-fitting-pvc/lineshape"
	"github.com/robertsparkes/raman-fitting-pvc/spectrum"
)

// guessHalfWidth is the half width in 1/cm of the window around a
// material's reference sub-peak scanned for the initial height guess.
const guessHalfWidth = 5.0

// Model ties a component basis to a baseline variant.
type Model struct {
	set    *basis.Set
	bgKind background.Kind
	corner float64
}

// New builds a Model over the given basis. The corner wavenumber is
// structural: it selects where a piecewise baseline bends and is never
// moved by the optimizer.
func New(set *basis.Set, bgKind background.Kind, corner float64) *Model {
	return &Model{set: set, bgKind: bgKind, corner: corner}
}

// Basis returns the component basis the model was built over.
func (m *Model) Basis() *basis.Set {
	return m.set
}

// Background reconstructs the baseline model from a parameter set.
func (m *Model) Background(p *ParamSet) background.Model {
	return background.Model{
		Kind:      m.bgKind,
		Intercept: p.params[m.set.Len()].Value,
		Slope:     p.params[m.set.Len()+1].Value,
		Corner:    m.corner,
	}
}

// Eval returns the modeled intensity at a single wavenumber.
func (m *Model) Eval(x float64, p *ParamSet) float64 {
	y := m.Background(p).At(x)

	for i := range m.set.Len() {
		y += p.params[i].Value * materialShape(m.set.Material(i), x)
	}

	return y
}

// EvalColumns returns the modeled intensity at every wavenumber in xs.
//
// Material contributions are accumulated with vector kernels; the
// result equals calling Eval per point.
func (m *Model) EvalColumns(xs []float64, p *ParamSet) []float64 {
	out := make([]float64, len(xs))

	bg := m.Background(p)
	for i, x := range xs {
		out[i] = bg.At(x)
	}

	tmp := make([]float64, len(xs))

	for i := range m.set.Len() {
		vecmath.ScaleBlock(tmp, m.materialProfile(xs, i), p.params[i].Value)
		vecmath.AddBlockInPlace(out, tmp)
	}

	return out
}

// MaterialCurve returns the decomposed contribution of material i
// (height already applied) over xs.
func (m *Model) MaterialCurve(xs []float64, p *ParamSet, i int) []float64 {
	out := make([]float64, len(xs))
	vecmath.ScaleBlock(out, m.materialProfile(xs, i), p.params[i].Value)

	return out
}

// materialProfile evaluates material i's unit-height profile over xs.
func (m *Model) materialProfile(xs []float64, i int) []float64 {
	mat := m.set.Material(i)

	out := make([]float64, len(xs))
	for k, x := range xs {
		out[k] = materialShape(mat, x)
	}

	return out
}

func materialShape(mat basis.Material, x float64) float64 {
	y := 0.0
	for _, p := range mat.Peaks {
		y += p.Scale * lineshape.Shape(x-p.Location, p.Width)
	}

	return y
}

// InitialHeights derives one starting height per material: the maximum
// observed intensity within ±5 1/cm of the material's reference
// sub-peak, minus the background estimate there. On grids too coarse to
// place a sample inside the window, the nearest sample is used instead.
// Guesses never go below zero.
func (m *Model) InitialHeights(t *spectrum.Table, bg background.Model) []float64 {
	heights := make([]float64, m.set.Len())

	for i := range m.set.Len() {
		loc := m.set.Material(i).ReferencePeak().Location

		peak, ok := t.MaxYIn(loc-guessHalfWidth, loc+guessHalfWidth)
		if !ok {
			peak = t.Nearest(loc).Y
		}

		h := peak - bg.At(loc)
		if h < 0 {
			h = 0
		}

		heights[i] = h
	}

	return heights
}
