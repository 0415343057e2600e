package mixture

import (
	"errors"
	"fmt"

	"github.com/robertsparkes/raman-fitting-pvc/background"
)

// ErrHeightCount is returned when the number of starting heights does
// not match the number of materials in the basis.
var ErrHeightCount = errors.New("mixture: height count does not match basis")

// Param is one named model parameter with a free/fixed flag. Fixed
// parameters keep their value through the whole fit.
type Param struct {
	Name  string
	Value float64
	Fixed bool
}

// ParamSet is the ordered parameter vector of a Model: one height per
// material in basis order, then the background intercept and slope.
type ParamSet struct {
	params   []Param
	nHeights int
}

// NewParams assembles a parameter set from starting heights and a
// background estimate. All parameters start free; use SetFixed to pin
// individual ones.
func (m *Model) NewParams(heights []float64, bg background.Model) (*ParamSet, error) {
	if len(heights) != m.set.Len() {
		return nil, fmt.Errorf("%w: %d heights for %d materials", ErrHeightCount, len(heights), m.set.Len())
	}

	params := make([]Param, 0, len(heights)+2)

	for i, h := range heights {
		params = append(params, Param{
			Name:  m.set.Material(i).Name + "_height",
			Value: h,
		})
	}

	params = append(params,
		Param{Name: "intercept", Value: bg.Intercept},
		Param{Name: "slope", Value: bg.Slope},
	)

	return &ParamSet{params: params, nHeights: len(heights)}, nil
}

// Len returns the number of parameters.
func (p *ParamSet) Len() int {
	return len(p.params)
}

// At returns the i-th parameter.
func (p *ParamSet) At(i int) Param {
	return p.params[i]
}

// Names returns the parameter names in vector order.
func (p *ParamSet) Names() []string {
	names := make([]string, len(p.params))
	for i, pr := range p.params {
		names[i] = pr.Name
	}

	return names
}

// Values returns the full parameter vector, fixed entries included.
func (p *ParamSet) Values() []float64 {
	vals := make([]float64, len(p.params))
	for i, pr := range p.params {
		vals[i] = pr.Value
	}

	return vals
}

// SetValues overwrites the full parameter vector. The slice length must
// match Len.
func (p *ParamSet) SetValues(vals []float64) {
	if len(vals) != len(p.params) {
		panic("mixture: parameter vector length mismatch")
	}

	for i := range p.params {
		p.params[i].Value = vals[i]
	}
}

// FixedMask returns the per-parameter fixed flags in vector order.
func (p *ParamSet) FixedMask() []bool {
	mask := make([]bool, len(p.params))
	for i, pr := range p.params {
		mask[i] = pr.Fixed
	}

	return mask
}

// SetFixed flags the named parameter as fixed or free. Reports whether
// the name was found.
func (p *ParamSet) SetFixed(name string, fixed bool) bool {
	for i := range p.params {
		if p.params[i].Name == name {
			p.params[i].Fixed = fixed
			return true
		}
	}

	return false
}

// Heights returns the per-material heights in basis order.
func (p *ParamSet) Heights() []float64 {
	out := make([]float64, p.nHeights)
	for i := range out {
		out[i] = p.params[i].Value
	}

	return out
}

// Clone returns an independent copy of the parameter set.
func (p *ParamSet) Clone() *ParamSet {
	params := make([]Param, len(p.params))
	copy(params, p.params)

	return &ParamSet{params: params, nHeights: p.nHeights}
}
