package mixture

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/robertsparkes/raman-fitting-pvc/fit"
	"github.com/robertsparkes/raman-fitting-pvc/spectrum"
)

// FitProblem packages the model and a spectrum (already restricted to
// the fitting window) as a least-squares problem over the parameter
// vector of p.
//
// The unit-height material profiles depend only on the wavenumber grid,
// so they are evaluated once here; each residual evaluation is then a
// handful of vector operations. The returned problem shares one scratch
// parameter set across calls and is not safe for concurrent use, which
// matches the strictly sequential fitting pipeline.
func (m *Model) FitProblem(t *spectrum.Table, p *ParamSet) fit.Problem {
	xs := t.Xs()
	ys := t.Ys()

	profiles := make([][]float64, m.set.Len())
	for i := range profiles {
		profiles[i] = m.materialProfile(xs, i)
	}

	work := p.Clone()
	tmp := make([]float64, len(xs))

	return fit.Problem{
		Residuals: func(vals, dst []float64) {
			work.SetValues(vals)

			bg := m.Background(work)
			for i, x := range xs {
				dst[i] = bg.At(x) - ys[i]
			}

			for i, profile := range profiles {
				vecmath.ScaleBlock(tmp, profile, work.params[i].Value)
				vecmath.AddBlockInPlace(dst, tmp)
			}
		},
		Size:  len(xs),
		Init:  p.Values(),
		Fixed: p.FixedMask(),
	}
}
