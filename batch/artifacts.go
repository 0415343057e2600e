package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robertsparkes/raman-fitting-pvc/fit"
	"github.com/robertsparkes/raman-fitting-pvc/mixture"
	"github.com/robertsparkes/raman-fitting-pvc/spectrum"
)

// writeArtifacts emits the per-sample output tables consumed by the
// external rendering and packaging step:
//
//	<name>_fit.txt         fitted-parameter dump
//	<name>_subtracted.txt  background-subtracted spectrum
//	<name>_<material>.txt  per-material decomposed curve
//	<name>_residual.txt    per-point fit residuals
//
// All curves are two-column tables over the fitting domain. Artifacts
// are write-once and carry no cross-sample state.
func (r *Runner) writeArtifacts(name string, win *spectrum.Table, params *mixture.ParamSet, res fit.Result) error {
	xs := win.Xs()

	if err := r.writeParamDump(name, params, res); err != nil {
		return err
	}

	bg := r.model.Background(params)

	sub := make([]float64, len(xs))
	for i, x := range xs {
		sub[i] = win.At(i).Y - bg.At(x)
	}

	if err := r.writeCurve(name+"_subtracted.txt", xs, sub); err != nil {
		return err
	}

	for i, mat := range r.model.Basis().Names() {
		curve := r.model.MaterialCurve(xs, params, i)

		if err := r.writeCurve(fmt.Sprintf("%s_%s.txt", name, mat), xs, curve); err != nil {
			return err
		}
	}

	return r.writeCurve(name+"_residual.txt", xs, res.Residuals)
}

func (r *Runner) writeCurve(file string, xs, ys []float64) error {
	t, err := spectrum.FromColumns(xs, ys)
	if err != nil {
		return fmt.Errorf("batch: artifact %s: %w", file, err)
	}

	return t.WriteFile(filepath.Join(r.cfg.OutDir, file))
}

func (r *Runner) writeParamDump(name string, params *mixture.ParamSet, res fit.Result) error {
	var sb strings.Builder

	for i := range params.Len() {
		p := params.At(i)

		state := "free"
		if p.Fixed {
			state = "fixed"
		}

		fmt.Fprintf(&sb, "%s %s %s\n", p.Name, strconv.FormatFloat(p.Value, 'g', -1, 64), state)
	}

	fmt.Fprintf(&sb, "rss %s\n", strconv.FormatFloat(res.RSS, 'g', -1, 64))
	fmt.Fprintf(&sb, "rmse %s\n", strconv.FormatFloat(res.RMSE(), 'g', -1, 64))
	fmt.Fprintf(&sb, "iterations %d\n", res.Iterations)
	fmt.Fprintf(&sb, "converged %t\n", res.Converged)

	path := filepath.Join(r.cfg.OutDir, name+"_fit.txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("batch: artifact: %w", err)
	}

	return nil
}
