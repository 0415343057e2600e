// Package fit implements the damped Gauss–Newton (Levenberg–Marquardt)
// least-squares solver used for mixture fitting.
//
// The solver works on a plain residual function over a float64
// parameter vector, with an optional per-parameter fixed mask; fixed
// parameters never move. It is fully deterministic: identical problems
// and configurations produce identical results.
package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Errors returned by Minimize. Hitting the iteration cap is not an
// error; see Result.Converged.
var (
	ErrNoResiduals  = errors.New("fit: problem has no residuals")
	ErrNoParams     = errors.New("fit: problem has no parameters")
	ErrMaskLength   = errors.New("fit: fixed mask length does not match parameters")
	ErrNotSolvable  = errors.New("fit: damped normal equations not solvable")
	ErrNonFiniteRSS = errors.New("fit: residuals are not finite at the initial guess")
)

const (
	defaultTolerance = 1e-10
	defaultMaxIter   = 1000
	defaultLambda    = 1e-3

	// lambdaGrow/lambdaShrink are the deterministic damping schedule.
	lambdaGrow   = 10.0
	lambdaShrink = 0.1
	lambdaMin    = 1e-12
	lambdaMax    = 1e12
)

// Problem describes one least-squares problem.
type Problem struct {
	// Residuals writes the Size residuals at params into dst.
	Residuals func(params, dst []float64)
	// Size is the number of residuals (observation points).
	Size int
	// Init is the full starting parameter vector.
	Init []float64
	// Fixed marks parameters the solver must not move. Nil means all
	// parameters are free.
	Fixed []bool
}

// Config holds solver parameters.
type Config struct {
	// Tolerance is the relative sum-of-squares reduction below which an
	// accepted step counts as convergence. Defaults to 1e-10.
	Tolerance float64
	// MaxIterations caps the outer iterations. Reaching the cap is a
	// non-fatal outcome: the best parameters found are still returned,
	// flagged as not converged. Defaults to 1000.
	MaxIterations int
	// Lambda is the initial damping factor. Defaults to 1e-3.
	Lambda float64
}

func normalizeConfig(cfg Config) Config {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = defaultTolerance
	}

	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIter
	}

	if cfg.Lambda <= 0 {
		cfg.Lambda = defaultLambda
	}

	return cfg
}

// Result is the outcome of a minimization.
type Result struct {
	// Params is the full parameter vector, fixed entries untouched.
	Params []float64
	// RSS is the residual sum of squares at Params.
	RSS float64
	// Residuals is the per-point residual vector at Params.
	Residuals []float64
	// Iterations is the number of outer iterations performed.
	Iterations int
	// Converged reports whether the tolerance was met before the
	// iteration cap.
	Converged bool
}

// RMSE returns the root-mean-square residual.
func (r Result) RMSE() float64 {
	if len(r.Residuals) == 0 {
		return 0
	}

	return math.Sqrt(r.RSS / float64(len(r.Residuals)))
}

// Minimize runs the Levenberg–Marquardt iteration on prob.
//
// Each iteration builds a forward-difference Jacobian over the free
// parameters, solves the damped normal equations
//
//	(JᵀJ + λ·diag(JᵀJ)) δ = Jᵀr
//
// by Cholesky factorization, and accepts the step if it reduces the sum
// of squares, shrinking λ; otherwise λ grows and the step is re-solved
// with the same Jacobian. Convergence is declared when an accepted step
// reduces the sum of squares by less than Tolerance relative, or when
// no damping level can improve it further.
func Minimize(prob Problem, cfg Config) (Result, error) {
	cfg = normalizeConfig(cfg)

	if prob.Size <= 0 {
		return Result{}, ErrNoResiduals
	}

	if len(prob.Init) == 0 {
		return Result{}, ErrNoParams
	}

	if prob.Fixed != nil && len(prob.Fixed) != len(prob.Init) {
		return Result{}, ErrMaskLength
	}

	params := make([]float64, len(prob.Init))
	copy(params, prob.Init)

	free := freeIndices(prob.Fixed, len(params))

	r := make([]float64, prob.Size)
	prob.Residuals(params, r)

	rss := floats.Dot(r, r)
	if math.IsNaN(rss) || math.IsInf(rss, 0) {
		return Result{}, ErrNonFiniteRSS
	}

	res := Result{
		Params:    params,
		RSS:       rss,
		Residuals: r,
	}

	if len(free) == 0 {
		res.Converged = true
		return res, nil
	}

	lambda := cfg.Lambda
	trial := make([]float64, len(params))
	rTrial := make([]float64, prob.Size)

	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		res.Iterations = iter

		jac := jacobian(prob, params, r, free)

		jtj, jtr := normalEquations(jac, r)

		improved := false

		for lambda <= lambdaMax {
			delta, err := solveDamped(jtj, jtr, lambda)
			if err != nil {
				lambda *= lambdaGrow
				continue
			}

			copy(trial, params)
			for k, j := range free {
				trial[j] -= delta[k]
			}

			prob.Residuals(trial, rTrial)

			trialRSS := floats.Dot(rTrial, rTrial)
			if trialRSS < rss && !math.IsNaN(trialRSS) {
				improved = true
				break
			}

			lambda *= lambdaGrow
		}

		if !improved {
			// No damping level reduces the sum of squares: the relative
			// reduction achievable is below any tolerance.
			res.Converged = true
			return res, nil
		}

		prevRSS := rss

		copy(params, trial)
		copy(r, rTrial)
		rss = floats.Dot(r, r)

		res.RSS = rss

		lambda *= lambdaShrink
		if lambda < lambdaMin {
			lambda = lambdaMin
		}

		if prevRSS-rss <= cfg.Tolerance*prevRSS {
			res.Converged = true
			return res, nil
		}
	}

	return res, nil
}

func freeIndices(fixed []bool, n int) []int {
	free := make([]int, 0, n)

	for i := range n {
		if fixed == nil || !fixed[i] {
			free = append(free, i)
		}
	}

	return free
}

// jacobian builds the Size×len(free) forward-difference Jacobian of the
// residuals with respect to the free parameters.
func jacobian(prob Problem, params, r []float64, free []int) *mat.Dense {
	jac := mat.NewDense(prob.Size, len(free), nil)

	p := make([]float64, len(params))
	rh := make([]float64, prob.Size)

	sqrtEps := math.Sqrt(2.220446049250313e-16)

	for k, j := range free {
		h := sqrtEps * math.Max(math.Abs(params[j]), 1)

		copy(p, params)
		p[j] += h

		prob.Residuals(p, rh)

		for i := 0; i < prob.Size; i++ {
			jac.Set(i, k, (rh[i]-r[i])/h)
		}
	}

	return jac
}

func normalEquations(jac *mat.Dense, r []float64) (*mat.SymDense, *mat.VecDense) {
	_, n := jac.Dims()

	jtj := mat.NewSymDense(n, nil)
	jtj.SymOuterK(1, jac.T())

	rVec := mat.NewVecDense(len(r), r)

	jtr := mat.NewVecDense(n, nil)
	jtr.MulVec(jac.T(), rVec)

	return jtj, jtr
}

// solveDamped solves (JᵀJ + λ·diag(JᵀJ)) δ = Jᵀr.
func solveDamped(jtj *mat.SymDense, jtr *mat.VecDense, lambda float64) ([]float64, error) {
	n, _ := jtj.Dims()

	damped := mat.NewSymDense(n, nil)
	damped.CopySym(jtj)

	for i := 0; i < n; i++ {
		d := jtj.At(i, i)
		if d == 0 {
			// Dead column (parameter without influence); damp on the
			// identity so the factorization stays positive definite.
			d = 1
		}

		damped.SetSym(i, i, jtj.At(i, i)+lambda*d)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(damped); !ok {
		return nil, fmt.Errorf("%w (lambda %g)", ErrNotSolvable, lambda)
	}

	var delta mat.VecDense
	if err := chol.SolveVecTo(&delta, jtr); err != nil {
		return nil, fmt.Errorf("%w (lambda %g)", ErrNotSolvable, lambda)
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = delta.AtVec(i)
	}

	return out, nil
}
