// Package background models and estimates the baseline underneath the
// spectral peaks.
//
// Estimation deliberately uses window minima rather than means: a
// minimum tolerates downward noise spikes while staying below true
// signal, so the baseline never eats into peak area.
package background

import (
	"errors"
	"fmt"

	"github.com/robertsparkes/raman-fitting-pvc/spectrum"
)

// Errors returned by the estimator. Both are configuration errors that
// abort the run before fitting starts.
var (
	ErrWindowTooSparse = errors.New("background: estimation window holds too few points")
	ErrBadWindow       = errors.New("background: estimation window width must be positive")
)

// Kind selects the baseline model variant.
type Kind int

const (
	// KindPiecewise is flat at the intercept below the corner wavenumber
	// and linear above it. This is the default variant.
	KindPiecewise Kind = iota
	// KindLinear is a plain line intercept + slope·x.
	KindLinear
)

// Model is a baseline over the fitting domain.
type Model struct {
	Kind      Kind
	Intercept float64
	Slope     float64
	Corner    float64 // only meaningful for KindPiecewise
}

// At evaluates the baseline at wavenumber x.
func (m Model) At(x float64) float64 {
	switch m.Kind {
	case KindLinear:
		return m.Intercept + m.Slope*x
	default:
		if x < m.Corner {
			return m.Intercept
		}

		return m.Intercept + m.Slope*(x-m.Corner)
	}
}

// Config holds estimation parameters.
type Config struct {
	// Kind selects the baseline variant of the estimate.
	Kind Kind
	// Corner is the wavenumber where the piecewise baseline bends.
	Corner float64
	// Upper is the fitting domain's upper bound; the far-end reference
	// window ends there.
	Upper float64
	// Window is the width in 1/cm of each minimum-scan window.
	Window float64
	// MinPoints is the minimum number of samples a window must hold for
	// its minimum to count as an estimate. Defaults to 2.
	MinPoints int
	// Flat selects the flat mode: slope 0, intercept = global minimum.
	Flat bool
}

func normalizeConfig(cfg Config) Config {
	if cfg.MinPoints <= 0 {
		cfg.MinPoints = 2
	}

	return cfg
}

// Estimate derives a baseline Model from the spectrum.
//
// In the default piecewise mode the intercept is the minimum intensity
// in the window preceding the corner, the far-end reference is the
// minimum in the window ending at Upper, and
//
//	slope = (farEnd − intercept) / (Upper − Corner)
//
// In flat mode the result has slope 0 and intercept equal to the global
// minimum over the whole table.
func Estimate(t *spectrum.Table, cfg Config) (Model, error) {
	cfg = normalizeConfig(cfg)

	if cfg.Flat {
		return Model{
			Kind:      cfg.Kind,
			Intercept: t.MinY(),
			Slope:     0,
			Corner:    cfg.Corner,
		}, nil
	}

	if cfg.Window <= 0 {
		return Model{}, ErrBadWindow
	}

	intercept, err := windowMin(t, cfg.Corner-cfg.Window, cfg.Corner, cfg.MinPoints)
	if err != nil {
		return Model{}, fmt.Errorf("%w (corner window ending at %g)", err, cfg.Corner)
	}

	farEnd, err := windowMin(t, cfg.Upper-cfg.Window, cfg.Upper, cfg.MinPoints)
	if err != nil {
		return Model{}, fmt.Errorf("%w (far-end window ending at %g)", err, cfg.Upper)
	}

	span := cfg.Upper - cfg.Corner
	if span <= 0 {
		return Model{}, fmt.Errorf("background: upper bound %g not above corner %g", cfg.Upper, cfg.Corner)
	}

	slope := (farEnd - intercept) / span

	if cfg.Kind == KindLinear {
		// Re-anchor the corner-relative line at x = 0.
		return Model{
			Kind:      KindLinear,
			Intercept: intercept - slope*cfg.Corner,
			Slope:     slope,
		}, nil
	}

	return Model{
		Kind:      KindPiecewise,
		Intercept: intercept,
		Slope:     slope,
		Corner:    cfg.Corner,
	}, nil
}

func windowMin(t *spectrum.Table, lo, hi float64, minPoints int) (float64, error) {
	if t.CountIn(lo, hi) < minPoints {
		return 0, fmt.Errorf("%w: %d in [%g, %g], need %d", ErrWindowTooSparse, t.CountIn(lo, hi), lo, hi, minPoints)
	}

	v, _ := t.MinYIn(lo, hi)

	return v, nil
}
