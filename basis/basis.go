// Package basis holds the calibrated reference description of each
// material: an ordered list of fixed sub-peaks obtained by fitting a
// pure-material spectrum once and freezing the resulting locations,
// relative amplitudes and widths.
//
// A basis is loaded at startup, validated, and never mutated afterwards;
// mixture fitting only scales whole materials by a single free height.
package basis

import (
	"errors"
	"fmt"
)

// Errors reported during basis validation. All of them are
// configuration errors that abort a run before any sample is processed.
var (
	ErrNoMaterials  = errors.New("basis: no materials defined")
	ErrNoName       = errors.New("basis: material has no name")
	ErrDuplicate    = errors.New("basis: duplicate material name")
	ErrNoPeaks      = errors.New("basis: material has no sub-peaks")
	ErrPeakWidth    = errors.New("basis: sub-peak width must be positive")
	ErrPeakScale    = errors.New("basis: sub-peak scale must be in (0, 1]")
	ErrReferenceOOB = errors.New("basis: reference sub-peak index out of range")
)

// SubPeak is one fixed-shape component of a material's reference
// spectrum. Immutable after calibration.
type SubPeak struct {
	Location float64 // peak center in 1/cm
	Scale    float64 // amplitude relative to the material's tallest sub-peak, in (0, 1]
	Width    float64 // Voigt width parameter, > 0
}

// Material is one calibrated component basis.
type Material struct {
	Name      string
	Peaks     []SubPeak
	Reference int // index of the sub-peak used for initial height guesses
}

// Validate checks the calibration constraints for a single material.
func (m Material) Validate() error {
	if m.Name == "" {
		return ErrNoName
	}

	if len(m.Peaks) == 0 {
		return fmt.Errorf("%w (%s)", ErrNoPeaks, m.Name)
	}

	for i, p := range m.Peaks {
		if p.Width <= 0 {
			return fmt.Errorf("%w (%s, sub-peak %d: width %g)", ErrPeakWidth, m.Name, i, p.Width)
		}

		if p.Scale <= 0 || p.Scale > 1 {
			return fmt.Errorf("%w (%s, sub-peak %d: scale %g)", ErrPeakScale, m.Name, i, p.Scale)
		}
	}

	if m.Reference < 0 || m.Reference >= len(m.Peaks) {
		return fmt.Errorf("%w (%s: %d)", ErrReferenceOOB, m.Name, m.Reference)
	}

	return nil
}

// ReferencePeak returns the sub-peak used to seed the material's
// initial height guess.
func (m Material) ReferencePeak() SubPeak {
	return m.Peaks[m.Reference]
}

// Set is the full component basis shared by all samples of a run.
type Set struct {
	materials []Material
}

// NewSet validates the materials and assembles them into a Set.
// Peak slices are copied so later mutation of the inputs cannot reach
// the basis.
func NewSet(materials ...Material) (*Set, error) {
	if len(materials) == 0 {
		return nil, ErrNoMaterials
	}

	seen := make(map[string]bool, len(materials))
	out := make([]Material, len(materials))

	for i, m := range materials {
		if err := m.Validate(); err != nil {
			return nil, err
		}

		if seen[m.Name] {
			return nil, fmt.Errorf("%w (%s)", ErrDuplicate, m.Name)
		}

		seen[m.Name] = true

		peaks := make([]SubPeak, len(m.Peaks))
		copy(peaks, m.Peaks)
		m.Peaks = peaks
		out[i] = m
	}

	return &Set{materials: out}, nil
}

// Len returns the number of materials.
func (s *Set) Len() int {
	return len(s.materials)
}

// Material returns the i-th material in load order.
func (s *Set) Material(i int) Material {
	return s.materials[i]
}

// Names returns the material names in load order.
func (s *Set) Names() []string {
	names := make([]string, len(s.materials))
	for i, m := range s.materials {
		names[i] = m.Name
	}

	return names
}
