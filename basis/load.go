package basis

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// File format, one block per material:
//
//	[[material]]
//	name = "pvc"
//	reference = 0        # optional; defaults to the largest-scale sub-peak
//
//	[[material.peak]]
//	location = 636.0
//	scale = 1.0
//	width = 8.0
type fileSet struct {
	Materials []fileMaterial `toml:"material"`
}

type fileMaterial struct {
	Name      string     `toml:"name"`
	Reference *int       `toml:"reference"`
	Peaks     []filePeak `toml:"peak"`
}

type filePeak struct {
	Location float64 `toml:"location"`
	Scale    float64 `toml:"scale"`
	Width    float64 `toml:"width"`
}

// Load reads a TOML component basis description.
func Load(r io.Reader) (*Set, error) {
	var fs fileSet

	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&fs); err != nil {
		return nil, fmt.Errorf("basis: decode: %w", err)
	}

	materials := make([]Material, 0, len(fs.Materials))

	for _, fm := range fs.Materials {
		m := Material{Name: fm.Name}

		for _, fp := range fm.Peaks {
			m.Peaks = append(m.Peaks, SubPeak{
				Location: fp.Location,
				Scale:    fp.Scale,
				Width:    fp.Width,
			})
		}

		if fm.Reference != nil {
			m.Reference = *fm.Reference
		} else {
			m.Reference = largestScaleIndex(m.Peaks)
		}

		materials = append(materials, m)
	}

	return NewSet(materials...)
}

// LoadFile reads a TOML component basis file.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("basis: %w", err)
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}

	return s, nil
}

func largestScaleIndex(peaks []SubPeak) int {
	best := 0
	for i, p := range peaks {
		if p.Scale > peaks[best].Scale {
			best = i
		}
	}

	return best
}
