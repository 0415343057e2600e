package lineshape

import (
	"math"
	"testing"
)

func TestFaddeevaOnImaginaryAxis(t *testing.T) {
	// w(iy) = erfcx(y) = exp(y²)·erfc(y), which the stdlib evaluates to
	// full double precision.
	for _, y := range []float64{0.5, 1.0 / math.Sqrt2, 1, 1.5, 2, 3} {
		got := faddeeva(complex(0, y))
		want := math.Exp(y*y) * math.Erfc(y)

		if math.Abs(real(got)-want) > 1e-9 {
			t.Errorf("Re w(%gi) = %.15g, want %.15g", y, real(got), want)
		}

		if math.Abs(imag(got)) > 1e-9 {
			t.Errorf("Im w(%gi) = %.3g, want 0", y, imag(got))
		}
	}
}

func TestFaddeevaKnownValue(t *testing.T) {
	// erfcx(1) = e·erfc(1)
	got := real(faddeeva(complex(0, 1)))
	want := math.E * math.Erfc(1)

	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("w(i) = %.15g, want %.15g", got, want)
	}
}

func TestShapeUnitHeightAtCenter(t *testing.T) {
	for _, w := range []float64{0.1, 1, 8, 25, 100} {
		if got := Shape(0, w); math.Abs(got-1) > 1e-12 {
			t.Errorf("Shape(0, %g) = %.15g, want 1", w, got)
		}
	}
}

func TestShapeSymmetry(t *testing.T) {
	for _, w := range []float64{0.5, 2, 8, 30} {
		for d := 0.0; d <= 200; d += 0.7 {
			left := Shape(-d, w)
			right := Shape(d, w)

			if math.Abs(left-right) > 1e-9 {
				t.Fatalf("Shape asymmetric at delta=%g width=%g: %.12g vs %.12g", d, w, left, right)
			}
		}
	}
}

func TestShapeStrictlyUnimodal(t *testing.T) {
	const w = 8.0

	prev := Shape(0, w)
	for d := 0.25; d <= 400; d += 0.25 {
		cur := Shape(d, w)

		if cur >= prev {
			t.Fatalf("Shape not strictly decreasing at delta=%g: %.15g >= %.15g", d, cur, prev)
		}

		if cur <= 0 {
			t.Fatalf("Shape non-positive at delta=%g: %g", d, cur)
		}

		prev = cur
	}
}

func TestShapeTailExceedsGaussian(t *testing.T) {
	// The Lorentzian component gives the Voigt profile heavier tails
	// than a pure Gaussian of the same width.
	const w = 10.0

	for _, d := range []float64{50, 80, 120} {
		gauss := math.Exp(-d * d / (2 * w * w))
		if Shape(d, w) <= gauss {
			t.Errorf("Shape(%g, %g) = %g not above Gaussian tail %g", d, w, Shape(d, w), gauss)
		}
	}
}

func TestShapeInvalidWidth(t *testing.T) {
	if !math.IsNaN(Shape(1, 0)) {
		t.Errorf("Shape with zero width should be NaN")
	}

	if !math.IsNaN(Shape(1, -3)) {
		t.Errorf("Shape with negative width should be NaN")
	}
}

func BenchmarkShape(b *testing.B) {
	const w = 8.0

	b.ReportAllocs()
	b.ResetTimer()

	var sink float64
	for i := range b.N {
		sink += Shape(float64(i%100), w)
	}

	_ = sink
}
