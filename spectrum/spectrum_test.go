package spectrum

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReadNormalizesDescendingOrder(t *testing.T) {
	in := "1400 3.5\n1000 2.0\n400 1.5\n"

	tab, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if tab.Len() != 3 {
		t.Fatalf("Len = %d, want 3", tab.Len())
	}

	for i := 1; i < tab.Len(); i++ {
		if tab.At(i).X <= tab.At(i-1).X {
			t.Fatalf("not ascending at %d: %v", i, tab.Points())
		}
	}

	if tab.At(0).Y != 1.5 || tab.At(2).Y != 3.5 {
		t.Fatalf("intensities not carried with wavenumbers: %v", tab.Points())
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	in := "400.25 1.5e-3\n612.125 0.3333333333333333\n1400 3.5\n"

	tab, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	var buf bytes.Buffer
	if err := tab.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	back, err := Read(&buf)
	if err != nil {
		t.Fatalf("re-Read: %v", err)
	}

	if back.Len() != tab.Len() {
		t.Fatalf("length changed: %d vs %d", back.Len(), tab.Len())
	}

	for i := range tab.Len() {
		if back.At(i) != tab.At(i) {
			t.Fatalf("point %d changed: %v vs %v", i, back.At(i), tab.At(i))
		}
	}
}

func TestReadRejectsEmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader("\n\n"))
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}
}

func TestReadRejectsMalformedLines(t *testing.T) {
	for _, in := range []string{"400\n", "400 abc\n", "x 1.0\n"} {
		_, err := Read(strings.NewReader(in))
		if !errors.Is(err, ErrBadColumns) {
			t.Errorf("input %q: want ErrBadColumns, got %v", in, err)
		}
	}
}

func TestWindow(t *testing.T) {
	tab := mustTable(t, []Point{{400, 1}, {500, 2}, {600, 3}, {700, 4}})

	win, err := tab.Window(450, 650)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}

	if win.Len() != 2 || win.At(0).X != 500 || win.At(1).X != 600 {
		t.Fatalf("window contents wrong: %v", win.Points())
	}

	if _, err := tab.Window(900, 1000); !errors.Is(err, ErrEmptyRange) {
		t.Fatalf("want ErrEmptyRange, got %v", err)
	}
}

func TestRangeScans(t *testing.T) {
	tab := mustTable(t, []Point{{400, 5}, {500, 2}, {600, 8}, {700, 3}})

	if n := tab.CountIn(450, 650); n != 2 {
		t.Errorf("CountIn = %d, want 2", n)
	}

	if v, ok := tab.MinYIn(450, 700); !ok || v != 2 {
		t.Errorf("MinYIn = %v, %v; want 2, true", v, ok)
	}

	if v, ok := tab.MaxYIn(450, 700); !ok || v != 8 {
		t.Errorf("MaxYIn = %v, %v; want 8, true", v, ok)
	}

	if _, ok := tab.MinYIn(800, 900); ok {
		t.Errorf("MinYIn over empty range should report not ok")
	}

	if v := tab.MinY(); v != 2 {
		t.Errorf("MinY = %v, want 2", v)
	}
}

func TestNearest(t *testing.T) {
	tab := mustTable(t, []Point{{400, 1}, {500, 2}, {600, 3}})

	cases := []struct {
		x    float64
		want float64
	}{
		{350, 400},
		{449, 400},
		{451, 500},
		{700, 600},
		{500, 500},
	}

	for _, c := range cases {
		if got := tab.Nearest(c.x); got.X != c.want {
			t.Errorf("Nearest(%g).X = %g, want %g", c.x, got.X, c.want)
		}
	}
}

func TestFromColumnsMismatch(t *testing.T) {
	if _, err := FromColumns([]float64{1, 2}, []float64{1}); err == nil {
		t.Fatalf("expected error for mismatched columns")
	}
}

func mustTable(t *testing.T, pts []Point) *Table {
	t.Helper()

	tab, err := New(pts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return tab
}
