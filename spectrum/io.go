package spectrum

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Read parses two-column numeric text into a Table.
//
// Column 1 is the wavenumber, column 2 the intensity, separated by
// whitespace. Blank lines are ignored. The input may be in any
// monotonic order; the result is normalized to ascending wavenumbers.
func Read(r io.Reader) (*Table, error) {
	var pts []Point

	sc := bufio.NewScanner(r)
	lineNo := 0

	for sc.Scan() {
		lineNo++

		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d", ErrBadColumns, lineNo)
		}

		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadColumns, lineNo, err)
		}

		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadColumns, lineNo, err)
		}

		pts = append(pts, Point{X: x, Y: y})
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("spectrum: read: %w", err)
	}

	return New(pts)
}

// ReadFile parses the two-column file at path into a Table.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}

	return t, nil
}

// Write serializes the table as two-column text.
//
// Values are formatted with the shortest representation that parses
// back to the identical float64, so Read(Write(t)) round-trips exactly.
func (t *Table) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for _, p := range t.pts {
		_, err := fmt.Fprintf(bw, "%s %s\n",
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
		)
		if err != nil {
			return fmt.Errorf("spectrum: write: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("spectrum: write: %w", err)
	}

	return nil
}

// WriteFile serializes the table to the file at path.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("spectrum: %w", err)
	}

	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("spectrum: %w", err)
	}

	return nil
}
