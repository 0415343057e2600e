// Package ledger keeps the persistent record of which samples have
// been fitted and the heights that came out.
//
// The on-disk format is a plain text table consumed by downstream
// tooling: a header line
//
//	name <material_1>_height <material_2>_height …
//
// followed by one space-delimited row per successfully fitted sample.
// The file is append-only in normal operation; Reset rewrites it to
// the header alone.
//
// A Ledger is owned exclusively by one batch run. Concurrent runs
// against the same file are unsupported by design.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Errors returned by ledger operations. I/O failures are fatal to the
// whole run, since skip bookkeeping cannot be trusted without the file.
var (
	ErrHeaderMismatch = errors.New("ledger: header does not match material set")
	ErrBadRow         = errors.New("ledger: malformed row")
	ErrBadName        = errors.New("ledger: sample name must not contain whitespace")
	ErrHeightCount    = errors.New("ledger: height count does not match materials")
)

// Row is one fitted sample: its identifier and the per-material
// heights in header order.
type Row struct {
	Name    string
	Heights []float64
}

// Ledger is a file-backed, append-only record of fitted samples.
type Ledger struct {
	path      string
	materials []string
	rows      []Row
	index     map[string]int
}

// Open reads the ledger at path, creating it with a header when it
// does not exist. The materials must match an existing file's header
// exactly; a mismatch means the file belongs to a different basis and
// appending to it would corrupt the table.
func Open(path string, materials []string) (*Ledger, error) {
	l := &Ledger{
		path:      path,
		materials: append([]string(nil), materials...),
		index:     make(map[string]int),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := l.writeHeader(); err != nil {
			return nil, err
		}

		return l, nil
	}

	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}

	if err := l.parse(string(data)); err != nil {
		return nil, err
	}

	return l, nil
}

func (l *Ledger) parse(data string) error {
	sc := bufio.NewScanner(strings.NewReader(data))

	if !sc.Scan() {
		// Empty file: adopt it by writing the header.
		return l.writeHeader()
	}

	if strings.TrimSpace(sc.Text()) != l.header() {
		return fmt.Errorf("%w: %q", ErrHeaderMismatch, strings.TrimSpace(sc.Text()))
	}

	lineNo := 1

	for sc.Scan() {
		lineNo++

		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != len(l.materials)+1 {
			return fmt.Errorf("%w: line %d", ErrBadRow, lineNo)
		}

		row := Row{Name: fields[0], Heights: make([]float64, len(l.materials))}

		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return fmt.Errorf("%w: line %d: %v", ErrBadRow, lineNo, err)
			}

			row.Heights[i] = v
		}

		l.index[row.Name] = len(l.rows)
		l.rows = append(l.rows, row)
	}

	return nil
}

func (l *Ledger) header() string {
	parts := make([]string, 0, len(l.materials)+1)
	parts = append(parts, "name")

	for _, m := range l.materials {
		parts = append(parts, m+"_height")
	}

	return strings.Join(parts, " ")
}

func (l *Ledger) writeHeader() error {
	if err := os.WriteFile(l.path, []byte(l.header()+"\n"), 0o644); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	return nil
}

// Has reports whether the exact sample identifier already holds a row.
// Matching is exact: names sharing a prefix or substring never collide.
func (l *Ledger) Has(name string) bool {
	_, ok := l.index[name]
	return ok
}

// Heights returns the recorded heights for a sample, if present.
func (l *Ledger) Heights(name string) ([]float64, bool) {
	i, ok := l.index[name]
	if !ok {
		return nil, false
	}

	out := make([]float64, len(l.rows[i].Heights))
	copy(out, l.rows[i].Heights)

	return out, true
}

// Len returns the number of recorded samples.
func (l *Ledger) Len() int {
	return len(l.rows)
}

// Rows returns a copy of all recorded rows in file order.
func (l *Ledger) Rows() []Row {
	out := make([]Row, len(l.rows))

	for i, r := range l.rows {
		out[i] = Row{Name: r.Name, Heights: append([]float64(nil), r.Heights...)}
	}

	return out
}

// Materials returns the material names the ledger columns cover.
func (l *Ledger) Materials() []string {
	return append([]string(nil), l.materials...)
}

// Append records one fitted sample, writing it to the file before
// updating the in-memory view. Heights are formatted with the shortest
// representation that re-reads to the identical float64.
func (l *Ledger) Append(row Row) error {
	if strings.ContainsAny(row.Name, " \t\n") || row.Name == "" {
		return fmt.Errorf("%w: %q", ErrBadName, row.Name)
	}

	if len(row.Heights) != len(l.materials) {
		return fmt.Errorf("%w: %d for %d materials", ErrHeightCount, len(row.Heights), len(l.materials))
	}

	parts := make([]string, 0, len(row.Heights)+1)
	parts = append(parts, row.Name)

	for _, h := range row.Heights {
		parts = append(parts, strconv.FormatFloat(h, 'g', -1, 64))
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	if _, err := f.WriteString(strings.Join(parts, " ") + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("ledger: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	heights := make([]float64, len(row.Heights))
	copy(heights, row.Heights)

	l.index[row.Name] = len(l.rows)
	l.rows = append(l.rows, Row{Name: row.Name, Heights: heights})

	return nil
}

// Reset destructively rewrites the ledger to the header alone. Callers
// are expected to gate this behind explicit confirmation.
func (l *Ledger) Reset() error {
	if err := l.writeHeader(); err != nil {
		return err
	}

	l.rows = nil
	l.index = make(map[string]int)

	return nil
}
