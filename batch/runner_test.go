package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertsparkes/raman-fitting-pvc/background"
	"github.com/robertsparkes/raman-fitting-pvc/basis"
	"github.com/robertsparkes/raman-fitting-pvc/fit"
	"github.com/robertsparkes/raman-fitting-pvc/ledger"
	"github.com/robertsparkes/raman-fitting-pvc/mixture"
	"github.com/robertsparkes/raman-fitting-pvc/spectrum"
)

func testSet(t *testing.T) *basis.Set {
	t.Helper()

	set, err := basis.NewSet(
		basis.Material{
			Name: "pvc",
			Peaks: []basis.SubPeak{
				{Location: 636, Scale: 1, Width: 12},
				{Location: 695, Scale: 0.6, Width: 14},
			},
		},
		basis.Material{
			Name: "pp",
			Peaks: []basis.SubPeak{
				{Location: 1100, Scale: 1, Width: 10},
			},
		},
	)
	require.NoError(t, err)

	return set
}

// writeSyntheticSample writes a 50-point spectrum over 400-1400 1/cm
// generated exactly from heights {3, 1} over a flat background of 5.
func writeSyntheticSample(t *testing.T, dir, name string, set *basis.Set) string {
	t.Helper()

	model := mixture.New(set, background.KindPiecewise, 550)

	truth, err := model.NewParams([]float64{3, 1}, background.Model{
		Kind:      background.KindPiecewise,
		Intercept: 5,
		Corner:    550,
	})
	require.NoError(t, err)

	pts := make([]spectrum.Point, 50)
	for i := range pts {
		x := 400 + float64(i)*1000/49
		pts[i] = spectrum.Point{X: x, Y: model.Eval(x, truth)}
	}

	tab, err := spectrum.New(pts)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, tab.WriteFile(path))

	return path
}

func testRunner(t *testing.T, set *basis.Set, led *ledger.Ledger, outDir string) *Runner {
	t.Helper()

	return NewRunner(Config{
		WindowLo: 400,
		WindowHi: 1400,
		Background: background.Config{
			Corner: 550,
			Flat:   true,
		},
		Fit:           fit.Config{Tolerance: 1e-12},
		OutDir:        outDir,
		EmitArtifacts: outDir != "",
	}, set, led, nil)
}

func TestRunEndToEndIdempotent(t *testing.T) {
	dir := t.TempDir()
	set := testSet(t)

	samplePath := writeSyntheticSample(t, dir, "sample_a.txt", set)

	led, err := ledger.Open(filepath.Join(dir, "heights.txt"), set.Names())
	require.NoError(t, err)

	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	runner := testRunner(t, set, led, outDir)

	reports, err := runner.Run([]string{samplePath})
	require.NoError(t, err)
	require.Len(t, reports, 1)

	rep := reports[0]
	assert.Equal(t, "sample_a", rep.Name)
	assert.Equal(t, OutcomeRecorded, rep.Outcome)
	assert.True(t, rep.Converged)
	assert.InDelta(t, 3.0, rep.Heights[0], 1e-3)
	assert.InDelta(t, 1.0, rep.Heights[1], 1e-3)

	require.Equal(t, 1, led.Len())

	row := led.Rows()[0]
	assert.Equal(t, "sample_a", row.Name)
	assert.InDelta(t, 3.0, row.Heights[0], 1e-3)
	assert.InDelta(t, 1.0, row.Heights[1], 1e-3)

	// Second run over the same input: skipped, zero new rows.
	reports, err = runner.Run([]string{samplePath})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, OutcomeSkipped, reports[0].Outcome)
	assert.Equal(t, 1, led.Len())
}

func TestRunEmitsArtifacts(t *testing.T) {
	dir := t.TempDir()
	set := testSet(t)

	samplePath := writeSyntheticSample(t, dir, "sample_a.txt", set)

	led, err := ledger.Open(filepath.Join(dir, "heights.txt"), set.Names())
	require.NoError(t, err)

	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	_, err = testRunner(t, set, led, outDir).Run([]string{samplePath})
	require.NoError(t, err)

	for _, file := range []string{
		"sample_a_fit.txt",
		"sample_a_subtracted.txt",
		"sample_a_pvc.txt",
		"sample_a_pp.txt",
		"sample_a_residual.txt",
	} {
		_, err := os.Stat(filepath.Join(outDir, file))
		assert.NoError(t, err, file)
	}

	// Curves are over the fitting domain with one row per point.
	sub, err := spectrum.ReadFile(filepath.Join(outDir, "sample_a_subtracted.txt"))
	require.NoError(t, err)
	assert.Equal(t, 50, sub.Len())
}

func TestRunContinuesPastFailedSample(t *testing.T) {
	dir := t.TempDir()
	set := testSet(t)

	badPath := filepath.Join(dir, "broken.txt")
	require.NoError(t, os.WriteFile(badPath, []byte("not a spectrum\n"), 0o644))

	goodPath := writeSyntheticSample(t, dir, "sample_a.txt", set)

	led, err := ledger.Open(filepath.Join(dir, "heights.txt"), set.Names())
	require.NoError(t, err)

	runner := testRunner(t, set, led, "")

	reports, err := runner.Run([]string{badPath, goodPath})
	require.NoError(t, err, "per-sample failures must not abort the batch")
	require.Len(t, reports, 2)

	assert.Equal(t, "broken", reports[0].Name)
	assert.Equal(t, OutcomeFailed, reports[0].Outcome)
	assert.ErrorIs(t, reports[0].Err, spectrum.ErrBadColumns)

	assert.Equal(t, OutcomeRecorded, reports[1].Outcome)

	// The failed sample left no trace in the ledger and stays eligible.
	assert.Equal(t, 1, led.Len())
	assert.False(t, led.Has("broken"))
}

func TestRunAfterResetRefits(t *testing.T) {
	dir := t.TempDir()
	set := testSet(t)

	samplePath := writeSyntheticSample(t, dir, "sample_a.txt", set)

	led, err := ledger.Open(filepath.Join(dir, "heights.txt"), set.Names())
	require.NoError(t, err)

	runner := testRunner(t, set, led, "")

	reports, err := runner.Run([]string{samplePath})
	require.NoError(t, err)
	require.Equal(t, OutcomeRecorded, reports[0].Outcome)

	require.NoError(t, led.Reset())

	reports, err = runner.Run([]string{samplePath})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecorded, reports[0].Outcome, "reset identifiers are eligible again")
	assert.Equal(t, 1, led.Len())
}

func TestSampleName(t *testing.T) {
	assert.Equal(t, "sample_a", SampleName("/data/spectra/sample_a.txt"))
	assert.Equal(t, "sample_a", SampleName("sample_a.txt"))
	assert.Equal(t, "sample_a", SampleName("sample_a"))
}
