// Command ramanfit decomposes measured Raman spectra into calibrated
// material contributions and records the fitted heights in a ledger.
//
// Usage:
//
//	ramanfit [flags] sample.txt [sample.txt ...]
//
// Each positional argument is a two-column spectrum file (wavenumber,
// intensity). Samples already present in the ledger are skipped, so a
// batch can be re-run idempotently. Per-sample failures are reported
// and do not stop the batch.
//
// Examples:
//
//	ramanfit -basis pvc_basis.toml sediment_*.txt
//	ramanfit -basis pvc_basis.toml -flat -quiet sample_a.txt
//	ramanfit -basis pvc_basis.toml -reset
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/robertsparkes/raman-fitting-pvc/background"
	"github.com/robertsparkes/raman-fitting-pvc/basis"
	"github.com/robertsparkes/raman-fitting-pvc/batch"
	"github.com/robertsparkes/raman-fitting-pvc/fit"
	"github.com/robertsparkes/raman-fitting-pvc/ledger"
)

func main() {
	basisPath := flag.String("basis", "", "component basis file (TOML, required)")
	ledgerPath := flag.String("ledger", "heights.txt", "ledger file recording fitted heights")
	outDir := flag.String("out", "output", "directory for per-sample artifact files")
	lo := flag.Float64("lo", 400, "fitting window lower bound in 1/cm")
	hi := flag.Float64("hi", 1800, "fitting window upper bound in 1/cm")
	corner := flag.Float64("corner", 550, "piecewise background corner wavenumber in 1/cm")
	bgWindow := flag.Float64("bgwindow", 50, "background estimation window width in 1/cm")
	flat := flag.Bool("flat", false, "flat background: slope 0, intercept at the global minimum")
	linear := flag.Bool("linear", false, "plain linear background instead of the piecewise variant")
	tol := flag.Float64("tol", 1e-10, "relative sum-of-squares convergence tolerance")
	maxIter := flag.Int("maxiter", 1000, "optimizer iteration cap")
	quiet := flag.Bool("quiet", false, "suppress per-sample artifact output")
	reset := flag.Bool("reset", false, "clear the ledger after confirmation, then exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ramanfit [flags] sample.txt [sample.txt ...]\n\n")
		fmt.Fprintf(os.Stderr, "Fits mixed-material Raman spectra against a calibrated basis.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *basisPath == "" {
		fmt.Fprintf(os.Stderr, "error: -basis is required\n")
		flag.Usage()
		os.Exit(2)
	}

	set, err := basis.LoadFile(*basisPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	led, err := ledger.Open(*ledgerPath, set.Names())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *reset {
		if !confirmReset(*ledgerPath) {
			fmt.Fprintln(os.Stderr, "reset aborted")
			os.Exit(1)
		}

		if err := led.Reset(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("ledger %s reset to header only\n", *ledgerPath)

		return
	}

	samples := flag.Args()
	if len(samples) == 0 {
		fmt.Fprintf(os.Stderr, "error: no sample files given\n")
		flag.Usage()
		os.Exit(2)
	}

	if !*quiet {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	bgKind := background.KindPiecewise
	if *linear {
		bgKind = background.KindLinear
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	runner := batch.NewRunner(batch.Config{
		WindowLo: *lo,
		WindowHi: *hi,
		Background: background.Config{
			Kind:   bgKind,
			Corner: *corner,
			Upper:  *hi,
			Window: *bgWindow,
			Flat:   *flat,
		},
		Fit: fit.Config{
			Tolerance:     *tol,
			MaxIterations: *maxIter,
		},
		OutDir:        *outDir,
		EmitArtifacts: !*quiet,
	}, set, led, log)

	reports, runErr := runner.Run(samples)

	var recorded, skipped, failedCount int

	for _, rep := range reports {
		switch rep.Outcome {
		case batch.OutcomeRecorded:
			recorded++
		case batch.OutcomeSkipped:
			skipped++
		case batch.OutcomeFailed:
			failedCount++
		}
	}

	fmt.Printf("%d recorded, %d skipped, %d failed of %d samples\n",
		recorded, skipped, failedCount, len(reports))

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: batch aborted: %v\n", runErr)
		os.Exit(1)
	}
}

// confirmReset asks on stdin before destroying ledger contents.
func confirmReset(path string) bool {
	fmt.Printf("Reset %s? This discards all recorded heights. [y/N] ", path)

	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(sc.Text()))

	return answer == "y" || answer == "yes"
}
