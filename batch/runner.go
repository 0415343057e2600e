// Package batch drives the per-sample fitting pipeline: load and
// normalize the spectrum, consult the ledger, estimate the background,
// fit the mixture model, record the heights and emit artifacts.
//
// Samples are processed strictly sequentially. A sample that fails is
// reported and skipped over without touching the ledger, so it becomes
// eligible again on the next run; only configuration and ledger I/O
// errors abort the batch.
package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/robertsparkes/raman-fitting-pvc/background"
	"github.com/robertsparkes/raman-fitting-pvc/basis"
	"github.com/robertsparkes/raman-fitting-pvc/fit"
	"github.com/robertsparkes/raman-fitting-pvc/ledger"
	"github.com/robertsparkes/raman-fitting-pvc/mixture"
	"github.com/robertsparkes/raman-fitting-pvc/spectrum"
)

// Outcome is the terminal state of one sample.
type Outcome int

const (
	// OutcomeRecorded means the sample was fitted and its heights
	// appended to the ledger.
	OutcomeRecorded Outcome = iota
	// OutcomeSkipped means the exact sample identifier already had a
	// ledger row.
	OutcomeSkipped
	// OutcomeFailed means loading, background estimation or fitting
	// failed; the ledger was left untouched.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecorded:
		return "recorded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Config holds the per-run fitting setup shared by all samples.
type Config struct {
	// WindowLo, WindowHi bound the fitting domain in 1/cm.
	WindowLo, WindowHi float64

	// Background configures baseline estimation. Background.Upper
	// defaults to WindowHi.
	Background background.Config

	// Fit configures the optimizer.
	Fit fit.Config

	// OutDir receives per-sample artifact files when EmitArtifacts is
	// set. The directory must already exist.
	OutDir string

	// EmitArtifacts enables the per-sample output tables consumed by
	// the external rendering pipeline.
	EmitArtifacts bool
}

func normalizeConfig(cfg Config) Config {
	if cfg.Background.Upper == 0 {
		cfg.Background.Upper = cfg.WindowHi
	}

	return cfg
}

// Report is the outcome of one sample, always carrying its identifier.
type Report struct {
	Name    string
	Outcome Outcome
	Err     error // set for OutcomeFailed

	// Fit details, set for OutcomeRecorded.
	Heights    []float64
	Converged  bool
	Iterations int
	RSS        float64
}

// Runner orchestrates a batch over one ledger, which it owns
// exclusively for the duration of the run.
type Runner struct {
	cfg   Config
	model *mixture.Model
	led   *ledger.Ledger
	log   *zap.Logger
}

// NewRunner builds a Runner over a validated basis. A nil logger
// disables logging.
func NewRunner(cfg Config, set *basis.Set, led *ledger.Ledger, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}

	cfg = normalizeConfig(cfg)

	return &Runner{
		cfg:   cfg,
		model: mixture.New(set, cfg.Background.Kind, cfg.Background.Corner),
		led:   led,
		log:   log,
	}
}

// SampleName derives the sample identifier from a source path: the base
// name without its extension.
func SampleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Run processes the sample files in order. Per-sample failures are
// reported and do not stop the batch; a ledger write failure does,
// returning the reports collected so far together with the error.
func (r *Runner) Run(paths []string) ([]Report, error) {
	reports := make([]Report, 0, len(paths))

	for _, path := range paths {
		rep, fatal := r.processSample(path)
		reports = append(reports, rep)

		switch rep.Outcome {
		case OutcomeRecorded:
			r.log.Info("sample recorded",
				zap.String("sample", rep.Name),
				zap.Float64s("heights", rep.Heights),
				zap.Int("iterations", rep.Iterations),
				zap.Float64("rss", rep.RSS),
				zap.Bool("converged", rep.Converged),
			)

			if !rep.Converged {
				r.log.Warn("iteration cap reached before convergence",
					zap.String("sample", rep.Name),
					zap.Int("iterations", rep.Iterations),
				)
			}
		case OutcomeSkipped:
			r.log.Info("sample already fitted, skipping", zap.String("sample", rep.Name))
		case OutcomeFailed:
			r.log.Error("sample failed", zap.String("sample", rep.Name), zap.Error(rep.Err))
		}

		if fatal != nil {
			return reports, fatal
		}
	}

	return reports, nil
}

// processSample walks one sample through the state machine. The second
// return value is non-nil only for errors fatal to the whole run.
func (r *Runner) processSample(path string) (Report, error) {
	rep := Report{Name: SampleName(path)}

	if r.led.Has(rep.Name) {
		rep.Outcome = OutcomeSkipped
		return rep, nil
	}

	table, err := spectrum.ReadFile(path)
	if err != nil {
		return failed(rep, err), nil
	}

	win, err := table.Window(r.cfg.WindowLo, r.cfg.WindowHi)
	if err != nil {
		return failed(rep, err), nil
	}

	bg, err := background.Estimate(win, r.cfg.Background)
	if err != nil {
		return failed(rep, err), nil
	}

	params, err := r.model.NewParams(r.model.InitialHeights(win, bg), bg)
	if err != nil {
		return failed(rep, err), nil
	}

	if r.cfg.Background.Flat {
		params.SetFixed("slope", true)
	}

	res, err := fit.Minimize(r.model.FitProblem(win, params), r.cfg.Fit)
	if err != nil {
		return failed(rep, err), nil
	}

	params.SetValues(res.Params)

	if r.cfg.EmitArtifacts {
		if err := r.writeArtifacts(rep.Name, win, params, res); err != nil {
			return failed(rep, err), nil
		}
	}

	rep.Heights = params.Heights()
	rep.Converged = res.Converged
	rep.Iterations = res.Iterations
	rep.RSS = res.RSS

	if err := r.led.Append(ledger.Row{Name: rep.Name, Heights: rep.Heights}); err != nil {
		// The ledger is the run's source of truth; without it, skip
		// bookkeeping is broken for every later sample.
		rep.Outcome = OutcomeFailed
		rep.Err = err

		return rep, err
	}

	rep.Outcome = OutcomeRecorded

	return rep, nil
}

func failed(rep Report, err error) Report {
	rep.Outcome = OutcomeFailed
	rep.Err = err

	return rep
}
