// Command validate inspects a daily station CSV before analysis. It checks
// that rows parse, that the calendar has no long holes, that each variable is
// mostly present, and that readings are physically plausible.
//
// Usage:
//
//	go run ./cmd/validate data/usw00023183.csv \
//	  --year-upper 2021 --max-gap-days 3 --min-completeness 0.95
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
	"github.com/spf13/cobra"
)

// Plausible reading bounds in °F and inches.
const (
	minTemperature = -80.0
	maxTemperature = 140.0
	maxDailyPrecip = 40.0
)

type options struct {
	yearLower       int
	yearUpper       int
	maxGapDays      int
	minCompleteness float64
	maxMissingShare float64
	minDaysPerYear  int
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var errValidationFailed = errors.New("validation failed")

func newRootCmd(out io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "validate <station.csv>",
		Short:         "Check a daily station record for gaps and bad rows",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(_ *cobra.Command, args []string) error {
			if code := run(args[0], opts, out); code != 0 {
				return errValidationFailed
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.yearLower, "year-lower", 0, "ignore rows before this year (0 disables)")
	f.IntVar(&opts.yearUpper, "year-upper", 0, "ignore rows in or after this year (0 disables)")
	f.IntVar(&opts.maxGapDays, "max-gap-days", 3, "longest tolerated run of absent calendar days")
	f.Float64Var(&opts.minCompleteness, "min-completeness", 0.95, "minimum share of calendar days with a row")
	f.Float64Var(&opts.maxMissingShare, "max-missing", 0.05, "maximum share of missing readings per variable")
	f.IntVar(&opts.minDaysPerYear, "min-days-per-year", 330, "minimum rows for an interior year")
	return cmd
}

func run(path string, opts options, out io.Writer) int {
	fmt.Fprintln(out, "=== Station Record Validation ===")
	fmt.Fprintln(out)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "FATAL: read %s: %v\n", path, err)
		return 1
	}

	loadOpts := domain.DefaultLoadOptions()
	loadOpts.YearLowerBound = opts.yearLower
	loadOpts.YearUpperBound = opts.yearUpper

	parse, obs, stats := validateParse(data, loadOpts)
	if len(obs) == 0 {
		parse.errorf("no rows loaded")
	}
	gaps := domain.InspectGaps(obs)

	phases := []*phase{
		parse,
		validateContinuity(gaps, opts),
		validateCoverage(gaps, obs, opts),
		validateYears(obs, opts),
		validatePlausibility(obs),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows: %d read, %d loaded, %d skipped, %d outside year window\n",
		stats.RowsRead, stats.RowsLoaded, stats.RowsSkipped, stats.RowsOutOfRange)
	if len(obs) > 0 {
		fmt.Fprintf(out, "Span: %s to %s, %d of %d calendar days (%.1f%%)\n",
			gaps.FirstDate.Format(domain.DateLayout), gaps.LastDate.Format(domain.DateLayout),
			gaps.ObservedDays, gaps.ExpectedDays, 100*gaps.Completeness())
	}

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Parse ──
// Loads with the skip policy, collecting every malformed row from the
// loader's warnings.

func validateParse(data []byte, opts domain.LoadOptions) (*phase, []domain.DailyObservation, domain.LoadStats) {
	p := &phase{name: "Phase 1: Parse (rows and columns)"}

	rec := &warnRecorder{}
	opts.RowPolicy = domain.RowSkip
	obs, stats, err := domain.LoadObservations(bytes.NewReader(data), opts, slog.New(rec))
	if err != nil {
		p.errorf("%v", err)
		return p, nil, stats
	}
	for _, w := range rec.warnings {
		p.errorf("%s", w)
	}
	return p, obs, stats
}

// ── Phase 2: Continuity ──

func validateContinuity(gaps domain.GapReport, opts options) *phase {
	p := &phase{name: "Phase 2: Calendar Continuity"}
	for _, g := range gaps.DateGaps {
		if g.Days > opts.maxGapDays {
			p.errorf("%d missing days from %s to %s", g.Days,
				g.Start.Format(domain.DateLayout), g.End.Format(domain.DateLayout))
		}
	}
	if gaps.ExpectedDays > 0 && gaps.Completeness() < opts.minCompleteness {
		p.errorf("completeness %.3f below %.3f", gaps.Completeness(), opts.minCompleteness)
	}
	return p
}

// ── Phase 3: Variable Coverage ──

func validateCoverage(gaps domain.GapReport, obs []domain.DailyObservation, opts options) *phase {
	p := &phase{name: "Phase 3: Variable Coverage"}
	if len(obs) == 0 {
		return p
	}
	for _, v := range domain.Variables {
		share := float64(gaps.MissingValues[v]) / float64(len(obs))
		if share > opts.maxMissingShare {
			p.errorf("%s: %d of %d readings missing (%.1f%%)", v, gaps.MissingValues[v], len(obs), 100*share)
		}
	}
	return p
}

// ── Phase 4: Year Coverage ──
// The first and last years may be partial; interior years must be nearly full.

func validateYears(obs []domain.DailyObservation, opts options) *phase {
	p := &phase{name: "Phase 4: Year Coverage"}
	if len(obs) == 0 {
		return p
	}
	counts := map[int]int{}
	for _, o := range obs {
		counts[o.Year()]++
	}
	first, last := obs[0].Year(), obs[len(obs)-1].Year()
	for y := first + 1; y < last; y++ {
		if counts[y] < opts.minDaysPerYear {
			p.errorf("%d: only %d rows", y, counts[y])
		}
	}
	return p
}

// ── Phase 5: Plausibility ──

func validatePlausibility(obs []domain.DailyObservation) *phase {
	p := &phase{name: "Phase 5: Physical Plausibility"}
	for _, o := range obs {
		date := o.Date.Format(domain.DateLayout)
		for _, v := range []domain.Variable{domain.Tmax, domain.Tmin} {
			if t := o.Get(v); !domain.IsMissing(t) && (t < minTemperature || t > maxTemperature) {
				p.errorf("%s: %s %.1f outside [%.0f, %.0f]", date, v, t, minTemperature, maxTemperature)
			}
		}
		if !domain.IsMissing(o.Tmax) && !domain.IsMissing(o.Tmin) && o.Tmin > o.Tmax {
			p.errorf("%s: tmin %.1f above tmax %.1f", date, o.Tmin, o.Tmax)
		}
		if !domain.IsMissing(o.Prcp) && (o.Prcp < 0 || o.Prcp > maxDailyPrecip) {
			p.errorf("%s: prcp %.2f outside [0, %.0f]", date, o.Prcp, maxDailyPrecip)
		}
	}
	return p
}
