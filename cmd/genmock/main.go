// Command genmock writes a synthetic daily station record with a known
// warming trend, and optionally the analysis report for it. Fixtures are
// produced by the real loader and analyzer so they match pipeline output.
//
// Usage:
//
//	go run ./cmd/genmock --from 1925 --to 2020 --trend 0.02 \
//	  --out data/mock/station.csv --report-out data/mock/report.json
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/climate-trends-etl/internal/adapter/file"
	"github.com/couchcryptid/climate-trends-etl/internal/domain"
	"github.com/couchcryptid/climate-trends-etl/internal/pipeline"
	"github.com/couchcryptid/climate-trends-etl/internal/synthetic"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

// fixtureTime stamps generated reports so fixtures diff cleanly.
var fixtureTime = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

type options struct {
	gen       synthetic.Options
	station   string
	out       string
	reportOut string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := options{gen: synthetic.DefaultOptions()}
	cmd := &cobra.Command{
		Use:          "genmock",
		Short:        "Generate a synthetic station CSV and its analysis report",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.gen.ToYear < opts.gen.FromYear {
				return fmt.Errorf("--to %d is before --from %d", opts.gen.ToYear, opts.gen.FromYear)
			}
			return run(cmd.Context(), opts, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.gen.FromYear, "from", opts.gen.FromYear, "first year")
	f.IntVar(&opts.gen.ToYear, "to", opts.gen.ToYear, "last year (inclusive)")
	f.Uint64Var(&opts.gen.Seed, "seed", opts.gen.Seed, "random seed")
	f.Float64Var(&opts.gen.TrendPerYear, "trend", opts.gen.TrendPerYear, "temperature trend in °F per year")
	f.Float64Var(&opts.gen.Noise, "noise", opts.gen.Noise, "daily temperature noise (standard deviation, °F)")
	f.Float64Var(&opts.gen.MissingChance, "missing", opts.gen.MissingChance, "per-value chance of a missing reading")
	f.Float64Var(&opts.gen.DropChance, "drop", opts.gen.DropChance, "per-day chance of an absent row")
	f.StringVar(&opts.station, "station", "USW00023183", "station identifier written to each row")
	f.StringVar(&opts.out, "out", "-", `CSV output path ("-" for stdout)`)
	f.StringVar(&opts.reportOut, "report-out", "", "also analyze the record and write the JSON report here")
	return cmd
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	obs := synthetic.Generate(opts.gen)

	var csv bytes.Buffer
	if err := synthetic.WriteCSV(&csv, opts.station, obs); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := writeOutput(opts.out, csv.Bytes(), stdout); err != nil {
		return fmt.Errorf("writing station fixture: %w", err)
	}
	fmt.Fprintf(stderr, "wrote %d rows for %d-%d to %s\n", len(obs), opts.gen.FromYear, opts.gen.ToYear, opts.out)

	if opts.reportOut == "" {
		return nil
	}

	// Run the real loader over the CSV bytes so skipped-row handling matches.
	loaded, stats, err := domain.LoadObservations(bytes.NewReader(csv.Bytes()), domain.DefaultLoadOptions(), nil)
	if err != nil {
		return fmt.Errorf("reload fixture: %w", err)
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	plan := pipeline.DefaultPlan()
	plan.Workers = 1
	report, err := pipeline.NewAnalyzer(plan, logger).Analyze(ctx, domain.Dataset{
		Source:       "synthetic:" + opts.station,
		Observations: loaded,
		Stats:        stats,
	})
	if err != nil {
		return fmt.Errorf("analyze fixture: %w", err)
	}

	if dir := filepath.Dir(opts.reportOut); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := file.NewReportWriter(opts.reportOut, logger).Load(ctx, report); err != nil {
		return fmt.Errorf("writing report fixture: %w", err)
	}
	printStats(stderr, report)
	return nil
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// printStats summarizes the report for updating test assertions.
func printStats(w io.Writer, r domain.Report) {
	fmt.Fprintln(w, "\n=== Stats for updating test assertions ===")
	fmt.Fprintf(w, "Years: %d, completeness %.4f\n", len(r.Annual), r.Gaps.Completeness())
	fmt.Fprintf(w, "Trends: %d, Mann-Kendall: %d, comparisons: %d, return periods: %d, failures: %d\n",
		len(r.Trends), len(r.MannKendall), len(r.Comparisons), len(r.ReturnPeriods), len(r.Failures))
	for _, t := range r.Trends {
		if t.Range.IsZero() {
			fmt.Fprintf(w, "  %-22s slope %+.4f/yr  p=%.4g\n", t.Metric, t.Slope, t.PValue)
		}
	}
	for _, rp := range r.ReturnPeriods {
		fmt.Fprintf(w, "  %-22s every %.2f years (%d events)\n", rp.Metric, rp.IntervalYears, rp.Events)
	}
}
