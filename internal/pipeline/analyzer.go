package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Analysis step names used in failures and metrics.
const (
	StepTrend        = "trend"
	StepMannKendall  = "mann_kendall"
	StepComparison   = "comparison"
	StepReturnPeriod = "return_period"
	StepAggregate    = "aggregate"
)

// Extreme series names produced by the analyzer.
const (
	MetricHottestDay = "hottest_day"
)

// ClimateAnalyzer implements Analyzer by running a Plan over a dataset.
type ClimateAnalyzer struct {
	plan   Plan
	logger *slog.Logger
}

// NewAnalyzer creates a ClimateAnalyzer for plan.
func NewAnalyzer(plan Plan, logger *slog.Logger) *ClimateAnalyzer {
	return &ClimateAnalyzer{plan: plan, logger: logger}
}

// namedSeries is an annual series with the metric name it reports under.
type namedSeries struct {
	name   string
	series domain.Series
}

// Analyze runs every step of the plan. A failing step is recorded in the
// report and the remaining steps still run; only an empty dataset, a bad
// confidence level or cancellation fail the whole analysis.
func (a *ClimateAnalyzer) Analyze(ctx context.Context, ds domain.Dataset) (domain.Report, error) {
	report := domain.NewReport(ds.Source)
	report.Load = ds.Stats
	report.Confidence = a.plan.Confidence

	if !(a.plan.Confidence > 0 && a.plan.Confidence < 1) {
		return report, fmt.Errorf("analyze: %w: got %g", domain.ErrInvalidLevel, a.plan.Confidence)
	}
	if len(ds.Observations) == 0 {
		return report, fmt.Errorf("analyze %s: %w: no observations loaded", ds.Source, domain.ErrInsufficientData)
	}

	raw := ds.Observations
	report.Gaps = domain.InspectGaps(raw)

	cleaned, quality := domain.ApplyQuality(raw, a.plan.Quality)
	report.Quality = quality
	a.logger.Info("quality filter applied",
		"rows", len(cleaned),
		"precip_filled", quality.PrecipFilled,
		"precip_dropped", quality.PrecipDropped,
		"imputed", quality.Imputed,
		"unfilled", quality.Unfilled,
	)

	report.Annual = domain.AnnualSummaries(cleaned)
	report.Seasonal = domain.SeasonalSummaries(cleaned)
	report.Extremes = a.extremes(raw)

	series := a.annualSeries(&report)
	for _, e := range report.Extremes {
		series = append(series, namedSeries{name: e.Metric, series: e.Points})
	}

	if err := a.trends(ctx, &report, series); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	alpha := a.plan.alpha()
	for _, s := range series {
		res, err := domain.MannKendall(s.name, s.series, alpha)
		if err != nil {
			a.fail(&report, StepMannKendall, s.name, domain.YearRange{}, err)
			continue
		}
		report.MannKendall = append(report.MannKendall, res)
	}

	for _, s := range series {
		for _, pair := range a.plan.Comparisons {
			res, err := domain.CompareRanges(s.name, s.series, pair, a.plan.Confidence)
			if err != nil {
				a.failPair(&report, StepComparison, s.name, pair, err)
				continue
			}
			report.Comparisons = append(report.Comparisons, res)
		}
	}

	for _, p := range a.eventPredicates() {
		res, err := domain.EstimateReturnPeriod(raw, p, a.plan.ReturnPeriodWindow)
		if err != nil {
			a.fail(&report, StepReturnPeriod, p.Name, a.plan.ReturnPeriodWindow, err)
			continue
		}
		report.ReturnPeriods = append(report.ReturnPeriods, res)
	}

	return report, nil
}

// extremes derives event counts and annual maxima from the un-imputed record.
func (a *ClimateAnalyzer) extremes(raw []domain.DailyObservation) []domain.ExtremeSeries {
	out := make([]domain.ExtremeSeries, 0, 4)
	for _, p := range a.eventPredicates() {
		out = append(out, domain.CountPerYear(raw, p))
	}
	return append(out, domain.MaxPerYear(MetricHottestDay, raw, domain.Tmax))
}

func (a *ClimateAnalyzer) eventPredicates() []domain.Predicate {
	return []domain.Predicate{
		domain.FreezingDays(a.plan.FreezeThreshold),
		domain.HotDays(a.plan.HotDayThreshold),
		domain.HeavyPrecipDays(a.plan.HeavyPrecipThreshold),
	}
}

func (a *ClimateAnalyzer) annualSeries(report *domain.Report) []namedSeries {
	out := make([]namedSeries, 0, len(domain.SummaryMetrics))
	for _, m := range domain.SummaryMetrics {
		s, err := domain.AnnualSeries(report.Annual, m)
		if err != nil {
			a.fail(report, StepAggregate, string(m), domain.YearRange{}, err)
			continue
		}
		out = append(out, namedSeries{name: string(m), series: s})
	}
	return out
}

type trendJob struct {
	name   string
	series domain.Series
	rng    domain.YearRange
}

type trendOutcome struct {
	result domain.TrendResult
	err    error
}

// trends fits every (series, range) pair concurrently. Each job reads shared
// immutable series and writes only its own slot, so results keep job order.
func (a *ClimateAnalyzer) trends(ctx context.Context, report *domain.Report, series []namedSeries) error {
	var jobs []trendJob
	ranges := append([]domain.YearRange{{}}, a.plan.TrendRanges...)
	for _, s := range series {
		for _, r := range ranges {
			jobs = append(jobs, trendJob{name: s.name, series: s.series, rng: r})
		}
	}
	if a.plan.SeasonalTrends {
		for _, season := range domain.Seasons {
			for _, m := range []domain.Metric{domain.MeanTmax, domain.MeanTmin} {
				s, err := domain.SeasonalSeries(report.Seasonal, season, m)
				name := fmt.Sprintf("%s.%s", season, m)
				if err != nil {
					a.fail(report, StepAggregate, name, domain.YearRange{}, err)
					continue
				}
				jobs = append(jobs, trendJob{name: name, series: s})
			}
		}
	}

	outcomes := make([]trendOutcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.plan.workers())
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := domain.FitTrendRange(job.name, job.series, job.rng, a.plan.Confidence)
			outcomes[i] = trendOutcome{result: res, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("trend fits: %w", err)
	}

	for i, o := range outcomes {
		if o.err != nil {
			a.fail(report, StepTrend, jobs[i].name, jobs[i].rng, o.err)
			continue
		}
		report.Trends = append(report.Trends, o.result)
	}
	return nil
}

func (a *ClimateAnalyzer) fail(report *domain.Report, step, metric string, rng domain.YearRange, err error) {
	a.logger.Warn("analysis step failed",
		"step", step,
		"metric", metric,
		"range", rng.String(),
		"error", err,
	)
	report.Fail(step, metric, rng, err)
}

func (a *ClimateAnalyzer) failPair(report *domain.Report, step, metric string, pair domain.RangePair, err error) {
	a.logger.Warn("analysis step failed",
		"step", step,
		"metric", metric,
		"range", pair.String(),
		"error", err,
	)
	report.FailPair(step, metric, pair, err)
}
