package pipeline_test

import (
	"context"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
	"github.com/couchcryptid/climate-trends-etl/internal/pipeline"
	"github.com/couchcryptid/climate-trends-etl/internal/synthetic"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func day(y int, m time.Month, d int, tmax, tmin, prcp float64) domain.DailyObservation {
	return domain.DailyObservation{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Tmax: tmax, Tmin: tmin, Prcp: prcp}
}

func syntheticDataset() domain.Dataset {
	opts := synthetic.DefaultOptions()
	opts.FromYear = 1960
	opts.ToYear = 1990
	obs := synthetic.Generate(opts)
	return domain.Dataset{
		Source:       "synthetic",
		Observations: obs,
		Stats:        domain.LoadStats{RowsRead: len(obs), RowsLoaded: len(obs)},
	}
}

func syntheticPlan() pipeline.Plan {
	plan := pipeline.DefaultPlan()
	plan.Quality.Temperature[0].Floor = domain.NoFloor
	plan.TrendRanges = []domain.YearRange{{From: 1960, To: 1975}, {From: 1975, To: 1990}}
	plan.Comparisons = []domain.RangePair{{
		First:  domain.YearRange{From: 1960, To: 1975},
		Second: domain.YearRange{From: 1976, To: 1990},
	}}
	plan.HotDayThreshold = 90
	plan.Workers = 4
	return plan
}

func TestClimateAnalyzer_Analyze_SyntheticRecord(t *testing.T) {
	freezeClock(t)
	a := pipeline.NewAnalyzer(syntheticPlan(), slog.Default())

	report, err := a.Analyze(context.Background(), syntheticDataset())
	require.NoError(t, err)

	assert.Equal(t, "synthetic", report.Source)
	assert.Equal(t, fixedNow, report.GeneratedAt)
	assert.NotEmpty(t, report.RunID)
	assert.Empty(t, report.Failures)

	assert.Len(t, report.Annual, 31)
	assert.Len(t, report.Seasonal, 31*4)
	assert.Len(t, report.Extremes, 4)
	// 3 summary metrics + 4 extreme series, each over the full record and
	// two ranges, plus 4 seasons x 2 temperatures.
	assert.Len(t, report.Trends, 7*3+8)
	assert.Len(t, report.MannKendall, 7)
	assert.Len(t, report.Comparisons, 7)
	assert.Len(t, report.ReturnPeriods, 3)

	first := report.Trends[0]
	assert.Equal(t, "mean_tmax", first.Metric)
	assert.True(t, first.Range.IsZero())
	assert.Equal(t, 31, first.N)
	assert.InDelta(t, 0.02, first.Slope, 0.025)
	assert.Less(t, first.CILower, first.Slope)
	assert.Greater(t, first.CIUpper, first.Slope)

	assert.Equal(t, domain.YearRange{From: 1960, To: 1975}, report.Trends[1].Range)
	assert.Equal(t, domain.YearRange{From: 1975, To: 1990}, report.Trends[2].Range)
	assert.Equal(t, "winter.mean_tmax", report.Trends[21].Metric)
}

func TestClimateAnalyzer_Analyze_Deterministic(t *testing.T) {
	freezeClock(t)
	a := pipeline.NewAnalyzer(syntheticPlan(), slog.Default())
	ds := syntheticDataset()

	r1, err := a.Analyze(context.Background(), ds)
	require.NoError(t, err)
	r2, err := a.Analyze(context.Background(), ds)
	require.NoError(t, err)

	ignoreRunID := cmpopts.IgnoreFields(domain.Report{}, "RunID")
	if diff := cmp.Diff(r1, r2, ignoreRunID, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("repeated analysis differs (-first +second):\n%s", diff)
	}
	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestClimateAnalyzer_Analyze_ExtremesUseRawData(t *testing.T) {
	ds := domain.Dataset{Source: "raw", Observations: []domain.DailyObservation{
		day(2000, time.January, 1, 45, 30, 0),
		day(2000, time.January, 2, 45, math.NaN(), 0),
		day(2000, time.January, 3, 45, 30, 0),
		day(2001, time.January, 1, 45, 40, 0),
	}}
	a := pipeline.NewAnalyzer(pipeline.DefaultPlan(), slog.Default())

	report, err := a.Analyze(context.Background(), ds)
	require.NoError(t, err)

	// The gap on Jan 2 is imputed to 30 for the summaries but does not
	// count as a freezing day.
	assert.Equal(t, 1, report.Quality.Imputed[domain.Tmin])
	require.NotEmpty(t, report.Extremes)
	freezing := report.Extremes[0]
	assert.Equal(t, "freezing_days", freezing.Metric)
	assert.Equal(t, domain.Series{{Year: 2000, Value: 2}, {Year: 2001, Value: 0}}, freezing.Points)
	assert.InDelta(t, 30.0, report.Annual[0].MeanTmin, 1e-9)
}

func TestClimateAnalyzer_Analyze_RecordsStepFailures(t *testing.T) {
	ds := domain.Dataset{Source: "short", Observations: []domain.DailyObservation{
		day(2000, time.July, 1, 90, 70, 0.2),
		day(2001, time.July, 1, 91, 71, 0.1),
		day(2002, time.July, 1, 92, 72, 0),
	}}
	plan := pipeline.DefaultPlan()
	plan.SeasonalTrends = false
	plan.TrendRanges = []domain.YearRange{{From: 1925, To: 1970}, {From: 1970, To: 1990}}
	a := pipeline.NewAnalyzer(plan, slog.Default())

	report, err := a.Analyze(context.Background(), ds)
	require.NoError(t, err)

	// Full-record fits succeed; every configured era lies outside the data.
	for _, tr := range report.Trends {
		assert.True(t, tr.Range.IsZero(), "unexpected fit over %s", tr.Range)
	}
	assert.Len(t, report.Trends, 7)

	steps := map[string]int{}
	for _, f := range report.Failures {
		steps[f.Step]++
		assert.NotEmpty(t, f.Error)
	}
	assert.Equal(t, 7*2, steps[pipeline.StepTrend])
	assert.Equal(t, 7, steps[pipeline.StepComparison])
	// No freezing, hot or heavy-rain days: all three return periods divide by zero.
	assert.Equal(t, 3, steps[pipeline.StepReturnPeriod])
	assert.Empty(t, report.ReturnPeriods)

	assert.Equal(t, "1925-1970", report.Failures[0].Range)
	for _, f := range report.Failures {
		if f.Step == pipeline.StepComparison {
			assert.Equal(t, "1925-1970:1970-2020", f.Range, f.Metric)
		}
	}
}

func TestClimateAnalyzer_Analyze_EmptyDataset(t *testing.T) {
	a := pipeline.NewAnalyzer(pipeline.DefaultPlan(), slog.Default())

	_, err := a.Analyze(context.Background(), domain.Dataset{Source: "empty"})
	require.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestClimateAnalyzer_Analyze_InvalidConfidence(t *testing.T) {
	plan := pipeline.DefaultPlan()
	plan.Confidence = 1.5
	a := pipeline.NewAnalyzer(plan, slog.Default())

	_, err := a.Analyze(context.Background(), syntheticDataset())
	require.ErrorIs(t, err, domain.ErrInvalidLevel)
}

func TestClimateAnalyzer_Analyze_Cancelled(t *testing.T) {
	a := pipeline.NewAnalyzer(syntheticPlan(), slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Analyze(ctx, syntheticDataset())
	require.ErrorIs(t, err, context.Canceled)
}
