package domain

import (
	"time"

	"github.com/google/uuid"
)

// Failure records an analysis step that could not produce a result.
type Failure struct {
	Step   string `json:"step"`
	Metric string `json:"metric"`
	Range  string `json:"range,omitempty"`
	Error  string `json:"error"`
}

// Report is the complete output of one analysis run.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source"`
	Confidence  float64   `json:"confidence"`

	Load    LoadStats    `json:"load"`
	Gaps    GapReport    `json:"gaps"`
	Quality QualityStats `json:"quality"`

	Annual   []AnnualSummary   `json:"annual"`
	Seasonal []SeasonalSummary `json:"seasonal,omitempty"`

	Trends        []TrendResult        `json:"trends"`
	MannKendall   []MannKendallResult  `json:"mann_kendall"`
	Comparisons   []ComparisonResult   `json:"comparisons"`
	Extremes      []ExtremeSeries      `json:"extremes"`
	ReturnPeriods []ReturnPeriodResult `json:"return_periods"`

	Failures []Failure `json:"failures,omitempty"`
}

// NewReport stamps a report with a fresh run ID and the current clock time.
func NewReport(source string) Report {
	return Report{
		RunID:       uuid.NewString(),
		GeneratedAt: clock.Now().UTC(),
		Source:      source,
	}
}

// Fail appends a failure for step.
func (r *Report) Fail(step, metric string, rng YearRange, err error) {
	f := Failure{Step: step, Metric: metric, Error: err.Error()}
	if !rng.IsZero() {
		f.Range = rng.String()
	}
	r.Failures = append(r.Failures, f)
}

// FailPair appends a failure for a step that compares two ranges. The range
// is recorded as "first:second".
func (r *Report) FailPair(step, metric string, pair RangePair, err error) {
	r.Failures = append(r.Failures, Failure{Step: step, Metric: metric, Range: pair.String(), Error: err.Error()})
}

// ResultCount is the number of analysis results in the report.
func (r Report) ResultCount() int {
	return len(r.Trends) + len(r.MannKendall) + len(r.Comparisons) + len(r.Extremes) + len(r.ReturnPeriods)
}
