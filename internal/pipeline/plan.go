package pipeline

import (
	"runtime"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
)

// Plan lists the analyses a run performs. It replaces per-era copies of the
// same fit with explicit ranges.
type Plan struct {
	// Confidence is the level for confidence intervals; 1-Confidence is the
	// significance level used to label Mann-Kendall trends.
	Confidence float64

	Quality domain.QualityPolicy

	// TrendRanges are fitted in addition to the full record. Overlap is allowed.
	TrendRanges []domain.YearRange
	Comparisons []domain.RangePair

	FreezeThreshold      float64
	HotDayThreshold      float64
	HeavyPrecipThreshold float64

	// ReturnPeriodWindow restricts return-period counting; zero means the whole record.
	ReturnPeriodWindow domain.YearRange

	// SeasonalTrends adds per-season temperature trend fits over the full record.
	SeasonalTrends bool

	// Workers bounds concurrent trend fits.
	Workers int
}

// DefaultPlan mirrors the usual era comparison for a 20th-century record.
func DefaultPlan() Plan {
	return Plan{
		Confidence: 0.95,
		Quality:    domain.DefaultQualityPolicy(),
		TrendRanges: []domain.YearRange{
			{From: 1925, To: 1970},
			{From: 1970, To: 2020},
			{From: 2000, To: 2020},
		},
		Comparisons: []domain.RangePair{
			{First: domain.YearRange{From: 1925, To: 1970}, Second: domain.YearRange{From: 1970, To: 2020}},
		},
		FreezeThreshold:      32,
		HotDayThreshold:      100,
		HeavyPrecipThreshold: 1.0,
		SeasonalTrends:       true,
		Workers:              runtime.GOMAXPROCS(0),
	}
}

func (p Plan) alpha() float64 { return 1 - p.Confidence }

func (p Plan) workers() int {
	if p.Workers < 1 {
		return 1
	}
	return p.Workers
}
