package domain

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
)

// Reducer collapses the readings of one group to a scalar. Input may contain
// Missing values; a reducer returns Missing when the group has no usable data.
type Reducer func(values []float64) float64

// valid drops missing readings.
func valid(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

// Mean averages the non-missing readings.
func Mean(values []float64) float64 {
	vs := valid(values)
	if len(vs) == 0 {
		return Missing
	}
	m, err := stats.Mean(vs)
	if err != nil {
		return Missing
	}
	return m
}

// Sum adds the non-missing readings, so a missing reading contributes zero.
// A group with no readings at all is Missing, not zero.
func Sum(values []float64) float64 {
	vs := valid(values)
	if len(vs) == 0 {
		return Missing
	}
	s, err := stats.Sum(vs)
	if err != nil {
		return Missing
	}
	return s
}

// Max returns the largest non-missing reading.
func Max(values []float64) float64 {
	vs := valid(values)
	if len(vs) == 0 {
		return Missing
	}
	m, err := stats.Max(vs)
	if err != nil {
		return Missing
	}
	return m
}

// CountIf returns a reducer counting non-missing readings that satisfy pred.
// The count is a real zero when nothing qualifies.
func CountIf(pred func(float64) bool) Reducer {
	return func(values []float64) float64 {
		n := 0
		for _, v := range values {
			if !IsMissing(v) && pred(v) {
				n++
			}
		}
		return float64(n)
	}
}

// GroupByYear reduces variable v per calendar year. The result has one point
// per year present in obs, in year order.
func GroupByYear(obs []DailyObservation, v Variable, reduce Reducer) Series {
	years, groups := groupYears(obs)
	out := make(Series, 0, len(years))
	for _, y := range years {
		rows := groups[y]
		values := make([]float64, len(rows))
		for i, o := range rows {
			values[i] = o.Get(v)
		}
		out = append(out, YearValue{Year: y, Value: reduce(values)})
	}
	return out
}

func groupYears(obs []DailyObservation) ([]int, map[int][]DailyObservation) {
	groups := make(map[int][]DailyObservation)
	for _, o := range obs {
		groups[o.Year()] = append(groups[o.Year()], o)
	}
	years := make([]int, 0, len(groups))
	for y := range groups {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, groups
}

// Metric names an annual or seasonal scalar.
type Metric string

const (
	MeanTmax    Metric = "mean_tmax"
	MeanTmin    Metric = "mean_tmin"
	TotalPrecip Metric = "total_precip"
)

// SummaryMetrics lists the metrics carried by AnnualSummary.
var SummaryMetrics = []Metric{MeanTmax, MeanTmin, TotalPrecip}

// AnnualSummary holds one calendar year's reductions. The Valid* fields
// count the non-missing readings behind each metric.
type AnnualSummary struct {
	Year        int
	MeanTmax    float64
	MeanTmin    float64
	TotalPrecip float64
	Days        int
	ValidTmax   int
	ValidTmin   int
	ValidPrcp   int
}

// Metric returns the value of m for the year.
func (s AnnualSummary) Metric(m Metric) (float64, error) {
	switch m {
	case MeanTmax:
		return s.MeanTmax, nil
	case MeanTmin:
		return s.MeanTmin, nil
	case TotalPrecip:
		return s.TotalPrecip, nil
	default:
		return Missing, fmt.Errorf("unknown summary metric %q", m)
	}
}

// MarshalJSON writes missing metrics as null.
func (s AnnualSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON(s, ""))
}

type annualJSON struct {
	Year        int       `json:"year"`
	Season      Season    `json:"season,omitempty"`
	MeanTmax    jsonFloat `json:"mean_tmax"`
	MeanTmin    jsonFloat `json:"mean_tmin"`
	TotalPrecip jsonFloat `json:"total_precip"`
	Days        int       `json:"days"`
	ValidTmax   int       `json:"valid_tmax"`
	ValidTmin   int       `json:"valid_tmin"`
	ValidPrcp   int       `json:"valid_prcp"`
}

func summaryJSON(s AnnualSummary, season Season) annualJSON {
	return annualJSON{
		Year:        s.Year,
		Season:      season,
		MeanTmax:    jsonFloat(s.MeanTmax),
		MeanTmin:    jsonFloat(s.MeanTmin),
		TotalPrecip: jsonFloat(s.TotalPrecip),
		Days:        s.Days,
		ValidTmax:   s.ValidTmax,
		ValidTmin:   s.ValidTmin,
		ValidPrcp:   s.ValidPrcp,
	}
}

// SeasonalSummary is an AnnualSummary restricted to one season of the year.
type SeasonalSummary struct {
	AnnualSummary
	Season Season
}

// MarshalJSON writes missing metrics as null.
func (s SeasonalSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON(s.AnnualSummary, s.Season))
}

// AnnualSummaries reduces obs to one summary per calendar year present.
func AnnualSummaries(obs []DailyObservation) []AnnualSummary {
	years, groups := groupYears(obs)
	out := make([]AnnualSummary, 0, len(years))
	for _, y := range years {
		out = append(out, summarize(y, groups[y]))
	}
	return out
}

// SeasonalSummaries reduces obs to one summary per (year, season) present,
// ordered by year and then season.
func SeasonalSummaries(obs []DailyObservation) []SeasonalSummary {
	years, groups := groupYears(obs)
	var out []SeasonalSummary
	for _, y := range years {
		bySeason := make(map[Season][]DailyObservation)
		for _, o := range groups[y] {
			s := SeasonOf(o.Date.Month())
			bySeason[s] = append(bySeason[s], o)
		}
		for _, s := range Seasons {
			rows, ok := bySeason[s]
			if !ok {
				continue
			}
			out = append(out, SeasonalSummary{AnnualSummary: summarize(y, rows), Season: s})
		}
	}
	return out
}

func summarize(year int, rows []DailyObservation) AnnualSummary {
	tmax := make([]float64, len(rows))
	tmin := make([]float64, len(rows))
	prcp := make([]float64, len(rows))
	for i, o := range rows {
		tmax[i], tmin[i], prcp[i] = o.Tmax, o.Tmin, o.Prcp
	}
	return AnnualSummary{
		Year:        year,
		MeanTmax:    Mean(tmax),
		MeanTmin:    Mean(tmin),
		TotalPrecip: Sum(prcp),
		Days:        len(rows),
		ValidTmax:   len(valid(tmax)),
		ValidTmin:   len(valid(tmin)),
		ValidPrcp:   len(valid(prcp)),
	}
}

// AnnualSeries projects metric m out of the summaries.
func AnnualSeries(summaries []AnnualSummary, m Metric) (Series, error) {
	out := make(Series, 0, len(summaries))
	for _, s := range summaries {
		v, err := s.Metric(m)
		if err != nil {
			return nil, err
		}
		out = append(out, YearValue{Year: s.Year, Value: v})
	}
	return out, nil
}

// SeasonalSeries projects metric m for one season out of the summaries.
func SeasonalSeries(summaries []SeasonalSummary, season Season, m Metric) (Series, error) {
	var out Series
	for _, s := range summaries {
		if s.Season != season {
			continue
		}
		v, err := s.Metric(m)
		if err != nil {
			return nil, err
		}
		out = append(out, YearValue{Year: s.Year, Value: v})
	}
	return out, nil
}
