package domain

import (
	"encoding/json"
	"time"
)

// DateGap is a run of calendar days with no row at all.
type DateGap struct {
	Start time.Time
	End   time.Time
	Days  int
}

// MarshalJSON writes dates in DateLayout.
func (g DateGap) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
		Days  int    `json:"days"`
	}{g.Start.Format(DateLayout), g.End.Format(DateLayout), g.Days})
}

// GapReport describes the completeness of a station record.
type GapReport struct {
	FirstDate     time.Time        `json:"first_date"`
	LastDate      time.Time        `json:"last_date"`
	ExpectedDays  int              `json:"expected_days"`
	ObservedDays  int              `json:"observed_days"`
	DateGaps      []DateGap        `json:"date_gaps"`
	MissingValues map[Variable]int `json:"missing_values"`
}

// MissingDays is the number of calendar days with no row.
func (r GapReport) MissingDays() int { return r.ExpectedDays - r.ObservedDays }

// Completeness is the share of calendar days that have a row, in [0, 1].
func (r GapReport) Completeness() float64 {
	if r.ExpectedDays == 0 {
		return 0
	}
	return float64(r.ObservedDays) / float64(r.ExpectedDays)
}

// InspectGaps lists calendar gaps and per-variable missing counts. obs must be
// ordered by date, as LoadObservations returns it.
func InspectGaps(obs []DailyObservation) GapReport {
	report := GapReport{MissingValues: make(map[Variable]int, len(Variables))}
	for _, v := range Variables {
		report.MissingValues[v] = 0
	}
	if len(obs) == 0 {
		return report
	}

	report.FirstDate = obs[0].Date
	report.LastDate = obs[len(obs)-1].Date
	report.ExpectedDays = daysBetween(report.FirstDate, report.LastDate) + 1
	report.ObservedDays = len(obs)

	for i, o := range obs {
		for _, v := range Variables {
			if IsMissing(o.Get(v)) {
				report.MissingValues[v]++
			}
		}
		if i == 0 {
			continue
		}
		if d := daysBetween(obs[i-1].Date, o.Date); d > 1 {
			report.DateGaps = append(report.DateGaps, DateGap{
				Start: obs[i-1].Date.AddDate(0, 0, 1),
				End:   o.Date.AddDate(0, 0, -1),
				Days:  d - 1,
			})
		}
	}
	return report
}

// daysBetween counts whole calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
