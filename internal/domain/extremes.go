package domain

import "encoding/json"

// Predicate selects qualifying days.
type Predicate struct {
	Name     string
	Variable Variable
	Test     func(float64) bool
}

// Match reports whether o qualifies. Missing readings never qualify.
func (p Predicate) Match(o DailyObservation) bool {
	v := o.Get(p.Variable)
	return !IsMissing(v) && p.Test(v)
}

// AtOrBelow matches readings of v ≤ threshold, e.g. freezing nights.
func AtOrBelow(name string, v Variable, threshold float64) Predicate {
	return Predicate{Name: name, Variable: v, Test: func(x float64) bool { return x <= threshold }}
}

// AtOrAbove matches readings of v ≥ threshold, e.g. heavy-rain days.
func AtOrAbove(name string, v Variable, threshold float64) Predicate {
	return Predicate{Name: name, Variable: v, Test: func(x float64) bool { return x >= threshold }}
}

// FreezingDays matches days with TMIN at or below threshold (32°F by convention).
func FreezingDays(threshold float64) Predicate {
	return AtOrBelow("freezing_days", Tmin, threshold)
}

// HotDays matches days with TMAX at or above threshold.
func HotDays(threshold float64) Predicate {
	return AtOrAbove("hot_days", Tmax, threshold)
}

// HeavyPrecipDays matches days with PRCP at or above threshold inches.
func HeavyPrecipDays(threshold float64) Predicate {
	return AtOrAbove("heavy_precip_days", Prcp, threshold)
}

// ExtremeSeries is a per-year derived scalar such as a day count or an
// annual maximum.
type ExtremeSeries struct {
	Metric string `json:"metric"`
	Points Series `json:"points"`
}

// MarshalJSON keeps a nil Points slice as [] rather than null.
func (e ExtremeSeries) MarshalJSON() ([]byte, error) {
	pts := e.Points
	if pts == nil {
		pts = Series{}
	}
	return json.Marshal(struct {
		Metric string `json:"metric"`
		Points Series `json:"points"`
	}{e.Metric, pts})
}

// CountPerYear counts qualifying days per calendar year. Every year present
// in obs gets a point, zero when nothing qualified; absent years get none.
func CountPerYear(obs []DailyObservation, p Predicate) ExtremeSeries {
	return ExtremeSeries{
		Metric: p.Name,
		Points: GroupByYear(obs, p.Variable, CountIf(p.Test)),
	}
}

// MaxPerYear takes the annual maximum of v. A year whose readings are all
// missing gets a Missing point.
func MaxPerYear(name string, obs []DailyObservation, v Variable) ExtremeSeries {
	return ExtremeSeries{
		Metric: name,
		Points: GroupByYear(obs, v, Max),
	}
}
