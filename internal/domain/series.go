package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// YearValue is one point of an annual series.
type YearValue struct {
	Year  int
	Value float64
}

// MarshalJSON writes missing values as null.
func (p YearValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Year  int       `json:"year"`
		Value jsonFloat `json:"value"`
	}{p.Year, jsonFloat(p.Value)})
}

// Series is an annual scalar series, normally ordered by year.
type Series []YearValue

// Within returns the points whose year lies in r. A zero range returns a copy of s.
func (s Series) Within(r YearRange) Series {
	out := make(Series, 0, len(s))
	for _, p := range s {
		if r.IsZero() || r.Contains(p.Year) {
			out = append(out, p)
		}
	}
	return out
}

// Valid returns the points with a non-missing value.
func (s Series) Valid() Series {
	out := make(Series, 0, len(s))
	for _, p := range s {
		if !IsMissing(p.Value) {
			out = append(out, p)
		}
	}
	return out
}

// IsOrdered reports whether years are strictly increasing.
func (s Series) IsOrdered() bool {
	for i := 1; i < len(s); i++ {
		if s[i].Year <= s[i-1].Year {
			return false
		}
	}
	return true
}

// Years returns the years as float64 regressors.
func (s Series) Years() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = float64(p.Year)
	}
	return out
}

// Values returns the values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Span returns the range of years covered, or a zero range for an empty series.
func (s Series) Span() YearRange {
	if len(s) == 0 {
		return YearRange{}
	}
	return YearRange{From: s[0].Year, To: s[len(s)-1].Year}
}

// jsonFloat marshals NaN and ±Inf as null.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}
