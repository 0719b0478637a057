package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted date format: ISO year-month-day.
const DateLayout = "2006-01-02"

// Missing marks an absent reading.
var Missing = math.NaN()

// IsMissing reports whether v is an absent reading.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// DailyObservation is one station-day. Temperatures are °F, precipitation is
// inches; any reading may be Missing.
type DailyObservation struct {
	Date time.Time
	Tmax float64
	Tmin float64
	Prcp float64
}

// Year returns the calendar year of the observation.
func (o DailyObservation) Year() int { return o.Date.Year() }

// Variable identifies one of the observed elements.
type Variable string

const (
	Tmax Variable = "tmax"
	Tmin Variable = "tmin"
	Prcp Variable = "prcp"
)

// Variables lists the observed elements in table order.
var Variables = []Variable{Tmax, Tmin, Prcp}

// ParseVariable accepts a variable name in any case.
func ParseVariable(s string) (Variable, error) {
	switch v := Variable(strings.ToLower(strings.TrimSpace(s))); v {
	case Tmax, Tmin, Prcp:
		return v, nil
	default:
		return "", fmt.Errorf("unknown variable %q", s)
	}
}

// Get returns the reading for v.
func (o DailyObservation) Get(v Variable) float64 {
	switch v {
	case Tmax:
		return o.Tmax
	case Tmin:
		return o.Tmin
	case Prcp:
		return o.Prcp
	default:
		return Missing
	}
}

// With returns a copy of o with the reading for v replaced.
func (o DailyObservation) With(v Variable, value float64) DailyObservation {
	switch v {
	case Tmax:
		o.Tmax = value
	case Tmin:
		o.Tmin = value
	case Prcp:
		o.Prcp = value
	}
	return o
}

// Season is a fixed three-month block.
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
)

// Seasons lists seasons in calendar order.
var Seasons = []Season{Winter, Spring, Summer, Fall}

// SeasonOf maps a month to its season.
func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Fall
	}
}

// YearRange is an inclusive span of calendar years.
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ParseYearRange parses "1925-1970".
func ParseYearRange(s string) (YearRange, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return YearRange{}, fmt.Errorf("year range %q: expected FROM-TO", s)
	}
	f, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return YearRange{}, fmt.Errorf("year range %q: %w", s, err)
	}
	t, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return YearRange{}, fmt.Errorf("year range %q: %w", s, err)
	}
	if t < f {
		return YearRange{}, fmt.Errorf("year range %q: end before start", s)
	}
	return YearRange{From: f, To: t}, nil
}

// Contains reports whether year lies in the range.
func (r YearRange) Contains(year int) bool { return year >= r.From && year <= r.To }

// IsZero reports whether the range is unset, meaning "whole record".
func (r YearRange) IsZero() bool { return r.From == 0 && r.To == 0 }

func (r YearRange) String() string {
	if r.IsZero() {
		return "all"
	}
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// RangePair names two year ranges to compare. Overlap is allowed.
type RangePair struct {
	First  YearRange `json:"first"`
	Second YearRange `json:"second"`
}

// String formats the pair as "1925-1970:1970-2020", the form ParseRangePair accepts.
func (p RangePair) String() string { return p.First.String() + ":" + p.Second.String() }

// ParseRangePair parses "1925-1970:1970-2020".
func ParseRangePair(s string) (RangePair, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return RangePair{}, fmt.Errorf("range pair %q: expected FROM-TO:FROM-TO", s)
	}
	first, err := ParseYearRange(a)
	if err != nil {
		return RangePair{}, err
	}
	second, err := ParseYearRange(b)
	if err != nil {
		return RangePair{}, err
	}
	return RangePair{First: first, Second: second}, nil
}

// Dataset is a loaded station record together with its provenance.
type Dataset struct {
	Source       string
	Observations []DailyObservation
	Stats        LoadStats
}
