package domain

import (
	"fmt"
	"math"
	"strings"
)

// PrecipPolicy decides how missing precipitation is handled.
type PrecipPolicy string

const (
	// PrecipZero treats a missing reading as a dry day. Only appropriate for
	// stations and seasons where unreported rain is very unlikely.
	PrecipZero PrecipPolicy = "zero"
	// PrecipDrop leaves missing precipitation out of precipitation reducers.
	// The row and its temperature readings are kept.
	PrecipDrop PrecipPolicy = "drop"
)

// ParsePrecipPolicy accepts "zero" or "drop".
func ParsePrecipPolicy(s string) (PrecipPolicy, error) {
	switch p := PrecipPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PrecipZero, PrecipDrop:
		return p, nil
	default:
		return "", fmt.Errorf("unknown precipitation policy %q", s)
	}
}

// GapPolicy decides how runs of consecutive missing values are imputed.
type GapPolicy string

const (
	// GapIsolated fills single-row gaps only; longer runs stay missing.
	GapIsolated GapPolicy = "isolated"
	// GapInterpolate linearly interpolates runs up to a maximum length.
	GapInterpolate GapPolicy = "interpolate"
)

// ParseGapPolicy accepts "isolated" or "interpolate".
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch p := GapPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case GapIsolated, GapInterpolate:
		return p, nil
	default:
		return "", fmt.Errorf("unknown gap policy %q", s)
	}
}

// NoFloor disables the sanity floor for a variable.
var NoFloor = math.Inf(-1)

// TemperatureRule is the cleaning rule for one temperature variable.
type TemperatureRule struct {
	Variable Variable
	// Floor marks readings strictly below it as missing. Use NoFloor to disable.
	Floor float64
	Gaps  GapPolicy
	// MaxGap bounds the run length filled under GapInterpolate.
	MaxGap int
}

// QualityPolicy bundles the per-variable cleaning rules.
type QualityPolicy struct {
	Precip      PrecipPolicy
	Temperature []TemperatureRule
}

// DefaultQualityPolicy zero-fills precipitation and treats TMAX below 40°F as
// suspect, filling isolated gaps in both temperatures.
func DefaultQualityPolicy() QualityPolicy {
	return QualityPolicy{
		Precip: PrecipZero,
		Temperature: []TemperatureRule{
			{Variable: Tmax, Floor: 40, Gaps: GapIsolated},
			{Variable: Tmin, Floor: NoFloor, Gaps: GapIsolated},
		},
	}
}

// QualityStats summarizes the changes made by ApplyQuality. PrecipDropped
// counts precipitation readings left missing under PrecipDrop.
type QualityStats struct {
	PrecipFilled  int              `json:"precip_filled"`
	PrecipDropped int              `json:"precip_dropped"`
	Flagged       map[Variable]int `json:"flagged"`
	Imputed       map[Variable]int `json:"imputed"`
	Unfilled      map[Variable]int `json:"unfilled"`
}

// ApplyQuality runs the precipitation policy and then each temperature rule.
// The input is not modified.
func ApplyQuality(obs []DailyObservation, policy QualityPolicy) ([]DailyObservation, QualityStats) {
	stats := QualityStats{
		Flagged:  make(map[Variable]int),
		Imputed:  make(map[Variable]int),
		Unfilled: make(map[Variable]int),
	}

	out, filled, dropped := ApplyPrecipPolicy(obs, policy.Precip)
	stats.PrecipFilled = filled
	stats.PrecipDropped = dropped

	for _, rule := range policy.Temperature {
		var flagged int
		out, flagged = FlagBelowFloor(out, rule.Variable, rule.Floor)
		var res ImputeResult
		out, res = ImputeGaps(out, rule.Variable, rule.Gaps, rule.MaxGap)
		stats.Flagged[rule.Variable] += flagged
		stats.Imputed[rule.Variable] += res.Filled
		stats.Unfilled[rule.Variable] += res.Unfilled
	}
	return out, stats
}

// ApplyPrecipPolicy returns a copy of obs with missing precipitation either
// zero-filled or left missing, plus the number of readings filled and left
// out. Rows are never removed, so temperatures on those days still count.
func ApplyPrecipPolicy(obs []DailyObservation, policy PrecipPolicy) (out []DailyObservation, filled, dropped int) {
	out = make([]DailyObservation, len(obs))
	copy(out, obs)
	for i, o := range out {
		if !IsMissing(o.Prcp) {
			continue
		}
		switch policy {
		case PrecipDrop:
			dropped++
		default:
			out[i].Prcp = 0
			filled++
		}
	}
	return out, filled, dropped
}
