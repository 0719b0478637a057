package domain

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TrendResult is an OLS fit of a metric against year.
//
// With exactly two points the line is exact and StdErr, the confidence
// interval and PValue are NaN.
type TrendResult struct {
	Metric    string
	Range     YearRange
	Slope     float64
	Intercept float64
	StdErr    float64
	CILower   float64
	CIUpper   float64
	Level     float64
	PValue    float64
	RSquared  float64
	N         int
}

// Significant reports whether the slope differs from zero at significance alpha.
func (t TrendResult) Significant(alpha float64) bool {
	return !math.IsNaN(t.PValue) && t.PValue < alpha
}

// MarshalJSON writes undefined statistics as null.
func (t TrendResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Metric    string    `json:"metric"`
		Range     string    `json:"range"`
		Slope     jsonFloat `json:"slope"`
		Intercept jsonFloat `json:"intercept"`
		StdErr    jsonFloat `json:"std_err"`
		CILower   jsonFloat `json:"ci_lower"`
		CIUpper   jsonFloat `json:"ci_upper"`
		Level     float64   `json:"level"`
		PValue    jsonFloat `json:"p_value"`
		RSquared  jsonFloat `json:"r_squared"`
		N         int       `json:"n"`
	}{
		t.Metric, t.Range.String(), jsonFloat(t.Slope), jsonFloat(t.Intercept), jsonFloat(t.StdErr),
		jsonFloat(t.CILower), jsonFloat(t.CIUpper), t.Level, jsonFloat(t.PValue), jsonFloat(t.RSquared), t.N,
	})
}

// FitTrend fits value = intercept + slope*year over every valid point of s.
func FitTrend(metric string, s Series, level float64) (TrendResult, error) {
	return FitTrendRange(metric, s, YearRange{}, level)
}

// FitTrendRange fits over the points whose year lies in r (inclusive). A zero
// range fits the whole series. Missing values are excluded.
func FitTrendRange(metric string, s Series, r YearRange, level float64) (TrendResult, error) {
	if err := checkLevel(level); err != nil {
		return TrendResult{}, err
	}
	pts := s.Within(r).Valid()
	n := len(pts)
	if n < 2 {
		return TrendResult{}, fmt.Errorf("fit %s over %s: %w", metric, r, insufficient("trend fit", 2, n))
	}

	x, y := pts.Years(), pts.Values()
	if stat.Variance(x, nil) == 0 {
		return TrendResult{}, fmt.Errorf("fit %s over %s: %w", metric, r, insufficient("trend fit (distinct years)", 2, 1))
	}
	intercept, slope := stat.LinearRegression(x, y, nil, false)

	res := TrendResult{
		Metric:    metric,
		Range:     r,
		Slope:     slope,
		Intercept: intercept,
		Level:     level,
		N:         n,
		StdErr:    math.NaN(),
		CILower:   math.NaN(),
		CIUpper:   math.NaN(),
		PValue:    math.NaN(),
		RSquared:  stat.RSquared(x, y, nil, intercept, slope),
	}
	if n == 2 {
		return res, nil
	}

	xMean := stat.Mean(x, nil)
	var ssr, sxx float64
	for i := range x {
		resid := y[i] - (intercept + slope*x[i])
		ssr += resid * resid
		dx := x[i] - xMean
		sxx += dx * dx
	}
	dof := float64(n - 2)
	res.StdErr = math.Sqrt(ssr / dof / sxx)

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
	crit := dist.Quantile(0.5 + level/2)
	res.CILower = slope - crit*res.StdErr
	res.CIUpper = slope + crit*res.StdErr
	res.PValue = twoSidedT(slope, res.StdErr, dist)
	return res, nil
}

// twoSidedT returns the two-sided p-value of estimate/se under dist. A zero
// standard error means an exact fit: p is 0 for a non-zero estimate and 1
// otherwise.
func twoSidedT(estimate, se float64, dist distuv.StudentsT) float64 {
	if se == 0 {
		if estimate == 0 {
			return 1
		}
		return 0
	}
	t := estimate / se
	return math.Min(1, 2*dist.CDF(-math.Abs(t)))
}
