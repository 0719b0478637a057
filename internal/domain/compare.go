package domain

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ComparisonResult is a Welch two-sample test of equal means. Difference is
// MeanFirst - MeanSecond.
type ComparisonResult struct {
	Metric     string
	First      YearRange
	Second     YearRange
	MeanFirst  float64
	MeanSecond float64
	Difference float64
	CILower    float64
	CIUpper    float64
	Level      float64
	T          float64
	DF         float64
	PValue     float64
	NFirst     int
	NSecond    int
}

// MarshalJSON writes undefined statistics as null.
func (c ComparisonResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Metric     string    `json:"metric"`
		First      string    `json:"first"`
		Second     string    `json:"second"`
		MeanFirst  jsonFloat `json:"mean_first"`
		MeanSecond jsonFloat `json:"mean_second"`
		Difference jsonFloat `json:"difference"`
		CILower    jsonFloat `json:"ci_lower"`
		CIUpper    jsonFloat `json:"ci_upper"`
		Level      float64   `json:"level"`
		T          jsonFloat `json:"t"`
		DF         jsonFloat `json:"df"`
		PValue     jsonFloat `json:"p_value"`
		NFirst     int       `json:"n_first"`
		NSecond    int       `json:"n_second"`
	}{
		c.Metric, c.First.String(), c.Second.String(), jsonFloat(c.MeanFirst), jsonFloat(c.MeanSecond),
		jsonFloat(c.Difference), jsonFloat(c.CILower), jsonFloat(c.CIUpper), c.Level, jsonFloat(c.T),
		jsonFloat(c.DF), jsonFloat(c.PValue), c.NFirst, c.NSecond,
	})
}

// WelchTTest compares the means of a and b without assuming equal variances.
// Missing values are dropped; each sample needs two valid values.
func WelchTTest(a, b []float64, level float64) (ComparisonResult, error) {
	if err := checkLevel(level); err != nil {
		return ComparisonResult{}, err
	}
	a, b = valid(a), valid(b)
	if len(a) < 2 {
		return ComparisonResult{}, insufficient("welch t-test (first sample)", 2, len(a))
	}
	if len(b) < 2 {
		return ComparisonResult{}, insufficient("welch t-test (second sample)", 2, len(b))
	}

	na, nb := float64(len(a)), float64(len(b))
	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	qa, qb := varA/na, varB/nb
	se := math.Sqrt(qa + qb)
	diff := meanA - meanB

	res := ComparisonResult{
		MeanFirst:  meanA,
		MeanSecond: meanB,
		Difference: diff,
		Level:      level,
		NFirst:     len(a),
		NSecond:    len(b),
	}

	if se == 0 {
		// Both samples are constant: the difference is known exactly.
		res.DF = na + nb - 2
		res.CILower, res.CIUpper = diff, diff
		res.T = math.NaN()
		res.PValue = 1
		if diff != 0 {
			res.T = math.Copysign(math.Inf(1), diff)
			res.PValue = 0
		}
		return res, nil
	}

	res.DF = (qa + qb) * (qa + qb) / (qa*qa/(na-1) + qb*qb/(nb-1))
	res.T = diff / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: res.DF}
	crit := dist.Quantile(0.5 + level/2)
	res.CILower = diff - crit*se
	res.CIUpper = diff + crit*se
	res.PValue = twoSidedT(diff, se, dist)
	return res, nil
}

// CompareRanges runs WelchTTest on the values of s in two year ranges. The
// ranges may overlap.
func CompareRanges(metric string, s Series, pair RangePair, level float64) (ComparisonResult, error) {
	res, err := WelchTTest(s.Within(pair.First).Values(), s.Within(pair.Second).Values(), level)
	if err != nil {
		return ComparisonResult{}, fmt.Errorf("compare %s %s vs %s: %w", metric, pair.First, pair.Second, err)
	}
	res.Metric = metric
	res.First = pair.First
	res.Second = pair.Second
	return res, nil
}
