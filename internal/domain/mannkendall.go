package domain

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Trend direction labels for MannKendallResult.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendNone       = "no trend"
)

// MannKendallResult is the outcome of a Mann-Kendall monotonic trend test.
//
// Tau is a rank statistic in [-1, 1] describing direction and strength of
// monotonic association. It is not a rate of change; SenSlope is the
// rank-based rate estimate and is reported separately.
type MannKendallResult struct {
	Metric   string
	Range    YearRange
	N        int
	S        int
	VarS     float64
	Z        float64
	Tau      float64
	PValue   float64
	SenSlope float64
	Trend    string
}

// MarshalJSON writes undefined statistics as null.
func (r MannKendallResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Metric   string    `json:"metric"`
		Range    string    `json:"range"`
		N        int       `json:"n"`
		S        int       `json:"s"`
		VarS     jsonFloat `json:"var_s"`
		Z        jsonFloat `json:"z"`
		Tau      jsonFloat `json:"tau"`
		PValue   jsonFloat `json:"p_value"`
		SenSlope jsonFloat `json:"sen_slope"`
		Trend    string    `json:"trend"`
	}{
		r.Metric, r.Range.String(), r.N, r.S, jsonFloat(r.VarS), jsonFloat(r.Z),
		jsonFloat(r.Tau), jsonFloat(r.PValue), jsonFloat(r.SenSlope), r.Trend,
	})
}

// MannKendall tests s for a monotonic trend at significance alpha.
//
// s must be ordered by strictly increasing year; the test is meaningless
// under any other order and ErrUnordered is returned. Missing values are
// dropped before ranking. Ties are handled with the standard tie-corrected
// variance of S and a continuity-corrected Z.
func MannKendall(metric string, s Series, alpha float64) (MannKendallResult, error) {
	if !s.IsOrdered() {
		return MannKendallResult{}, fmt.Errorf("mann-kendall %s: %w", metric, ErrUnordered)
	}
	pts := s.Valid()
	n := len(pts)
	if n < 3 {
		return MannKendallResult{}, fmt.Errorf("mann-kendall %s: %w", metric, insufficient("mann-kendall test", 3, n))
	}

	x := pts.Values()
	sum := 0
	slopes := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			sum += sign(x[j] - x[i])
			slopes = append(slopes, (x[j]-x[i])/float64(pts[j].Year-pts[i].Year))
		}
	}

	varS := mannKendallVariance(x)
	z := 0.0
	switch {
	case sum > 0:
		z = float64(sum-1) / math.Sqrt(varS)
	case sum < 0:
		z = float64(sum+1) / math.Sqrt(varS)
	}
	p := 2 * (1 - distuv.UnitNormal.CDF(math.Abs(z)))

	sen, err := stats.Median(slopes)
	if err != nil {
		sen = math.NaN()
	}

	trend := TrendNone
	if p < alpha {
		if z > 0 {
			trend = TrendIncreasing
		} else {
			trend = TrendDecreasing
		}
	}

	return MannKendallResult{
		Metric:   metric,
		Range:    pts.Span(),
		N:        n,
		S:        sum,
		VarS:     varS,
		Z:        z,
		Tau:      float64(sum) / (float64(n*(n-1)) / 2),
		PValue:   p,
		SenSlope: sen,
		Trend:    trend,
	}, nil
}

// mannKendallVariance is Var(S) with the tie correction
// [n(n-1)(2n+5) - Σ t(t-1)(2t+5)] / 18 over groups of t tied values.
func mannKendallVariance(x []float64) float64 {
	n := float64(len(x))
	ties := make(map[float64]int, len(x))
	for _, v := range x {
		ties[v]++
	}
	correction := 0.0
	for _, c := range ties {
		if c > 1 {
			t := float64(c)
			correction += t * (t - 1) * (2*t + 5)
		}
	}
	return (n*(n-1)*(2*n+5) - correction) / 18
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
