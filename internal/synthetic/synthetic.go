// Package synthetic generates deterministic daily station records with a known
// seasonal cycle, linear warming, and controlled gaps. It backs cmd/genmock and
// test fixtures.
package synthetic

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
)

// Options controls the generated record.
type Options struct {
	FromYear int
	ToYear   int // inclusive
	Seed     uint64

	// Annual-mean temperatures in °F at FromYear.
	TmaxBase float64
	TminBase float64
	// SeasonalAmplitude is half the summer-winter swing in °F.
	SeasonalAmplitude float64
	// TrendPerYear is added to both temperatures for each year after FromYear.
	TrendPerYear float64
	// Noise is the standard deviation of daily temperature noise in °F.
	Noise float64

	// WetDayChance is the probability of measurable precipitation.
	WetDayChance float64
	// MeanWetDay is the mean precipitation on a wet day, in inches.
	MeanWetDay float64

	// MissingChance is the per-value probability of a missing reading.
	MissingChance float64
	// DropChance is the per-day probability that the whole row is absent.
	DropChance float64
}

// DefaultOptions resembles a continental station from 1925 through 2020
// warming by 0.02°F per year.
func DefaultOptions() Options {
	return Options{
		FromYear:          1925,
		ToYear:            2020,
		Seed:              42,
		TmaxBase:          64,
		TminBase:          42,
		SeasonalAmplitude: 20,
		TrendPerYear:      0.02,
		Noise:             6,
		WetDayChance:      0.25,
		MeanWetDay:        0.3,
		MissingChance:     0.01,
		DropChance:        0.002,
	}
}

// Generate produces one observation per retained day, ordered by date. The
// same options always produce the same record.
func Generate(opts Options) []domain.DailyObservation {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	start := time.Date(opts.FromYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(opts.ToYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	var out []domain.DailyObservation
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if rng.Float64() < opts.DropChance {
			continue
		}

		// Coldest around mid-January, warmest around mid-July.
		phase := 2 * math.Pi * float64(d.YearDay()-15) / 365.25
		seasonal := -opts.SeasonalAmplitude * math.Cos(phase)
		warming := opts.TrendPerYear * float64(d.Year()-opts.FromYear)

		tmax := opts.TmaxBase + seasonal + warming + rng.NormFloat64()*opts.Noise
		tmin := opts.TminBase + seasonal + warming + rng.NormFloat64()*opts.Noise
		if tmin > tmax {
			tmin, tmax = tmax, tmin
		}

		prcp := 0.0
		if rng.Float64() < opts.WetDayChance {
			prcp = rng.ExpFloat64() * opts.MeanWetDay
		}

		out = append(out, domain.DailyObservation{
			Date: d,
			Tmax: maybeMissing(rng, opts.MissingChance, math.Round(tmax)),
			Tmin: maybeMissing(rng, opts.MissingChance, math.Round(tmin)),
			Prcp: maybeMissing(rng, opts.MissingChance, math.Round(prcp*100)/100),
		})
	}
	return out
}

func maybeMissing(rng *rand.Rand, chance, v float64) float64 {
	if rng.Float64() < chance {
		return domain.Missing
	}
	return v
}

// WriteCSV writes obs in GHCN-Daily export layout with a station column.
// Missing values are written as empty cells.
func WriteCSV(w io.Writer, station string, obs []domain.DailyObservation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"STATION", "DATE", "PRCP", "TMAX", "TMIN"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range obs {
		rec := []string{station, o.Date.Format(domain.DateLayout), cell(o.Prcp), cell(o.Tmax), cell(o.Tmin)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write %s: %w", o.Date.Format(domain.DateLayout), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(v float64) string {
	if domain.IsMissing(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
