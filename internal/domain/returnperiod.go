package domain

import "fmt"

// ReturnPeriodResult is an empirical average recurrence interval.
type ReturnPeriodResult struct {
	Metric        string    `json:"metric"`
	Range         string    `json:"range"`
	YearsSpanned  int       `json:"years_spanned"`
	Events        int       `json:"events"`
	IntervalYears float64   `json:"interval_years"`
	Window        YearRange `json:"-"`
}

// ReturnPeriod is (yearsSpanned+1)/events, the plotting-position estimate of
// the average years between qualifying events. It is not a fitted return level.
func ReturnPeriod(yearsSpanned, events int) (float64, error) {
	if events == 0 {
		return 0, fmt.Errorf("return period over %d years: %w: no qualifying events", yearsSpanned, ErrDivideByZero)
	}
	if events < 0 || yearsSpanned < 0 {
		return 0, fmt.Errorf("return period: negative input (years=%d, events=%d)", yearsSpanned, events)
	}
	return float64(yearsSpanned+1) / float64(events), nil
}

// EstimateReturnPeriod counts days matching p within window (zero window means
// the whole record) and converts the count to a return period. Years spanned
// is last year minus first year plus one over the rows in the window.
func EstimateReturnPeriod(obs []DailyObservation, p Predicate, window YearRange) (ReturnPeriodResult, error) {
	first, last, events := 0, 0, 0
	found := false
	for _, o := range obs {
		y := o.Year()
		if !window.IsZero() && !window.Contains(y) {
			continue
		}
		if !found || y < first {
			first = y
		}
		if !found || y > last {
			last = y
		}
		found = true
		if p.Match(o) {
			events++
		}
	}

	res := ReturnPeriodResult{Metric: p.Name, Range: window.String(), Window: window, Events: events}
	if !found {
		return res, fmt.Errorf("return period %s over %s: %w", p.Name, window, insufficient("return period", 1, 0))
	}
	res.YearsSpanned = last - first + 1

	interval, err := ReturnPeriod(res.YearsSpanned, events)
	if err != nil {
		return res, fmt.Errorf("return period %s over %s: %w", p.Name, window, err)
	}
	res.IntervalYears = interval
	return res, nil
}
