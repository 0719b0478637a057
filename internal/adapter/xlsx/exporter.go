// Package xlsx exports an analysis report as a spreadsheet workbook, one
// sheet per result table.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names in workbook order.
const (
	SheetAnnual        = "Annual"
	SheetSeasonal      = "Seasonal"
	SheetTrends        = "Trends"
	SheetMannKendall   = "MannKendall"
	SheetComparisons   = "Comparisons"
	SheetExtremes      = "Extremes"
	SheetReturnPeriods = "ReturnPeriods"
)

// Exporter writes reports to an .xlsx file. It implements pipeline.Loader.
type Exporter struct {
	path   string
	logger *slog.Logger
}

// NewExporter creates an Exporter that saves to path.
func NewExporter(path string, logger *slog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

// Load builds the workbook and saves it, replacing any existing file.
func (e *Exporter) Load(_ context.Context, report domain.Report) error {
	f, err := Build(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", e.path, err)
	}
	e.logger.Info("workbook written", "path", e.path, "run_id", report.RunID)
	return nil
}

type sheet struct {
	name   string
	header []any
	rows   [][]any
}

// Build lays out every table of the report in a new workbook. Missing and
// undefined statistics are left as empty cells.
func Build(report domain.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, s := range sheets(report) {
		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), s.name)
		} else {
			_, err = f.NewSheet(s.name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, bold); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
		return fmt.Errorf("write %s header: %w", s.name, err)
	}
	if err := f.SetRowStyle(s.name, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", s.name, err)
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", s.name, i+2, err)
		}
	}
	return nil
}

func sheets(r domain.Report) []sheet {
	return []sheet{
		annualSheet(r),
		seasonalSheet(r),
		trendSheet(r),
		mannKendallSheet(r),
		comparisonSheet(r),
		extremeSheet(r),
		returnPeriodSheet(r),
	}
}

func annualSheet(r domain.Report) sheet {
	s := sheet{
		name:   SheetAnnual,
		header: []any{"year", "mean_tmax", "mean_tmin", "total_precip", "days", "valid_tmax", "valid_tmin", "valid_prcp"},
	}
	for _, a := range r.Annual {
		s.rows = append(s.rows, []any{
			a.Year, num(a.MeanTmax), num(a.MeanTmin), num(a.TotalPrecip),
			a.Days, a.ValidTmax, a.ValidTmin, a.ValidPrcp,
		})
	}
	return s
}

func seasonalSheet(r domain.Report) sheet {
	s := sheet{
		name:   SheetSeasonal,
		header: []any{"year", "season", "mean_tmax", "mean_tmin", "total_precip", "days"},
	}
	for _, a := range r.Seasonal {
		s.rows = append(s.rows, []any{
			a.Year, string(a.Season), num(a.MeanTmax), num(a.MeanTmin), num(a.TotalPrecip), a.Days,
		})
	}
	return s
}

func trendSheet(r domain.Report) sheet {
	s := sheet{
		name:   SheetTrends,
		header: []any{"metric", "range", "n", "slope", "intercept", "std_err", "ci_lower", "ci_upper", "level", "p_value", "r_squared"},
	}
	for _, t := range r.Trends {
		s.rows = append(s.rows, []any{
			t.Metric, t.Range.String(), t.N, num(t.Slope), num(t.Intercept), num(t.StdErr),
			num(t.CILower), num(t.CIUpper), t.Level, num(t.PValue), num(t.RSquared),
		})
	}
	return s
}

func mannKendallSheet(r domain.Report) sheet {
	s := sheet{
		name:   SheetMannKendall,
		header: []any{"metric", "range", "n", "s", "var_s", "z", "tau", "p_value", "sen_slope", "trend"},
	}
	for _, m := range r.MannKendall {
		s.rows = append(s.rows, []any{
			m.Metric, m.Range.String(), m.N, m.S, num(m.VarS), num(m.Z),
			num(m.Tau), num(m.PValue), num(m.SenSlope), m.Trend,
		})
	}
	return s
}

func comparisonSheet(r domain.Report) sheet {
	s := sheet{
		name: SheetComparisons,
		header: []any{"metric", "first", "second", "n_first", "n_second", "mean_first", "mean_second",
			"difference", "ci_lower", "ci_upper", "level", "t", "df", "p_value"},
	}
	for _, c := range r.Comparisons {
		s.rows = append(s.rows, []any{
			c.Metric, c.First.String(), c.Second.String(), c.NFirst, c.NSecond,
			num(c.MeanFirst), num(c.MeanSecond), num(c.Difference), num(c.CILower), num(c.CIUpper),
			c.Level, num(c.T), num(c.DF), num(c.PValue),
		})
	}
	return s
}

// extremeSheet writes the extreme series in long form: one row per metric and year.
func extremeSheet(r domain.Report) sheet {
	s := sheet{name: SheetExtremes, header: []any{"metric", "year", "value"}}
	for _, e := range r.Extremes {
		for _, p := range e.Points {
			s.rows = append(s.rows, []any{e.Metric, p.Year, num(p.Value)})
		}
	}
	return s
}

func returnPeriodSheet(r domain.Report) sheet {
	s := sheet{
		name:   SheetReturnPeriods,
		header: []any{"metric", "range", "years_spanned", "events", "interval_years"},
	}
	for _, rp := range r.ReturnPeriods {
		s.rows = append(s.rows, []any{rp.Metric, rp.Range, rp.YearsSpanned, rp.Events, num(rp.IntervalYears)})
	}
	return s
}

// num maps NaN and ±Inf to an empty cell.
func num(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
