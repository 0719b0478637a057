package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RowPolicy decides what happens to a malformed data row.
type RowPolicy string

const (
	// RowSkip drops the row, logs a warning, and keeps loading.
	RowSkip RowPolicy = "skip"
	// RowFail aborts the load on the first malformed row.
	RowFail RowPolicy = "fail"
)

// ParseRowPolicy accepts "skip" or "fail".
func ParseRowPolicy(s string) (RowPolicy, error) {
	switch p := RowPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case RowSkip, RowFail:
		return p, nil
	default:
		return "", fmt.Errorf("unknown row policy %q", s)
	}
}

var (
	errMissingColumn = errors.New("required column not found")
	errBadDate       = errors.New("date is not YYYY-MM-DD")
	errBadNumber     = errors.New("not a number")
	errDuplicateDate = errors.New("duplicate date")
	errShortRow      = errors.New("row has fewer fields than header")
	errNegativePrcp  = errors.New("precipitation is negative")
)

// LoadOptions configures LoadObservations. Column names are matched after
// normalization (see NormalizeColumn).
type LoadOptions struct {
	DateColumn string
	TmaxColumn string
	TminColumn string
	PrcpColumn string

	// YearLowerBound drops rows before this year (inclusive bound); 0 disables.
	YearLowerBound int
	// YearUpperBound drops rows in or after this year (exclusive bound); 0 disables.
	YearUpperBound int

	RowPolicy RowPolicy
	Delimiter rune
}

// DefaultLoadOptions returns options for a GHCN-Daily style export.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		DateColumn: "date",
		TmaxColumn: "tmax",
		TminColumn: "tmin",
		PrcpColumn: "prcp",
		RowPolicy:  RowSkip,
		Delimiter:  ',',
	}
}

// LoadStats counts what happened to each input row.
type LoadStats struct {
	RowsRead       int `json:"rows_read"`
	RowsLoaded     int `json:"rows_loaded"`
	RowsSkipped    int `json:"rows_skipped"`
	RowsOutOfRange int `json:"rows_out_of_range"`
}

// NormalizeColumn lower-cases a header cell, strips quotes and a UTF-8 BOM,
// and collapses inner whitespace to underscores: " Max Temp " -> "max_temp".
func NormalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.Trim(strings.TrimSpace(name), `"'`)
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

// missingTokens are cell values that mean "no reading".
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"nan":  true,
	"null": true,
	"m":    true,
}

type columnIndex struct {
	date, tmax, tmin, prcp int
}

// LoadObservations reads a delimited daily table and returns observations
// ordered by date. A missing date column always fails; malformed rows follow
// opts.RowPolicy. Malformed covers CSV syntax errors, bad dates and numbers,
// duplicate dates and negative precipitation.
func LoadObservations(r io.Reader, opts LoadOptions, logger *slog.Logger) ([]DailyObservation, LoadStats, error) {
	var stats LoadStats
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts = withLoadDefaults(opts)

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, &ParseError{Err: errors.New("empty input")}
		}
		return nil, stats, &ParseError{Err: err}
	}

	idx, err := indexColumns(header, opts, logger)
	if err != nil {
		return nil, stats, err
	}

	seen := make(map[time.Time]int)
	var obs []DailyObservation
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		var csvErr *csv.ParseError
		if err != nil && !errors.As(err, &csvErr) {
			return nil, stats, &ParseError{Line: line, Err: err}
		}
		stats.RowsRead++

		var o DailyObservation
		var perr error
		if csvErr != nil {
			perr = &ParseError{Line: line, Err: csvErr.Err}
		} else {
			o, perr = parseRow(record, idx, opts, line)
		}
		if perr == nil {
			if first, dup := seen[o.Date]; dup {
				perr = &ParseError{Line: line, Column: opts.DateColumn, Value: o.Date.Format(DateLayout),
					Err: fmt.Errorf("%w (first seen on line %d)", errDuplicateDate, first)}
			}
		}
		if perr != nil {
			if opts.RowPolicy == RowFail {
				return nil, stats, perr
			}
			logger.Warn("skipping malformed row", "line", line, "error", perr)
			stats.RowsSkipped++
			continue
		}

		if !inYearWindow(o.Year(), opts) {
			stats.RowsOutOfRange++
			continue
		}

		seen[o.Date] = line
		obs = append(obs, o)
	}

	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	stats.RowsLoaded = len(obs)
	return obs, stats, nil
}

func withLoadDefaults(opts LoadOptions) LoadOptions {
	def := DefaultLoadOptions()
	if opts.DateColumn == "" {
		opts.DateColumn = def.DateColumn
	}
	if opts.TmaxColumn == "" {
		opts.TmaxColumn = def.TmaxColumn
	}
	if opts.TminColumn == "" {
		opts.TminColumn = def.TminColumn
	}
	if opts.PrcpColumn == "" {
		opts.PrcpColumn = def.PrcpColumn
	}
	if opts.RowPolicy == "" {
		opts.RowPolicy = def.RowPolicy
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = def.Delimiter
	}
	opts.DateColumn = NormalizeColumn(opts.DateColumn)
	opts.TmaxColumn = NormalizeColumn(opts.TmaxColumn)
	opts.TminColumn = NormalizeColumn(opts.TminColumn)
	opts.PrcpColumn = NormalizeColumn(opts.PrcpColumn)
	return opts
}

func indexColumns(header []string, opts LoadOptions, logger *slog.Logger) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeColumn(h)
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	idx := columnIndex{date: -1, tmax: -1, tmin: -1, prcp: -1}
	i, ok := pos[opts.DateColumn]
	if !ok {
		return idx, &ParseError{Column: opts.DateColumn, Err: errMissingColumn}
	}
	idx.date = i

	lookup := func(col string) int {
		if i, ok := pos[col]; ok {
			return i
		}
		logger.Warn("value column not found, loading as missing", "column", col)
		return -1
	}
	idx.tmax = lookup(opts.TmaxColumn)
	idx.tmin = lookup(opts.TminColumn)
	idx.prcp = lookup(opts.PrcpColumn)
	return idx, nil
}

func parseRow(record []string, idx columnIndex, opts LoadOptions, line int) (DailyObservation, error) {
	if idx.date >= len(record) {
		return DailyObservation{}, &ParseError{Line: line, Err: errShortRow}
	}

	raw := strings.TrimSpace(record[idx.date])
	date, err := time.Parse(DateLayout, raw)
	if err != nil {
		return DailyObservation{}, &ParseError{Line: line, Column: opts.DateColumn, Value: raw, Err: errBadDate}
	}

	o := DailyObservation{Date: date}
	if o.Tmax, err = parseReading(record, idx.tmax, opts.TmaxColumn, line); err != nil {
		return DailyObservation{}, err
	}
	if o.Tmin, err = parseReading(record, idx.tmin, opts.TminColumn, line); err != nil {
		return DailyObservation{}, err
	}
	if o.Prcp, err = parseReading(record, idx.prcp, opts.PrcpColumn, line); err != nil {
		return DailyObservation{}, err
	}
	if o.Prcp < 0 {
		return DailyObservation{}, &ParseError{Line: line, Column: opts.PrcpColumn,
			Value: strings.TrimSpace(record[idx.prcp]), Err: errNegativePrcp}
	}
	return o, nil
}

// parseReading returns Missing for an absent column, a short row, or a missing token.
func parseReading(record []string, i int, column string, line int) (float64, error) {
	if i < 0 || i >= len(record) {
		return Missing, nil
	}
	raw := strings.TrimSpace(strings.Trim(record[i], `"`))
	if missingTokens[strings.ToLower(raw)] {
		return Missing, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, &ParseError{Line: line, Column: column, Value: raw, Err: errBadNumber}
	}
	return v, nil
}

func inYearWindow(year int, opts LoadOptions) bool {
	if opts.YearLowerBound != 0 && year < opts.YearLowerBound {
		return false
	}
	if opts.YearUpperBound != 0 && year >= opts.YearUpperBound {
		return false
	}
	return true
}
