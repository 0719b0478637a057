// Package domain models a daily climate station record and the statistics
// derived from it.
//
// # Data Source
//
// Input tables follow the NOAA Global Historical Climatology Network daily
// (GHCN-Daily) CSV export: one row per calendar day with a DATE column and
// element columns. Only three elements are used:
//
//	TMAX  maximum temperature, degrees Fahrenheit
//	TMIN  minimum temperature, degrees Fahrenheit
//	PRCP  24-hour precipitation, inches
//
// Exports differ in header casing and spacing ("DATE", " Tmax ", "prcp"), so
// headers are normalized before lookup. Missing values appear as empty cells
// or NA tokens; absent days have no row at all.
//
// # Missing Values
//
// A missing reading is represented as NaN (see Missing and IsMissing). NaN
// never leaks into JSON: summary types marshal it as null.
//
// Some stations also record implausible values that are really missing data
// (e.g. a 0°F maximum at a desert station). The quality filter treats values
// below a configured floor as missing before imputation.
//
// # Derived Series
//
// Annual and seasonal summaries group rows by calendar year. Seasons use fixed
// month membership:
//
//	winter  Dec, Jan, Feb
//	spring  Mar, Apr, May
//	summer  Jun, Jul, Aug
//	fall    Sep, Oct, Nov
//
// December belongs to the winter of its own calendar year, so the "winter
// 1950" group holds Jan-Feb 1950 and Dec 1950.
//
// # Statistics
//
// Trend fits are ordinary least squares of a metric against year. The
// Mann-Kendall tau measures monotonic association only; it is not a rate and
// is reported alongside, not instead of, an OLS slope. Return periods are the
// empirical (years+1)/events estimator, not a fitted return level.
package domain
