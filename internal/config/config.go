package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Stdout as REPORT_PATH writes the JSON report to standard output.
const Stdout = "-"

// Config holds all service settings, populated from environment variables.
type Config struct {
	InputPath  string
	ReportPath string
	XLSXPath   string

	// Loader settings.
	YearLowerBound int
	YearUpperBound int
	RowPolicy      domain.RowPolicy

	// Quality filter settings.
	PrecipPolicy domain.PrecipPolicy
	TmaxFloor    float64
	TminFloor    float64
	GapPolicy    domain.GapPolicy
	MaxGapDays   int

	// Analysis settings.
	ConfidenceLevel      float64
	TrendRanges          []domain.YearRange
	CompareRanges        []domain.RangePair
	FreezeThreshold      float64
	HotDayThreshold      float64
	HeavyPrecipThreshold float64
	ReturnPeriodRange    domain.YearRange
	SeasonalTrends       bool
	AnalysisWorkers      int

	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaReportTopic string

	HTTPAddr        string
	Serve           bool
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputPath:        os.Getenv("INPUT_PATH"),
		ReportPath:       sharedcfg.EnvOrDefault("REPORT_PATH", Stdout),
		XLSXPath:         os.Getenv("XLSX_PATH"),
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "climate-trend-results"),
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
	}

	if cfg.InputPath == "" {
		return nil, errors.New("INPUT_PATH is required")
	}

	if err := cfg.loadLoaderSettings(); err != nil {
		return nil, err
	}
	if err := cfg.loadQualitySettings(); err != nil {
		return nil, err
	}
	if err := cfg.loadAnalysisSettings(); err != nil {
		return nil, err
	}

	if cfg.KafkaEnabled, err = parseBool("KAFKA_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.Serve, err = parseBool("SERVE", false); err != nil {
		return nil, err
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaReportTopic == "" {
			return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func (c *Config) loadLoaderSettings() error {
	var err error
	if c.YearLowerBound, err = parseInt("YEAR_LOWER_BOUND", 0, 0); err != nil {
		return err
	}
	if c.YearUpperBound, err = parseInt("YEAR_UPPER_BOUND", 2021, 0); err != nil {
		return err
	}
	if c.YearLowerBound > 0 && c.YearUpperBound > 0 && c.YearUpperBound <= c.YearLowerBound {
		return errors.New("invalid YEAR_UPPER_BOUND: must be greater than YEAR_LOWER_BOUND")
	}
	if c.RowPolicy, err = domain.ParseRowPolicy(sharedcfg.EnvOrDefault("ROW_ERROR_POLICY", "skip")); err != nil {
		return fmt.Errorf("invalid ROW_ERROR_POLICY: %w", err)
	}
	return nil
}

func (c *Config) loadQualitySettings() error {
	var err error
	if c.PrecipPolicy, err = domain.ParsePrecipPolicy(sharedcfg.EnvOrDefault("PRECIP_MISSING_POLICY", "zero")); err != nil {
		return fmt.Errorf("invalid PRECIP_MISSING_POLICY: %w", err)
	}
	if c.GapPolicy, err = domain.ParseGapPolicy(sharedcfg.EnvOrDefault("GAP_POLICY", "isolated")); err != nil {
		return fmt.Errorf("invalid GAP_POLICY: %w", err)
	}
	if c.TmaxFloor, err = parseFloor("TMAX_FLOOR", 40); err != nil {
		return err
	}
	if c.TminFloor, err = parseFloor("TMIN_FLOOR", domain.NoFloor); err != nil {
		return err
	}
	if c.MaxGapDays, err = parseInt("MAX_GAP_DAYS", 3, 1); err != nil {
		return err
	}
	return nil
}

func (c *Config) loadAnalysisSettings() error {
	var err error
	if c.ConfidenceLevel, err = parseFloat("CONFIDENCE_LEVEL", 0.95); err != nil {
		return err
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return errors.New("invalid CONFIDENCE_LEVEL: must be between 0 and 1 exclusive")
	}
	if c.TrendRanges, err = parseList("TREND_RANGES", "1925-1970,1970-2020,2000-2020", domain.ParseYearRange); err != nil {
		return err
	}
	if c.CompareRanges, err = parseList("COMPARE_RANGES", "1925-1970:1970-2020", domain.ParseRangePair); err != nil {
		return err
	}
	if s := os.Getenv("RETURN_PERIOD_RANGE"); s != "" {
		if c.ReturnPeriodRange, err = domain.ParseYearRange(s); err != nil {
			return fmt.Errorf("invalid RETURN_PERIOD_RANGE: %w", err)
		}
	}
	if c.FreezeThreshold, err = parseFloat("FREEZE_THRESHOLD", 32); err != nil {
		return err
	}
	if c.HotDayThreshold, err = parseFloat("HOT_DAY_THRESHOLD", 100); err != nil {
		return err
	}
	if c.HeavyPrecipThreshold, err = parseFloat("HEAVY_PRECIP_THRESHOLD", 1.0); err != nil {
		return err
	}
	if c.SeasonalTrends, err = parseBool("SEASONAL_TRENDS", true); err != nil {
		return err
	}
	if c.AnalysisWorkers, err = parseInt("ANALYSIS_WORKERS", 4, 1); err != nil {
		return err
	}
	return nil
}

// LoadOptions returns the CSV loader options for this configuration.
func (c *Config) LoadOptions() domain.LoadOptions {
	opts := domain.DefaultLoadOptions()
	opts.YearLowerBound = c.YearLowerBound
	opts.YearUpperBound = c.YearUpperBound
	opts.RowPolicy = c.RowPolicy
	return opts
}

// QualityPolicy returns the cleaning rules for this configuration.
func (c *Config) QualityPolicy() domain.QualityPolicy {
	return domain.QualityPolicy{
		Precip: c.PrecipPolicy,
		Temperature: []domain.TemperatureRule{
			{Variable: domain.Tmax, Floor: c.TmaxFloor, Gaps: c.GapPolicy, MaxGap: c.MaxGapDays},
			{Variable: domain.Tmin, Floor: c.TminFloor, Gaps: c.GapPolicy, MaxGap: c.MaxGapDays},
		},
	}
}

func parseInt(key string, fallback, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minimum)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be a number", key)
	}
	return f, nil
}

// parseFloor accepts a number or "none" to disable the floor.
func parseFloor(key string, fallback float64) (float64, error) {
	if strings.EqualFold(os.Getenv(key), "none") {
		return domain.NoFloor, nil
	}
	return parseFloat(key, fallback)
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: must be true or false", key)
	}
	return b, nil
}

// parseList splits a comma-separated value and parses each element. An
// explicitly empty value ("none") yields an empty list.
func parseList[T any](key, fallback string, parse func(string) (T, error)) ([]T, error) {
	s := sharedcfg.EnvOrDefault(key, fallback)
	if strings.EqualFold(s, "none") {
		return nil, nil
	}
	var out []T
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := parse(part)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
