package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
	"github.com/couchcryptid/climate-trends-etl/internal/observability"
)

// Extractor reads a station record from the source.
type Extractor interface {
	Extract(ctx context.Context) (domain.Dataset, error)
}

// Analyzer turns a loaded dataset into a report.
type Analyzer interface {
	Analyze(ctx context.Context, ds domain.Dataset) (domain.Report, error)
}

// Loader publishes a finished report to a destination.
type Loader interface {
	Load(ctx context.Context, report domain.Report) error
}

// Sink is a named Loader; the name labels logs and sink error metrics.
type Sink struct {
	Name   string
	Loader Loader
}

// Pipeline orchestrates the single-pass extract-analyze-load run.
type Pipeline struct {
	extractor Extractor
	analyzer  Analyzer
	sinks     []Sink
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, a Analyzer, logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *Pipeline {
	return &Pipeline{
		extractor: e,
		analyzer:  a,
		sinks:     sinks,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has completed and every sink accepted
// the report, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no analysis run has completed yet")
	}
	return nil
}

// Ready reports whether a run has completed successfully.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Run loads the record, analyzes it and hands the report to every sink. A
// load or analysis error aborts the run. Sink errors are joined and returned
// after all sinks have been tried, together with the report.
func (p *Pipeline) Run(ctx context.Context) (domain.Report, error) {
	start := time.Now()
	p.logger.Info("pipeline started", "sinks", len(p.sinks))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ds, err := p.extractor.Extract(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("extract: %w", err)
	}
	p.recordLoad(ds.Stats)
	p.logger.Info("station record loaded",
		"source", ds.Source,
		"rows_loaded", ds.Stats.RowsLoaded,
		"rows_skipped", ds.Stats.RowsSkipped,
	)

	report, err := p.analyzer.Analyze(ctx, ds)
	if err != nil {
		return report, fmt.Errorf("analyze: %w", err)
	}
	p.recordAnalysis(report)

	var errs []error
	for _, s := range p.sinks {
		if err := s.Loader.Load(ctx, report); err != nil {
			p.logger.Error("sink failed", "sink", s.Name, "error", err)
			p.metrics.SinkErrors.WithLabelValues(s.Name).Inc()
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name, err))
			continue
		}
		p.logger.Debug("report published", "sink", s.Name)
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err := errors.Join(errs...); err != nil {
		return report, err
	}

	p.ready.Store(true)
	p.metrics.LastSuccess.SetToCurrentTime()
	p.logger.Info("pipeline finished",
		"run_id", report.RunID,
		"results", report.ResultCount(),
		"failures", len(report.Failures),
		"duration", time.Since(start),
	)
	return report, nil
}

func (p *Pipeline) recordLoad(s domain.LoadStats) {
	p.metrics.RowsProcessed.WithLabelValues("read").Add(float64(s.RowsRead))
	p.metrics.RowsProcessed.WithLabelValues("loaded").Add(float64(s.RowsLoaded))
	p.metrics.RowsProcessed.WithLabelValues("skipped").Add(float64(s.RowsSkipped))
	p.metrics.RowsProcessed.WithLabelValues("out_of_range").Add(float64(s.RowsOutOfRange))
}

func (p *Pipeline) recordAnalysis(r domain.Report) {
	for v, n := range r.Quality.Imputed {
		p.metrics.ValuesImputed.WithLabelValues(string(v)).Add(float64(n))
	}
	for v, n := range r.Quality.Flagged {
		p.metrics.ValuesFlagged.WithLabelValues(string(v)).Add(float64(n))
	}
	p.metrics.AnalysesCompleted.WithLabelValues(StepTrend).Add(float64(len(r.Trends)))
	p.metrics.AnalysesCompleted.WithLabelValues(StepMannKendall).Add(float64(len(r.MannKendall)))
	p.metrics.AnalysesCompleted.WithLabelValues(StepComparison).Add(float64(len(r.Comparisons)))
	p.metrics.AnalysesCompleted.WithLabelValues("extreme").Add(float64(len(r.Extremes)))
	p.metrics.AnalysesCompleted.WithLabelValues(StepReturnPeriod).Add(float64(len(r.ReturnPeriods)))
	for _, f := range r.Failures {
		p.metrics.AnalysisFailures.WithLabelValues(f.Step).Inc()
	}
}
