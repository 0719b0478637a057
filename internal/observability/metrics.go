package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the analysis pipeline.
type Metrics struct {
	RowsProcessed   *prometheus.CounterVec // labels: outcome={read,loaded,skipped,out_of_range}
	PipelineRunning prometheus.Gauge

	// Quality filter metrics.
	ValuesImputed *prometheus.CounterVec // labels: variable={tmax,tmin,prcp}
	ValuesFlagged *prometheus.CounterVec // labels: variable={tmax,tmin,prcp}

	// Analysis metrics.
	AnalysesCompleted *prometheus.CounterVec // labels: kind={trend,mann_kendall,comparison,extreme,return_period}
	AnalysisFailures  *prometheus.CounterVec // labels: step
	RunDuration       prometheus.Histogram
	LastSuccess       prometheus.Gauge

	// Sink metrics.
	SinkErrors *prometheus.CounterVec // labels: sink={file,xlsx,kafka,http}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsProcessed,
		m.PipelineRunning,
		m.ValuesImputed,
		m.ValuesFlagged,
		m.AnalysesCompleted,
		m.AnalysisFailures,
		m.RunDuration,
		m.LastSuccess,
		m.SinkErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "CSV rows by load outcome.",
		}, []string{"outcome"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while an analysis run is in progress, 0 otherwise.",
		}),
		ValuesImputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_imputed_total",
			Help:      "Missing daily values filled by the quality filter.",
		}, []string{"variable"}),
		ValuesFlagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_flagged_total",
			Help:      "Daily values marked missing for falling below a plausibility floor.",
		}, []string{"variable"}),
		AnalysesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_completed_total",
			Help:      "Analysis results produced by kind.",
		}, []string{"kind"}),
		AnalysisFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_failures_total",
			Help:      "Analysis steps that could not produce a result.",
		}, []string{"step"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-analyze-publish run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run whose sinks all succeeded.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Report publication failures by sink.",
		}, []string{"sink"}),
	}
}
