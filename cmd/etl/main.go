package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/climate-trends-etl/internal/adapter/file"
	"github.com/couchcryptid/climate-trends-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/climate-trends-etl/internal/adapter/kafka"
	"github.com/couchcryptid/climate-trends-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/climate-trends-etl/internal/config"
	"github.com/couchcryptid/climate-trends-etl/internal/observability"
	"github.com/couchcryptid/climate-trends-etl/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	os.Exit(run(cfg))
}

func run(cfg *config.Config) int {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store := httpadapter.NewReportStore()
	sinks := []pipeline.Sink{
		{Name: "http", Loader: store},
		{Name: "file", Loader: file.NewReportWriter(cfg.ReportPath, logger)},
	}
	if cfg.XLSXPath != "" {
		sinks = append(sinks, pipeline.Sink{Name: "xlsx", Loader: xlsx.NewExporter(cfg.XLSXPath, logger)})
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: writer})
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaReportTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(
		file.NewReader(cfg.InputPath, cfg.LoadOptions(), logger),
		pipeline.NewAnalyzer(planFromConfig(cfg), logger),
		logger,
		metrics,
		sinks...,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	code := 0
	if _, err := p.Run(ctx); err != nil {
		logger.Error("pipeline error", "error", err)
		code = 1
	}

	if cfg.Serve && ctx.Err() == nil {
		logger.Info("serving report until shutdown", "addr", cfg.HTTPAddr)
		<-ctx.Done()
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return code
}

func planFromConfig(cfg *config.Config) pipeline.Plan {
	return pipeline.Plan{
		Confidence:           cfg.ConfidenceLevel,
		Quality:              cfg.QualityPolicy(),
		TrendRanges:          cfg.TrendRanges,
		Comparisons:          cfg.CompareRanges,
		FreezeThreshold:      cfg.FreezeThreshold,
		HotDayThreshold:      cfg.HotDayThreshold,
		HeavyPrecipThreshold: cfg.HeavyPrecipThreshold,
		ReturnPeriodWindow:   cfg.ReturnPeriodRange,
		SeasonalTrends:       cfg.SeasonalTrends,
		Workers:              cfg.AnalysisWorkers,
	}
}
