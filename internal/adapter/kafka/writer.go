package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-trends-etl/internal/config"
	"github.com/couchcryptid/climate-trends-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Result kinds used in message keys and the kind header.
const (
	KindTrend        = "trend"
	KindMannKendall  = "mann_kendall"
	KindComparison   = "comparison"
	KindExtreme      = "extreme"
	KindReturnPeriod = "return_period"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes analysis results to a Kafka topic, one message per result.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaReportTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Load serializes every result in the report and publishes them in a single
// WriteMessages call.
func (w *Writer) Load(ctx context.Context, report domain.Report) error {
	msgs, err := reportMessages(report)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d results: %w", len(msgs), err)
	}
	w.logger.Info("results published", "messages", len(msgs), "run_id", report.RunID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// reportMessages maps each result to a message in report order: trends,
// Mann-Kendall tests, comparisons, extremes, return periods.
func reportMessages(r domain.Report) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, r.ResultCount())
	add := func(kind, metric, rng string, v any) error {
		msg, err := serializeToMessage(r, kind, metric, rng, v)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
		return nil
	}

	for _, t := range r.Trends {
		if err := add(KindTrend, t.Metric, t.Range.String(), t); err != nil {
			return nil, err
		}
	}
	for _, mk := range r.MannKendall {
		if err := add(KindMannKendall, mk.Metric, mk.Range.String(), mk); err != nil {
			return nil, err
		}
	}
	for _, c := range r.Comparisons {
		if err := add(KindComparison, c.Metric, domain.RangePair{First: c.First, Second: c.Second}.String(), c); err != nil {
			return nil, err
		}
	}
	for _, e := range r.Extremes {
		if err := add(KindExtreme, e.Metric, e.Points.Span().String(), e); err != nil {
			return nil, err
		}
	}
	for _, rp := range r.ReturnPeriods {
		if err := add(KindReturnPeriod, rp.Metric, rp.Range, rp); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

// serializeToMessage marshals one result into a Kafka message keyed by
// kind|metric|range so results for the same series land on one partition.
func serializeToMessage(r domain.Report, kind, metric, rng string, v any) (kafkago.Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s result %s: %w", kind, metric, err)
	}
	return kafkago.Message{
		Key:   []byte(kind + "|" + metric + "|" + rng),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(kind)},
			{Key: "run_id", Value: []byte(r.RunID)},
			{Key: "generated_at", Value: []byte(r.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
