package kafka

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testReport() domain.Report {
	return domain.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
		Trends: []domain.TrendResult{{
			Metric: "mean_tmin", Range: domain.YearRange{From: 1970, To: 2020},
			Slope: 0.031, StdErr: math.NaN(), N: 51,
		}},
		MannKendall: []domain.MannKendallResult{{
			Metric: "mean_tmin", Range: domain.YearRange{From: 1925, To: 2020}, Tau: 0.4, Trend: domain.TrendIncreasing,
		}},
		Comparisons: []domain.ComparisonResult{{
			Metric: "total_precip",
			First:  domain.YearRange{From: 1925, To: 1970},
			Second: domain.YearRange{From: 1970, To: 2020},
		}},
		Extremes: []domain.ExtremeSeries{{
			Metric: "freezing_days",
			Points: domain.Series{{Year: 2000, Value: 3}, {Year: 2001, Value: 5}},
		}},
		ReturnPeriods: []domain.ReturnPeriodResult{{
			Metric: "heavy_precip_days", Range: "all", YearsSpanned: 21, Events: 4, IntervalYears: 5.5,
		}},
	}
}

func TestSerializeToMessage(t *testing.T) {
	r := testReport()

	msg, err := serializeToMessage(r, KindTrend, "mean_tmin", "1970-2020", r.Trends[0])
	require.NoError(t, err)

	assert.Equal(t, []byte("trend|mean_tmin|1970-2020"), msg.Key)
	assert.Contains(t, string(msg.Value), `"slope":0.031`)
	assert.Contains(t, string(msg.Value), `"std_err":null`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("trend"), msg.Headers[0].Value)
	assert.Equal(t, "run_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[1].Value)
	assert.Equal(t, "generated_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[2].Value)
}

func TestReportMessages_KeysInReportOrder(t *testing.T) {
	msgs, err := reportMessages(testReport())
	require.NoError(t, err)

	keys := make([]string, len(msgs))
	for i, m := range msgs {
		keys[i] = string(m.Key)
	}
	assert.Equal(t, []string{
		"trend|mean_tmin|1970-2020",
		"mann_kendall|mean_tmin|1925-2020",
		"comparison|total_precip|1925-1970:1970-2020",
		"extreme|freezing_days|2000-2001",
		"return_period|heavy_precip_days|all",
	}, keys)
}

func TestWriter_Load(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.Default()}

	require.NoError(t, w.Load(context.Background(), testReport()))
	assert.Len(t, fw.msgs, 5)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_Load_EmptyReport(t *testing.T) {
	fw := &fakeWriter{err: errors.New("should not be called")}
	w := &Writer{writer: fw, logger: slog.Default()}

	require.NoError(t, w.Load(context.Background(), domain.Report{RunID: "empty"}))
	assert.Empty(t, fw.msgs)
}

func TestWriter_Load_WriteError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker unavailable")}
	w := &Writer{writer: fw, logger: slog.Default()}

	err := w.Load(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.Contains(t, err.Error(), "publish 5 results")
}
