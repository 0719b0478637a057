package file

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stationCSV = `DATE,TMAX,TMIN,PRCP
1950-01-01,45,30,0.1
1950-01-02,44,,0
not-a-date,1,2,3
1950-01-03,46,31,
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "station.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReader_Extract(t *testing.T) {
	path := writeCSV(t, stationCSV)
	r := NewReader(path, domain.DefaultLoadOptions(), slog.Default())

	ds, err := r.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, path, ds.Source)
	require.Len(t, ds.Observations, 3)
	assert.Equal(t, 4, ds.Stats.RowsRead)
	assert.Equal(t, 1, ds.Stats.RowsSkipped)
	assert.True(t, domain.IsMissing(ds.Observations[1].Tmin))
	assert.True(t, domain.IsMissing(ds.Observations[2].Prcp))
}

func TestReader_Extract_FailPolicy(t *testing.T) {
	opts := domain.DefaultLoadOptions()
	opts.RowPolicy = domain.RowFail
	r := NewReader(writeCSV(t, stationCSV), opts, slog.Default())

	_, err := r.Extract(context.Background())
	require.Error(t, err)

	var perr *domain.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 4, perr.Line)
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestReader_Extract_MissingFile(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "absent.csv"), domain.DefaultLoadOptions(), slog.Default())

	_, err := r.Extract(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReader_Extract_Cancelled(t *testing.T) {
	r := NewReader(writeCSV(t, stationCSV), domain.DefaultLoadOptions(), slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Extract(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func sampleReport() domain.Report {
	return domain.Report{
		RunID:  "run-1",
		Source: "station.csv",
		Trends: []domain.TrendResult{{Metric: "mean_tmin", Slope: -0.05, PValue: math.NaN(), N: 2}},
	}
}

func TestReportWriter_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	w := NewReportWriter(path, slog.Default())

	require.NoError(t, w.Load(context.Background(), sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got["run_id"])
	trends := got["trends"].([]any)
	require.Len(t, trends, 1)
	assert.Nil(t, trends[0].(map[string]any)["p_value"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be renamed away")
}

func TestReportWriter_Stdout(t *testing.T) {
	var buf bytes.Buffer
	w := NewReportWriter("-", slog.Default())
	w.stdout = &buf

	require.NoError(t, w.Load(context.Background(), sampleReport()))
	assert.Contains(t, buf.String(), `"run_id": "run-1"`)
}

func TestReportWriter_MissingDirectory(t *testing.T) {
	w := NewReportWriter(filepath.Join(t.TempDir(), "nope", "report.json"), slog.Default())
	require.Error(t, w.Load(context.Background(), sampleReport()))
}
