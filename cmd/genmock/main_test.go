package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenmock_WritesCSVToStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"--from", "2000", "--to", "2000", "--drop", "0", "--station", "TEST1"})

	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 367)
	assert.Equal(t, "STATION,DATE,PRCP,TMAX,TMIN", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "TEST1,2000-01-01,"))
	assert.Contains(t, stderr.String(), "wrote 366 rows for 2000-2000")
}

func TestGenmock_WritesReportFixture(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "mock", "station.csv")
	reportPath := filepath.Join(dir, "mock", "report.json")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"--from", "1990", "--to", "2020", "--out", csvPath, "--report-out", reportPath})

	require.NoError(t, cmd.Execute())
	assert.Empty(t, stdout.String())
	assert.FileExists(t, csvPath)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)

	var report struct {
		GeneratedAt string           `json:"generated_at"`
		Source      string           `json:"source"`
		Annual      []map[string]any `json:"annual"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "2024-04-27T06:00:00Z", report.GeneratedAt)
	assert.Equal(t, "synthetic:USW00023183", report.Source)
	assert.Len(t, report.Annual, 31)
	assert.Contains(t, stderr.String(), "Stats for updating test assertions")
}

func TestGenmock_RejectsInvertedYears(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"--from", "2020", "--to", "2000"})
	cmd.SetErr(&stderr)

	require.Error(t, cmd.Execute())
	assert.Empty(t, stdout.String())
}
