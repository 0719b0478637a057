package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
)

// ReportWriter writes the report as indented JSON to a file, or to stdout
// when the path is "-". It implements pipeline.Loader.
type ReportWriter struct {
	path   string
	stdout io.Writer
	logger *slog.Logger
}

// NewReportWriter creates a ReportWriter for path.
func NewReportWriter(path string, logger *slog.Logger) *ReportWriter {
	return &ReportWriter{path: path, stdout: os.Stdout, logger: logger}
}

// Load encodes the report. Files are written to a temporary sibling and
// renamed into place so readers never see a partial report.
func (w *ReportWriter) Load(_ context.Context, report domain.Report) error {
	if w.path == "-" {
		return encode(w.stdout, report)
	}

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := encode(tmp, report); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("write report %s: %w", w.path, err)
	}
	w.logger.Info("report written", "path", w.path, "run_id", report.RunID)
	return nil
}

func encode(out io.Writer, report domain.Report) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
