package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
)

// Reader loads a station CSV from disk. It implements pipeline.Extractor.
type Reader struct {
	path   string
	opts   domain.LoadOptions
	logger *slog.Logger
}

// NewReader creates a Reader for the CSV at path.
func NewReader(path string, opts domain.LoadOptions, logger *slog.Logger) *Reader {
	return &Reader{path: path, opts: opts, logger: logger}
}

// Extract opens the file and parses every row.
func (r *Reader) Extract(ctx context.Context) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("open station record: %w", err)
	}
	defer f.Close()

	obs, stats, err := domain.LoadObservations(f, r.opts, r.logger.With("source", r.path))
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("load %s: %w", r.path, err)
	}
	return domain.Dataset{Source: r.path, Observations: obs, Stats: stats}, nil
}
