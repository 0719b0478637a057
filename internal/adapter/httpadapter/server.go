package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportStore keeps the most recent report in memory. It implements
// pipeline.Loader so the HTTP server can serve what the last run produced.
type ReportStore struct {
	mu     sync.RWMutex
	report *domain.Report
}

// NewReportStore returns an empty store.
func NewReportStore() *ReportStore {
	return &ReportStore{}
}

// Load replaces the stored report.
func (s *ReportStore) Load(_ context.Context, report domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = &report
	return nil
}

// Latest returns the stored report and whether one exists.
func (s *ReportStore) Latest() (domain.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return domain.Report{}, false
	}
	return *s.report, true
}

// Server exposes health, readiness, metrics, and report HTTP endpoints.
type Server struct {
	httpServer *http.Server
	store      *ReportStore
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /report routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, store *ReportStore, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:  store,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /report", s.handleReport)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.store.Latest()
	if !ok {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{
			"status": "no report",
			"error":  "no analysis run has completed yet",
		})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}
