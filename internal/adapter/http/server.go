package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/aforos-dashboard/internal/domain"
	"github.com/couchcryptid/aforos-dashboard/internal/pipeline"
	"github.com/couchcryptid/aforos-dashboard/internal/presentation"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Dashboard is the recomputation core as seen by the HTTP layer.
type Dashboard interface {
	Snapshot(ctx context.Context) (pipeline.Refresh, error)
	Apply(ctx context.Context, change domain.FilterChange) (pipeline.Refresh, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dashboard page, its JSON API, and health, readiness,
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	dashboard  Dashboard
	renderer   *presentation.Renderer
	options    domain.Options
	page       *template.Template
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the dashboard routes plus /healthz,
// /readyz, and /metrics.
func NewServer(addr string, d Dashboard, renderer *presentation.Renderer, options domain.Options, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dashboard: d,
		renderer:  renderer,
		options:   options,
		page:      template.Must(template.ParseFS(templatesFS, "templates/*.html")),
		logger:    logger,
	}

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /api/options", s.handleOptions)
	mux.HandleFunc("GET /api/views", s.handleViews)
	mux.HandleFunc("POST /api/filters", s.handleFilters)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(d))
	mux.Handle("GET /metrics", promhttp.Handler())

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

type pageData struct {
	Title   string
	Options domain.Options
	State   domain.FilterState
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	refresh, err := s.dashboard.Snapshot(r.Context())
	if err != nil {
		s.writeDashboardError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{Title: presentation.Title, Options: s.options, State: refresh.State}
	if err := s.page.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "dashboard template execution failed", "error", err)
	}
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.options)
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	refresh, err := s.dashboard.Snapshot(r.Context())
	if err != nil {
		s.writeDashboardError(w, r, err)
		return
	}
	s.writeRefresh(w, r, refresh)
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	var change domain.FilterChange
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&change); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid filter change: " + err.Error()})
		return
	}

	if msg := s.validate(change); msg != "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": msg})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	refresh, err := s.dashboard.Apply(ctx, change)
	if err != nil {
		s.writeDashboardError(w, r, err)
		return
	}
	s.writeRefresh(w, r, refresh)
}

// validate checks selector domain membership. The core trusts its callers,
// so this is the only place out-of-domain values are rejected.
func (s *Server) validate(c domain.FilterChange) string {
	if c.Year != nil && !slices.Contains(s.options.Years, *c.Year) {
		return "year is not one of the available years"
	}
	if c.Month != nil && (*c.Month < 1 || *c.Month > 12) {
		return "month must be between 1 and 12"
	}
	if c.VehicleType != nil && !c.VehicleType.Valid() {
		return "vehicle_type is not one of the available vehicle types"
	}
	return ""
}

func (s *Server) writeRefresh(w http.ResponseWriter, r *http.Request, refresh pipeline.Refresh) {
	d, err := s.renderer.Dashboard(refresh)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "render dashboard failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) writeDashboardError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrStopped):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	}
	s.logger.WarnContext(r.Context(), "dashboard request failed", "error", err, "status", status)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
