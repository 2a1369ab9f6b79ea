// Package server exposes the latest dashboard render over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"pqrsdf-sla/dashboard"
	"pqrsdf-sla/formatter"
	"pqrsdf-sla/metrics"
	"pqrsdf-sla/models"
	"pqrsdf-sla/parser"
	"pqrsdf-sla/store"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RenderFunc produces a fresh report for the given options.
type RenderFunc func(ctx context.Context, opts dashboard.Options) (*models.Report, error)

// Server serves the latest report and on-demand filtered renders.
type Server struct {
	render   RenderFunc
	defaults dashboard.Options
	runs     store.Store
	logger   *zap.Logger

	mu     sync.RWMutex
	latest *models.Report
}

// New creates a Server. runs may be nil when no history is kept.
func New(render RenderFunc, defaults dashboard.Options, runs store.Store, logger *zap.Logger) *Server {
	return &Server{render: render, defaults: defaults, runs: runs, logger: logger}
}

// SetReport replaces the report served to unfiltered requests.
func (s *Server) SetReport(report *models.Report) {
	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()
}

// Latest returns the report set by the last refresh, or nil.
func (s *Server) Latest() *models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/report", s.getReport)
		r.Get("/summaries", s.getSummaries)
		r.Get("/cases", s.getCases)
		r.Get("/export.csv", s.exportCSV)
		r.Get("/export.xlsx", s.exportXLSX)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}/summaries", s.runSummaries)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	latest := s.Latest()
	if latest == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"run_id":       latest.RunID,
		"generated_at": latest.GeneratedAt,
	})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) getSummaries(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"as_of":     report.AsOf,
		"group_by":  report.GroupBy,
		"overview":  report.Overview,
		"summaries": report.Summaries,
	})
}

func (s *Server) getCases(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Cases)
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(report, "csv"))
	w.Write([]byte(formatter.FormatCasesCSV(report)))
}

func (s *Server) exportXLSX(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w, r)
	if !ok {
		return
	}
	data, err := formatter.FormatXLSX(report)
	if err != nil {
		s.logger.Error("xlsx export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate workbook")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment(report, "xlsx"))
	w.Write(data)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run history is not enabled")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) runSummaries(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run history is not enabled")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	summaries, err := s.runs.Summaries(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to load run summaries", zap.String("run_id", id.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run summaries")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// report returns the latest report, or renders a fresh one when the request
// carries filter parameters. It writes the error response itself.
func (s *Server) report(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	opts, custom, err := s.optionsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if !custom {
		latest := s.Latest()
		if latest == nil {
			writeError(w, http.StatusServiceUnavailable, "no report rendered yet")
			return nil, false
		}
		return latest, true
	}
	report, err := s.render(r.Context(), opts)
	if err != nil {
		s.logger.Error("render failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to render report")
		return nil, false
	}
	return report, true
}

// optionsFromQuery reads group_by, year, month, category, area and bucket.
// A parameter present in the query replaces the configured default for that
// dimension. Multi-valued parameters accept repeats or comma-separated lists.
func (s *Server) optionsFromQuery(r *http.Request) (dashboard.Options, bool, error) {
	q := r.URL.Query()
	opts := s.defaults
	custom := false

	if v := q.Get("group_by"); v != "" {
		switch g := models.GroupBy(v); g {
		case models.GroupByArea, models.GroupByCategory, models.GroupByPeriod:
			opts.GroupBy = g
		default:
			return opts, false, fmt.Errorf("invalid group_by %q", v)
		}
		custom = true
	}

	if raw := values(q["year"]); len(raw) > 0 {
		years := make([]int, 0, len(raw))
		for _, v := range raw {
			n, err := strconv.Atoi(v)
			if err != nil {
				return opts, false, fmt.Errorf("invalid year %q", v)
			}
			years = append(years, n)
		}
		opts.Filter.Years = years
		custom = true
	}

	if raw := values(q["month"]); len(raw) > 0 {
		months := make([]int, 0, len(raw))
		for _, v := range raw {
			m, err := parser.ParseMonth(v)
			if err != nil {
				return opts, false, fmt.Errorf("invalid month %q", v)
			}
			months = append(months, m)
		}
		opts.Filter.Months = months
		custom = true
	}

	if raw := values(q["category"]); len(raw) > 0 {
		categories := make([]models.Category, 0, len(raw))
		for _, v := range raw {
			c := parser.ParseCategory(v)
			if c == models.CategoryOther && parser.Fold(v) != string(models.CategoryOther) {
				return opts, false, fmt.Errorf("unknown category %q", v)
			}
			categories = append(categories, c)
		}
		opts.Filter.Categories = categories
		custom = true
	}

	if raw := values(q["area"]); len(raw) > 0 {
		opts.Filter.Areas = raw
		custom = true
	}

	if raw := values(q["bucket"]); len(raw) > 0 {
		buckets := make([]models.Bucket, 0, len(raw))
		for _, v := range raw {
			b := models.Bucket(strings.ToLower(v))
			if !slices.Contains(models.Buckets, b) {
				return opts, false, fmt.Errorf("invalid bucket %q", v)
			}
			buckets = append(buckets, b)
		}
		opts.Filter.Buckets = buckets
		custom = true
	}
	return opts, custom, nil
}

func values(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func attachment(report *models.Report, ext string) string {
	return fmt.Sprintf(`attachment; filename="pqrsdf-%s.%s"`, report.AsOf.Format("2006-01-02"), ext)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
