// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/bizmap/internal/app"
	"github.com/okian/bizmap/internal/domain/filter"
	"github.com/okian/bizmap/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Filters(ctx context.Context) ([]service.FilterControl, []service.Warning, error)
	Render(ctx context.Context, sel filter.Selection) (*service.View, error)
	Records(ctx context.Context, sel filter.Selection) ([]model.Record, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	filtersHandler   *FiltersHandler
	viewHandler      *ViewHandler
	recordsHandler   *RecordsHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		filtersHandler:   NewFiltersHandler(deps),
		viewHandler:      NewViewHandler(deps),
		recordsHandler:   NewRecordsHandler(deps),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/dashboard", s.dashboardHandler.HandleDashboard)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/filters", MetricsMiddleware(s.filtersHandler.HandleGetFilters, "filters"))
		r.Get("/view", MetricsMiddleware(s.viewHandler.HandleGetView, "view"))
		r.Get("/records", MetricsMiddleware(s.recordsHandler.HandleGetRecords, "records"))
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, filter.ErrUnknownColumn):
		writeError(w, http.StatusBadRequest, "unknown_column", err)
	case errors.Is(err, service.ErrDatasetUnavailable):
		writeError(w, http.StatusServiceUnavailable, "dataset_unavailable", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "timeout", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// selectionFrom parses the filter selection from the query string.
func selectionFrom(r *http.Request) (filter.Selection, error) {
	sel, err := filter.ParseQuery(r.URL.Query())
	if err != nil {
		return nil, errors.Join(ErrBadRequest, err)
	}
	return sel, nil
}
