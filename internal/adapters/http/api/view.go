package api

import (
	"context"
	"net/http"

	service "github.com/okian/bizmap/internal/app"
	"github.com/okian/bizmap/internal/domain/filter"
	"github.com/okian/bizmap/internal/domain/model"
	"github.com/okian/bizmap/pkg/metrics"
)

// FiltersDependencies defines the interface for filter control lookups.
type FiltersDependencies interface {
	Filters(ctx context.Context) ([]service.FilterControl, []service.Warning, error)
}

// FiltersHandler handles filter control requests.
type FiltersHandler struct {
	deps FiltersDependencies
}

// NewFiltersHandler creates a new filters handler.
func NewFiltersHandler(deps FiltersDependencies) *FiltersHandler {
	return &FiltersHandler{deps: deps}
}

type filtersResponse struct {
	Controls []service.FilterControl `json:"controls"`
	Warnings []service.Warning       `json:"warnings"`
}

// HandleGetFilters handles GET /api/filters requests.
func (h *FiltersHandler) HandleGetFilters(w http.ResponseWriter, r *http.Request) {
	controls, warnings, err := h.deps.Filters(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if warnings == nil {
		warnings = []service.Warning{}
	}
	writeJSON(w, http.StatusOK, filtersResponse{Controls: controls, Warnings: warnings})
}

// ViewDependencies defines the interface for full render passes.
type ViewDependencies interface {
	Render(ctx context.Context, sel filter.Selection) (*service.View, error)
}

// ViewHandler handles render requests.
type ViewHandler struct {
	deps ViewDependencies
}

// NewViewHandler creates a new view handler.
func NewViewHandler(deps ViewDependencies) *ViewHandler {
	return &ViewHandler{deps: deps}
}

// HandleGetView handles GET /api/view?COLUMN=value&... requests.
func (h *ViewHandler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_column", err)
		return
	}
	ctx := service.ContextWithSurface(r.Context(), metrics.SurfaceAPI)
	view, err := h.deps.Render(ctx, sel)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RecordsDependencies defines the interface for filtered table lookups.
type RecordsDependencies interface {
	Records(ctx context.Context, sel filter.Selection) ([]model.Record, error)
}

// RecordsHandler handles filtered record requests.
type RecordsHandler struct {
	deps RecordsDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordsDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

type recordsResponse struct {
	Count   int            `json:"count"`
	Records []model.Record `json:"records"`
}

// HandleGetRecords handles GET /api/records?COLUMN=value&... requests.
func (h *RecordsHandler) HandleGetRecords(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_column", err)
		return
	}
	records, err := h.deps.Records(r.Context(), sel)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []model.Record{}
	}
	writeJSON(w, http.StatusOK, recordsResponse{Count: len(records), Records: records})
}
