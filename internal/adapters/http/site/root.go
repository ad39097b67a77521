// Package site serves the interactive map page.
package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/bizmap/internal/app"
	"github.com/okian/bizmap/internal/domain/filter"
	"github.com/okian/bizmap/pkg/logger"
	"github.com/okian/bizmap/pkg/metrics"
)

// Error constants
var (
	ErrRender = errors.New("page render failed")
)

// Renderer runs one render pass for the page.
type Renderer interface {
	Render(ctx context.Context, sel filter.Selection) (*service.View, error)
}

// Page is the heading shown even when the view cannot be built.
type Page struct {
	Title       string
	Description string
}

// RootHandler handles page requests.
type RootHandler struct {
	deps Renderer
	page Page
	log  logger.Logger
}

// NewRootHandler creates a new root handler.
func NewRootHandler(deps Renderer, page Page, log logger.Logger) *RootHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RootHandler{deps: deps, page: page, log: log}
}

// Register attaches the page and its assets to r.
func (h *RootHandler) Register(r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Get("/", h.HandleRoot)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(FS())))
}

type pageData struct {
	Page     Page
	View     *service.View
	Warnings []service.Warning
	Markers  template.JS
	MapState template.JS
	Error    string
}

// HandleRoot handles GET / requests. Each request is one render pass:
// the query string carries the sidebar selection.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	ctx := service.ContextWithSurface(r.Context(), metrics.SurfacePage)
	sel, ignored := filter.ParseQueryLenient(r.URL.Query())

	view, err := h.deps.Render(ctx, sel)
	if err != nil {
		h.log.Error(ctx, "page render failed", logger.Error(err))
		status := http.StatusInternalServerError
		msg := "The page could not be rendered."
		if errors.Is(err, service.ErrDatasetUnavailable) {
			status = http.StatusServiceUnavailable
			msg = "The business dataset could not be loaded. Please try again shortly."
		}
		h.write(w, status, pageData{Page: h.page, Error: msg})
		return
	}

	markers, err := marshalTemplateJS(view.Map.Markers)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	state, err := marshalTemplateJS(view.Map)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	h.write(w, http.StatusOK, pageData{
		Page:     Page{Title: view.Title, Description: view.Description},
		View:     view,
		Warnings: append(service.IgnoredColumnWarnings(ignored), view.Warnings...),
		Markers:  markers,
		MapState: state,
	})
}

func (h *RootHandler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	h.log.Error(ctx, "page encode failed", logger.Error(err))
	h.write(w, http.StatusInternalServerError, pageData{Page: h.page, Error: "The page could not be rendered."})
}

func (h *RootHandler) write(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		h.log.Error(context.Background(), "page template failed", logger.Error(errors.Join(ErrRender, err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// marshalTemplateJS encodes value for direct use inside a script block.
// encoding/json escapes <, > and & so the payload cannot close the tag.
func marshalTemplateJS(value any) (template.JS, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return template.JS(""), err
	}
	return template.JS(payload), nil //nolint:gosec // JSON from encoding/json
}
