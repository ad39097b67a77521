// Package service runs render passes: each user interaction recomputes the
// filter controls, the filtered view, the map and the table from the
// cached dataset.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bizmap/internal/domain/filter"
	"github.com/okian/bizmap/internal/domain/geo"
	"github.com/okian/bizmap/internal/domain/model"
	"github.com/okian/bizmap/internal/domain/ordering"
	"github.com/okian/bizmap/pkg/logger"
	"github.com/okian/bizmap/pkg/metrics"
)

// ErrDatasetUnavailable is returned when the dataset cannot be loaded.
var ErrDatasetUnavailable = errors.New("dataset unavailable")

// DatasetProvider hands out the shared dataset.
type DatasetProvider interface {
	Get(ctx context.Context) (*model.Dataset, error)
	Loaded() bool
}

// Service implements the dependencies of the HTTP page and API.
type Service struct {
	mu sync.RWMutex

	provider DatasetProvider
	orderer  *ordering.Orderer
	mapCfg   geo.MapSettings

	title       string
	description string
	preload     bool

	started bool
	logger  logger.Logger

	renders      atomic.Int64
	emptyViews   atomic.Int64
	lastRenderNs atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCache sets where the dataset comes from.
func WithCache(p DatasetProvider) Option {
	return func(s *Service) {
		s.provider = p
	}
}

// WithOrderer replaces the default option orderer.
func WithOrderer(o *ordering.Orderer) Option {
	return func(s *Service) {
		if o != nil {
			s.orderer = o
		}
	}
}

// WithMapDefaults sets the fallback center and display parameters of the map.
func WithMapDefaults(center geo.Point, zoom, width, height int, tileURL string) Option {
	return func(s *Service) {
		s.mapCfg = geo.MapSettings{
			Fallback: center,
			Zoom:     zoom,
			Width:    width,
			Height:   height,
			TileURL:  tileURL,
		}
	}
}

// WithPage sets the page heading.
func WithPage(title, description string) Option {
	return func(s *Service) {
		s.title = title
		s.description = description
	}
}

// WithPreload makes Start warm the dataset cache.
func WithPreload(enabled bool) Option {
	return func(s *Service) {
		s.preload = enabled
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		orderer: ordering.New(ordering.WithUnknownHook(func(c model.Column, _ string) {
			metrics.RecordUnknownCategory(string(c))
		})),
		mapCfg: geo.MapSettings{
			Fallback: geo.Point{Lat: 43.0731, Lon: -89.4012},
			Zoom:     12,
			Width:    1000,
			Height:   600,
			TileURL:  "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		},
		title:  "Retail and Manufacturing in Madison, WI",
		logger: logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type surfaceKey struct{}

// ContextWithSurface tags render passes made with ctx for metrics.
func ContextWithSurface(ctx context.Context, surface string) context.Context {
	return context.WithValue(ctx, surfaceKey{}, surface)
}

func surfaceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(surfaceKey{}).(string); ok && s != "" {
		return s
	}
	return metrics.SurfaceAPI
}

// Start marks the service ready and, if enabled, preloads the dataset.
// A failed preload is logged; the next render retries.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.provider == nil {
		return fmt.Errorf("%w: no dataset source configured", ErrDatasetUnavailable)
	}

	s.logger.Info(ctx, "starting view service...",
		logger.Bool("preload", s.preload))

	if s.preload {
		if ds, err := s.provider.Get(ctx); err != nil {
			s.logger.Warn(ctx, "dataset preload failed, will retry on first request", logger.Error(err))
		} else {
			s.logger.Info(ctx, "dataset preloaded", logger.Int("records", ds.Len()))
		}
	}

	s.started = true
	s.logger.Info(ctx, "view service started")
	return nil
}

// Stop marks the service stopped. The dataset stays cached.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "view service stopped")
}

// Filters returns the sidebar controls for the current dataset.
func (s *Service) Filters(ctx context.Context) ([]FilterControl, []Warning, error) {
	ds, err := s.dataset(ctx)
	if err != nil {
		return nil, nil, err
	}
	controls, warnings := s.controls(ds.Records(), nil)
	return controls, warnings, nil
}

// Records returns the filtered view without building the map.
func (s *Service) Records(ctx context.Context, sel filter.Selection) ([]model.Record, error) {
	ds, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}
	return filter.View(ds.Records(), sel), nil
}

// Render performs one render pass for sel.
func (s *Service) Render(ctx context.Context, sel filter.Selection) (*View, error) {
	start := time.Now()
	surface := surfaceFrom(ctx)

	ds, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}

	sel = sel.Active()
	records := ds.Records()
	controls, warnings := s.controls(records, sel)
	warnings = append(warnings, unmatchedWarnings(controls, sel)...)

	filtered := filter.View(records, sel)

	mv, err := geo.NewMapView(filtered, s.mapCfg)
	if err != nil {
		return nil, fmt.Errorf("build map: %w", err)
	}

	view := &View{
		ID:          uuid.NewString(),
		Title:       s.title,
		Description: s.description,
		Controls:    controls,
		Selection:   sel,
		Map:         mv,
		Table:       NewTable(filtered),
		Total:       ds.Len(),
		Matched:     len(filtered),
		Warnings:    warnings,
		RenderedAt:  time.Now().UTC(),
	}

	elapsed := time.Since(start)
	s.renders.Add(1)
	s.lastRenderNs.Store(elapsed.Nanoseconds())
	if len(filtered) == 0 {
		s.emptyViews.Add(1)
	}
	metrics.RecordRenderPass(surface, float64(elapsed.Nanoseconds())/1e6, len(filtered))

	s.logger.Debug(ctx, "render pass",
		logger.String("view_id", view.ID),
		logger.String("surface", surface),
		logger.Int("active_filters", len(sel)),
		logger.Int("matched", view.Matched),
		logger.Bool("fallback_center", mv.Fallback),
		logger.Duration("elapsed", elapsed),
	)
	for _, w := range warnings {
		s.logger.Warn(ctx, w.Message,
			logger.String("view_id", view.ID),
			logger.String("kind", w.Kind),
			logger.String("column", string(w.Column)),
			logger.String("value", w.Value))
	}

	return view, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"renders":          s.renders.Load(),
		"emptyViews":       s.emptyViews.Load(),
		"lastRenderMillis": float64(s.lastRenderNs.Load()) / 1e6,
		"unknownPolicy":    s.orderer.Policy().String(),
		"datasetLoaded":    false,
	}

	if s.provider != nil && s.provider.Loaded() {
		stats["datasetLoaded"] = true
		if ds, err := s.provider.Get(context.Background()); err == nil {
			stats["records"] = ds.Len()
			stats["skippedRows"] = ds.SkippedRows()
			stats["source"] = ds.Source()
			stats["loadedAt"] = ds.LoadedAt()
		}
	}

	return stats
}

func (s *Service) dataset(ctx context.Context) (*model.Dataset, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: no dataset source configured", ErrDatasetUnavailable)
	}
	ds, err := s.provider.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	return ds, nil
}

func (s *Service) controls(records []model.Record, sel filter.Selection) ([]FilterControl, []Warning) {
	controls := make([]FilterControl, 0, len(model.FilterableColumns))
	var warnings []Warning
	for _, c := range model.FilterableColumns {
		res := s.orderer.Order(c, filter.Distinct(records, c))
		for _, v := range res.Unknown {
			msg := fmt.Sprintf("%s value %q is not in the known order; appended at the end", c, v)
			if s.orderer.Policy() == ordering.PolicySkip {
				msg = fmt.Sprintf("%s value %q is not in the known order; left out of the options", c, v)
			}
			warnings = append(warnings, Warning{
				Kind:    WarningUnknownCategory,
				Column:  c,
				Value:   v,
				Message: msg,
			})
		}
		controls = append(controls, FilterControl{
			Column:   c,
			Label:    "Filter by " + string(c),
			Options:  res.Values,
			Selected: append([]string(nil), sel[c]...),
			Ordinal:  s.orderer.Ordinal(c),
		})
	}
	return controls, warnings
}

func unmatchedWarnings(controls []FilterControl, sel filter.Selection) []Warning {
	var warnings []Warning
	for _, ctl := range controls {
		for _, v := range sel[ctl.Column] {
			if contains(ctl.Options, v) {
				continue
			}
			metrics.RecordUnmatchedFilterValue(string(ctl.Column))
			w := Warning{
				Kind:    WarningUnmatchedValue,
				Column:  ctl.Column,
				Value:   v,
				Message: fmt.Sprintf("%s has no option %q", ctl.Column, v),
			}
			if sug, ok := filter.Suggest(v, ctl.Options); ok {
				w.Suggestion = sug
				w.Message += fmt.Sprintf("; did you mean %q?", sug)
			}
			warnings = append(warnings, w)
		}
	}
	return warnings
}

func contains(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
