package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/bizmap/internal/adapters/dataset"
	"github.com/okian/bizmap/internal/adapters/http/api"
	"github.com/okian/bizmap/internal/adapters/http/site"
	"github.com/okian/bizmap/internal/adapters/http/swagger"
	app "github.com/okian/bizmap/internal/app"
	"github.com/okian/bizmap/internal/config"
	"github.com/okian/bizmap/internal/domain/geo"
	"github.com/okian/bizmap/internal/domain/model"
	"github.com/okian/bizmap/internal/domain/ordering"
	"github.com/okian/bizmap/pkg/logger"
	"github.com/okian/bizmap/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Initialize logging
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build service", logger.Error(err))
		return
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(cfg, svc, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService wires the dataset source, cache and orderer into a view service.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	sourceOpts := []dataset.SourceOption{
		dataset.WithS3Region(cfg.S3Region),
		dataset.WithS3Endpoint(cfg.S3Endpoint),
	}
	if cfg.S3AccessKeyID != "" {
		sourceOpts = append(sourceOpts, dataset.WithS3StaticCredentials(cfg.S3AccessKeyID, cfg.S3SecretAccessKey))
	}
	src, err := dataset.NewSource(ctx, cfg.DatasetURL, sourceOpts...)
	if err != nil {
		return nil, fmt.Errorf("dataset source: %w", err)
	}

	policy, err := ordering.ParsePolicy(cfg.UnknownCategoryPolicy)
	if err != nil {
		return nil, err
	}

	cache := dataset.NewCache(src,
		dataset.WithLogger(log.Named("dataset")),
		dataset.WithLoadTimeout(time.Duration(cfg.DatasetTimeoutMS)*time.Millisecond),
	)
	orderer := ordering.New(
		ordering.WithPolicy(policy),
		ordering.WithUnknownHook(func(c model.Column, value string) {
			metrics.RecordUnknownCategory(string(c))
			log.Debug(context.Background(), "unknown ordinal value",
				logger.String("column", string(c)), logger.String("value", value))
		}),
	)

	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithCache(cache),
		app.WithOrderer(orderer),
		app.WithPreload(cfg.Preload),
		app.WithPage(cfg.PageTitle, cfg.PageDescription),
		app.WithMapDefaults(
			geo.Point{Lat: cfg.MapDefaultLat, Lon: cfg.MapDefaultLon},
			cfg.MapZoom, cfg.MapWidth, cfg.MapHeight, cfg.TileURL,
		),
	), nil
}

// newRouter mounts the page, the JSON API and the API docs.
func newRouter(cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	site.NewRootHandler(svc, site.Page{Title: cfg.PageTitle, Description: cfg.PageDescription}, log.Named("site")).Register(r)
	api.NewServer(svc, svc).Register(r)
	swagger.Register(r)
	return r
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges that mirror service stats.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if records, ok := stats["records"].(int); ok {
		metrics.UpdateDatasetRecords(records)
	}
}
