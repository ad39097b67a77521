package dataset

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/bizmap/internal/domain/model"
	"github.com/okian/bizmap/pkg/logger"
	"github.com/okian/bizmap/pkg/metrics"
)

const (
	defaultLoadTimeout = 30 * time.Second
	flightKey          = "dataset"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// WithLoadTimeout bounds one fetch and decode of the dataset.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache holds the dataset once it has been loaded successfully. The first
// Get triggers the load; concurrent callers share it. A failed load is not
// remembered, so the next Get tries again.
type Cache struct {
	src     Source
	log     logger.Logger
	timeout time.Duration
	now     func() time.Time

	mu      sync.RWMutex
	dataset *model.Dataset

	group    singleflight.Group
	attempts atomic.Int64
	failures atomic.Int64
}

// NewCache creates a Cache reading from src.
func NewCache(src Source, opts ...Option) *Cache {
	c := &Cache{
		src:     src,
		log:     logger.Nop(),
		timeout: defaultLoadTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the dataset, loading it if needed. The load runs detached
// from ctx so that one impatient caller cannot fail it for the others;
// ctx only limits how long this caller waits.
func (c *Cache) Get(ctx context.Context) (*model.Dataset, error) {
	if ds := c.current(); ds != nil {
		return ds, nil
	}

	ch := c.group.DoChan(flightKey, func() (any, error) {
		if ds := c.current(); ds != nil {
			return ds, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.load(loadCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Dataset), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Loaded reports whether a dataset is held.
func (c *Cache) Loaded() bool { return c.current() != nil }

// Source describes where the cache reads from.
func (c *Cache) Source() string { return c.src.String() }

// Attempts returns the number of loads started, successful or not.
func (c *Cache) Attempts() int64 { return c.attempts.Load() }

// Failures returns the number of loads that failed.
func (c *Cache) Failures() int64 { return c.failures.Load() }

func (c *Cache) current() *model.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dataset
}

func (c *Cache) load(ctx context.Context) (*model.Dataset, error) {
	c.attempts.Add(1)
	start := c.now()

	ds, err := c.fetch(ctx)
	durationMs := float64(time.Since(start).Nanoseconds()) / 1e6

	if err != nil {
		c.failures.Add(1)
		_ = metrics.RecordDatasetLoad(metrics.ResultFailure, durationMs)
		metrics.RecordErrorByType("dataset_load", "error")
		metrics.RecordErrorLatency("dataset", "load", durationMs)
		c.log.Error(ctx, "dataset load failed",
			logger.String("source", c.src.String()),
			logger.Float64("duration_ms", durationMs),
			logger.Error(err))
		return nil, err
	}

	c.mu.Lock()
	c.dataset = ds
	c.mu.Unlock()

	_ = metrics.RecordDatasetLoad(metrics.ResultSuccess, durationMs)
	metrics.UpdateDatasetRecords(ds.Len())
	metrics.RecordDatasetRowsSkipped(ds.SkippedRows())
	c.log.Info(ctx, "dataset loaded",
		logger.String("source", c.src.String()),
		logger.Int("records", ds.Len()),
		logger.Int("skipped_rows", ds.SkippedRows()),
		logger.Float64("duration_ms", durationMs))
	if ds.SkippedRows() > 0 {
		c.log.Warn(ctx, "dataset rows skipped",
			logger.Int("skipped_rows", ds.SkippedRows()))
	}
	return ds, nil
}

func (c *Cache) fetch(ctx context.Context) (*model.Dataset, error) {
	body, err := c.src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	records, skipped, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.src.String(), err)
	}
	return model.NewDataset(c.src.String(), records, skipped, c.now()), nil
}
