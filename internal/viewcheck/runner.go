package viewcheck

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/bizmap/internal/domain/ordering"
	"github.com/okian/bizmap/pkg/logger"
)

// ErrViolations is returned by Run when at least one check failed.
var ErrViolations = errors.New("view check failed")

// Run executes the complete check against a running service.
func Run(ctx context.Context, config *Config) (*Stats, []Violation, error) {
	log := logger.Get().Named("view-check")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting bizmap view check",
		logger.String("baseURL", config.BaseURL),
		logger.Int("runs", config.Runs),
		logger.Any("seed", config.Seed),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	client := NewClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return stats, nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Fetch controls and check option order
	filters, err := client.Filters(ctx)
	if err != nil {
		return stats, nil, fmt.Errorf("filters retrieval failed: %w", err)
	}
	violations := VerifyControls(filters.Controls, ordering.New())

	// Step 3: Generate selections
	cases := GenerateCases(filters.Controls, config.Runs, config.Seed)
	stats.Runs = len(cases)

	// Step 4: Check every selection concurrently
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for _, tc := range cases {
		g.Go(func() error {
			found, records, err := checkCase(gctx, client, tc)
			if err != nil {
				return fmt.Errorf("case %s: %w", tc.ID, err)
			}
			if config.Verbose {
				log.Debug(gctx, "case checked",
					logger.String("case", tc.ID),
					logger.Any("selection", tc.Selection),
					logger.Int("records", records),
					logger.Int("violations", len(found)))
			}

			mu.Lock()
			defer mu.Unlock()
			stats.RecordsChecked += records
			if records == 0 {
				stats.EmptyViews++
			}
			if len(found) == 0 {
				stats.Passed++
				return nil
			}
			stats.Failed++
			violations = append(violations, found...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, violations, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats, violations)

	if len(violations) > 0 {
		return stats, violations, fmt.Errorf("%w: %d violations", ErrViolations, len(violations))
	}
	log.Info(ctx, "view check completed successfully")
	return stats, nil, nil
}

// checkCase runs one selection through /api/records and /api/view twice.
func checkCase(ctx context.Context, client *Client, tc Case) ([]Violation, int, error) {
	recs, err := client.Records(ctx, tc.Selection)
	if err != nil {
		return nil, 0, err
	}
	first, err := client.View(ctx, tc.Selection)
	if err != nil {
		return nil, 0, err
	}
	second, err := client.View(ctx, tc.Selection)
	if err != nil {
		return nil, 0, err
	}

	found := VerifyRecords(tc, recs)
	found = append(found, VerifyView(tc, first, recs)...)
	found = append(found, VerifySameView(tc, first, second)...)
	return found, len(recs.Records), nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats, violations []Violation) {
	var passRate float64
	if stats.Runs > 0 {
		passRate = float64(stats.Passed) / float64(stats.Runs) * PercentageMultiplier
	}

	for _, v := range violations {
		log.Warn(ctx, "violation",
			logger.String("case", v.CaseID),
			logger.String("check", v.Check),
			logger.String("message", v.Message))
	}

	log.Info(ctx, "final statistics",
		logger.Int("runs", stats.Runs),
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.Int("emptyViews", stats.EmptyViews),
		logger.Int("recordsChecked", stats.RecordsChecked),
		logger.Int("violations", len(violations)),
		logger.Duration("duration", stats.Duration),
		logger.Float64("passRate", passRate))
}
