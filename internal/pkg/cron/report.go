package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/kreditkeliling/kupon-backend-go/internal/domain/performance"
	"golang.org/x/sync/errgroup"
)

// ReportJobs keeps the current month and year reports warm in the cache so
// dashboard reads rarely hit the database.
type ReportJobs struct {
	performanceService performance.PerformanceService
	interval           time.Duration
	now                func() time.Time
}

func NewReportJobs(performanceService performance.PerformanceService, interval time.Duration) *ReportJobs {
	return &ReportJobs{
		performanceService: performanceService,
		interval:           interval,
		now:                time.Now,
	}
}

func (j *ReportJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("warm_report_cache", j.interval, j.WarmReportCache)
}

// WarmReportCache computes the current month's rollup under both ownership
// modes, the current year's summary and the yearly target.
func (j *ReportJobs) WarmReportCache(ctx context.Context) error {
	now := j.now()
	month := now.Format("2006-01")
	year := now.Year()

	g, ctx := errgroup.WithContext(ctx)

	for _, own := range []performance.Ownership{performance.OwnershipSalesAgent, performance.OwnershipCustomerAssignment} {
		own := own
		g.Go(func() error {
			if _, err := j.performanceService.RollupMonthly(ctx, month, own); err != nil {
				return fmt.Errorf("failed to warm monthly rollup %s/%s: %w", month, own, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		if _, err := j.performanceService.RollupYearly(ctx, year); err != nil {
			return fmt.Errorf("failed to warm yearly summary %d: %w", year, err)
		}
		return nil
	})

	g.Go(func() error {
		if _, err := j.performanceService.YearlyTarget(ctx, year); err != nil {
			return fmt.Errorf("failed to warm yearly target %d: %w", year, err)
		}
		return nil
	})

	return g.Wait()
}
