package performance

import "context"

type PerformanceService interface {
	GetAgentPerformance(ctx context.Context, ownership Ownership) (PerformanceOverview, error)
	// RollupMonthly takes month in YYYY-MM format.
	RollupMonthly(ctx context.Context, month string, ownership Ownership) (MonthlyRollup, error)
	RollupYearly(ctx context.Context, year int) (YearlyFinancialSummary, error)
	YearlyTarget(ctx context.Context, year int) (YearlyTarget, error)
	SetYearlyTarget(ctx context.Context, req SetYearlyTargetRequest) (YearlyTarget, error)
}
