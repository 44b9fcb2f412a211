package performance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/kreditkeliling/kupon-backend-go/internal/domain/agent"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/contract"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/expense"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/performance"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/cache"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type Repositories struct {
	Agents      agent.AgentRepository
	Contracts   contract.ContractRepository
	Coupons     contract.CouponRepository
	PaymentLogs contract.PaymentLogRepository
	Tiers       commission.TierRepository
	Expenses    expense.ExpenseRepository
	Targets     performance.TargetRepository
}

type PerformanceServiceImpl struct {
	repos      Repositories
	aggregator *Aggregator
	cache      cache.Cache
	ttl        time.Duration
}

func NewPerformanceService(repos Repositories, aggregator *Aggregator, c cache.Cache, ttl time.Duration) performance.PerformanceService {
	return &PerformanceServiceImpl{
		repos:      repos,
		aggregator: aggregator,
		cache:      c,
		ttl:        ttl,
	}
}

func yearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

// GetAgentPerformance is the lifetime view. Every agent is listed, including
// agents with no contracts.
func (s *PerformanceServiceImpl) GetAgentPerformance(ctx context.Context, ownership performance.Ownership) (performance.PerformanceOverview, error) {
	key, cacheable := s.cacheKey(ctx, cache.PerformanceKey("overview", string(ownership)))

	var cached performance.PerformanceOverview
	if cacheable && s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	var (
		agents []agent.SalesAgent
		in     Inputs
		tiers  []commission.CommissionTier
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		agents, err = s.repos.Agents.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list agents: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		in.Contracts, err = s.repos.Contracts.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list contracts: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		in.UnpaidCoupons, err = s.repos.Coupons.ListUnpaid(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list unpaid coupons: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		in.Payments, err = s.repos.PaymentLogs.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list payment logs: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		tiers, err = s.listTiers(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		return performance.PerformanceOverview{}, err
	}

	records := s.aggregator.AggregateAll(agents, in, tiers, ResolverFor(ownership))
	overview := performance.PerformanceOverview{
		Ownership: ownership,
		Agents:    records,
		Totals:    Totals(records),
	}

	if cacheable {
		s.toCache(ctx, key, overview)
	}
	return overview, nil
}

// RollupMonthly scopes contracts by start_date and payments by payment_date.
// No coupon source is scoped to a month, so TotalToCollect stays zero. Agents
// with neither contracts nor payments in the month are left out.
func (s *PerformanceServiceImpl) RollupMonthly(ctx context.Context, month string, ownership performance.Ownership) (performance.MonthlyRollup, error) {
	from, ok := validator.ParseMonth(month)
	if !ok {
		return performance.MonthlyRollup{}, performance.ErrInvalidPeriod
	}
	to := from.AddDate(0, 1, 0)

	key, cacheable := s.cacheKey(ctx, cache.PerformanceKey("monthly", month, string(ownership)))

	var cached performance.MonthlyRollup
	if cacheable && s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	var (
		agents []agent.SalesAgent
		in     Inputs
		tiers  []commission.CommissionTier
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		agents, err = s.repos.Agents.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list agents: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		in.Contracts, err = s.repos.Contracts.ListByStartDate(gCtx, from, to)
		if err != nil {
			return fmt.Errorf("failed to list contracts: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		in.Payments, err = s.repos.PaymentLogs.ListByPaymentDate(gCtx, from, to)
		if err != nil {
			return fmt.Errorf("failed to list payment logs: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		tiers, err = s.listTiers(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		return performance.MonthlyRollup{}, err
	}

	records := activeOnly(s.aggregator.AggregateAll(agents, in, tiers, ResolverFor(ownership)))
	rollup := performance.MonthlyRollup{
		Month:     from.Format(validator.MonthLayout),
		Ownership: ownership,
		Agents:    records,
		Totals:    Totals(records),
	}

	if cacheable {
		s.toCache(ctx, key, rollup)
	}
	return rollup, nil
}

// RollupYearly attributes by contracts.sales_agent_id and charges the flat
// yearly commission. Unpaid coupons count toward the month their contract
// started in.
func (s *PerformanceServiceImpl) RollupYearly(ctx context.Context, year int) (performance.YearlyFinancialSummary, error) {
	if !validator.IsValidYear(year) {
		return performance.YearlyFinancialSummary{}, performance.ErrInvalidPeriod
	}
	from, to := yearRange(year)

	key, cacheable := s.cacheKey(ctx, cache.PerformanceKey("yearly", strconv.Itoa(year)))

	var cached performance.YearlyFinancialSummary
	if cacheable && s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	var (
		agents   []agent.SalesAgent
		in       Inputs
		expenses []expense.OperationalExpense
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		agents, err = s.repos.Agents.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list agents: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		in.Contracts, err = s.repos.Contracts.ListByStartDate(gCtx, from, to)
		if err != nil {
			return fmt.Errorf("failed to list contracts: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		in.Payments, err = s.repos.PaymentLogs.ListByPaymentDate(gCtx, from, to)
		if err != nil {
			return fmt.Errorf("failed to list payment logs: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		in.UnpaidCoupons, err = s.repos.Coupons.ListUnpaidByContractStart(gCtx, from, to)
		if err != nil {
			return fmt.Errorf("failed to list unpaid coupons: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		expenses, err = s.repos.Expenses.ListByDateRange(gCtx, from, to)
		if err != nil {
			return fmt.Errorf("failed to list operational expenses: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return performance.YearlyFinancialSummary{}, err
	}

	summary := performance.YearlyFinancialSummary{
		Year:   year,
		Months: s.monthlyBreakdown(year, in, expenses),
		Agents: activeOnly(s.aggregator.AggregateAllFlat(agents, in, OwnedBySalesAgent)),
	}
	summary.Totals = s.yearlyTotals(summary.Months)

	if cacheable {
		s.toCache(ctx, key, summary)
	}
	return summary, nil
}

func (s *PerformanceServiceImpl) monthlyBreakdown(year int, in Inputs, expenses []expense.OperationalExpense) []performance.MonthlyBreakdown {
	months := make([]performance.MonthlyBreakdown, 12)
	for i := range months {
		m := time.Month(i + 1)
		months[i] = performance.MonthlyBreakdown{
			Month:      int(m),
			Label:      time.Date(year, m, 1, 0, 0, 0, 0, time.UTC).Format(validator.MonthLayout),
			Modal:      decimal.Zero,
			Omset:      decimal.Zero,
			Collected:  decimal.Zero,
			ToCollect:  decimal.Zero,
			Expenses:   decimal.Zero,
			Commission: decimal.Zero,
		}
	}

	for _, c := range in.Contracts {
		b := &months[c.StartDate.Month()-1]
		b.ContractCount++
		b.Omset = b.Omset.Add(c.Revenue)
		b.Modal = b.Modal.Add(c.CostBasis)
	}
	for _, p := range in.Payments {
		b := &months[p.PaymentDate.Month()-1]
		b.Collected = b.Collected.Add(p.AmountPaid)
	}
	for _, cp := range in.UnpaidCoupons {
		b := &months[cp.ContractStartDate.Month()-1]
		b.ToCollect = b.ToCollect.Add(cp.Amount)
	}
	for _, e := range expenses {
		b := &months[e.ExpenseDate.Month()-1]
		b.Expenses = b.Expenses.Add(e.Amount)
	}

	for i := range months {
		b := &months[i]
		b.Profit = b.Omset.Sub(b.Modal)
		b.Commission = s.aggregator.FlatCommission(b.Omset).Amount
		b.NetProfit = b.Profit.Sub(b.Commission).Sub(b.Expenses)
		b.CollectionRate = Ratio(b.Collected, b.Collected.Add(b.ToCollect))
	}

	return months
}

func (s *PerformanceServiceImpl) yearlyTotals(months []performance.MonthlyBreakdown) performance.YearlyTotals {
	t := performance.YearlyTotals{
		Modal:     decimal.Zero,
		Omset:     decimal.Zero,
		Collected: decimal.Zero,
		ToCollect: decimal.Zero,
		Expenses:  decimal.Zero,
	}
	for _, m := range months {
		t.ContractCount += m.ContractCount
		t.Modal = t.Modal.Add(m.Modal)
		t.Omset = t.Omset.Add(m.Omset)
		t.Collected = t.Collected.Add(m.Collected)
		t.ToCollect = t.ToCollect.Add(m.ToCollect)
		t.Expenses = t.Expenses.Add(m.Expenses)
	}

	comm := s.aggregator.FlatCommission(t.Omset)
	t.CommissionPercentage = comm.Percentage
	t.Commission = comm.Amount
	t.Profit = t.Omset.Sub(t.Modal)
	t.ProfitMargin = Ratio(t.Profit, t.Omset)
	t.NetProfit = t.Profit.Sub(t.Commission).Sub(t.Expenses)
	t.CollectionRate = Ratio(t.Collected, t.Collected.Add(t.ToCollect))
	return t
}

// YearlyTarget measures against coupons falling due in the year and payments
// made in the year, independent of when the contracts started.
func (s *PerformanceServiceImpl) YearlyTarget(ctx context.Context, year int) (performance.YearlyTarget, error) {
	if !validator.IsValidYear(year) {
		return performance.YearlyTarget{}, performance.ErrInvalidPeriod
	}
	from, to := yearRange(year)

	key, cacheable := s.cacheKey(ctx, cache.PerformanceKey("target", strconv.Itoa(year)))

	var cached performance.YearlyTarget
	if cacheable && s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	var (
		coupons  []contract.InstallmentCoupon
		payments []contract.PaymentLog
		target   decimal.Decimal
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		coupons, err = s.repos.Coupons.ListUnpaidByDueDate(gCtx, from, to)
		if err != nil {
			return fmt.Errorf("failed to list unpaid coupons: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		payments, err = s.repos.PaymentLogs.ListByPaymentDate(gCtx, from, to)
		if err != nil {
			return fmt.Errorf("failed to list payment logs: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		amount, err := s.repos.Targets.GetTarget(gCtx, year)
		if err != nil {
			if errors.Is(err, performance.ErrTargetNotFound) {
				target = decimal.Zero
				return nil
			}
			return fmt.Errorf("failed to get yearly target: %w", err)
		}
		target = amount
		return nil
	})

	if err := g.Wait(); err != nil {
		return performance.YearlyTarget{}, err
	}

	result := performance.YearlyTarget{
		Year:         year,
		TargetAmount: target,
		Collected:    decimal.Zero,
		Outstanding:  decimal.Zero,
	}
	for _, cp := range coupons {
		result.Outstanding = result.Outstanding.Add(cp.Amount)
	}
	for _, p := range payments {
		result.Collected = result.Collected.Add(p.AmountPaid)
	}
	result.CollectionRate = Ratio(result.Collected, result.Collected.Add(result.Outstanding))
	result.Achievement = Ratio(result.Collected, result.TargetAmount)

	if cacheable {
		s.toCache(ctx, key, result)
	}
	return result, nil
}

func (s *PerformanceServiceImpl) SetYearlyTarget(ctx context.Context, req performance.SetYearlyTargetRequest) (performance.YearlyTarget, error) {
	if err := req.Validate(); err != nil {
		return performance.YearlyTarget{}, err
	}

	if err := s.repos.Targets.UpsertTarget(ctx, req.Year, req.TargetAmount); err != nil {
		return performance.YearlyTarget{}, fmt.Errorf("failed to save yearly target: %w", err)
	}

	slog.Info("yearly target set", "year", req.Year, "target_amount", req.TargetAmount.String())

	if err := s.cache.Bump(ctx, cache.ScopePerformance); err != nil {
		slog.Warn("failed to invalidate performance cache", "error", err)
	}

	return s.YearlyTarget(ctx, req.Year)
}

func (s *PerformanceServiceImpl) listTiers(ctx context.Context) ([]commission.CommissionTier, error) {
	tiers, err := s.repos.Tiers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission tiers: %w", err)
	}
	return commission.SortTiers(tiers), nil
}

func activeOnly(records []performance.AgentPerformanceRecord) []performance.AgentPerformanceRecord {
	out := make([]performance.AgentPerformanceRecord, 0, len(records))
	for _, r := range records {
		if r.ContractCount == 0 && r.PaymentCount == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// cacheKey versions a rollup by the performance generation, which every
// mutation feeding a rollup bumps.
func (s *PerformanceServiceImpl) cacheKey(ctx context.Context, base string) (string, bool) {
	key, err := cache.VersionedKey(ctx, s.cache, base, cache.ScopePerformance)
	if err != nil {
		slog.Warn("cache generation read failed", "key", base, "error", err)
		return "", false
	}
	return key, true
}

func (s *PerformanceServiceImpl) fromCache(ctx context.Context, key string, dest interface{}) bool {
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("cache read failed", "key", key, "error", err)
	}
	return false
}

func (s *PerformanceServiceImpl) toCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}
