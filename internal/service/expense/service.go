package expense

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kreditkeliling/kupon-backend-go/internal/domain/expense"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/performance"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/cache"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/sse"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type ExpenseServiceImpl struct {
	expense.ExpenseRepository
	cache cache.Cache
	hub   *sse.Hub
}

func NewExpenseService(repo expense.ExpenseRepository, c cache.Cache, hub *sse.Hub) expense.ExpenseService {
	return &ExpenseServiceImpl{
		ExpenseRepository: repo,
		cache:             c,
		hub:               hub,
	}
}

func (s *ExpenseServiceImpl) ListByYear(ctx context.Context, year int) (expense.ListExpenseResponse, error) {
	if !validator.IsValidYear(year) {
		return expense.ListExpenseResponse{}, performance.ErrInvalidPeriod
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	expenses, err := s.ExpenseRepository.ListByDateRange(ctx, from, from.AddDate(1, 0, 0))
	if err != nil {
		return expense.ListExpenseResponse{}, fmt.Errorf("failed to list operational expenses: %w", err)
	}

	resp := expense.ListExpenseResponse{
		Year:     year,
		Total:    decimal.Zero,
		Expenses: make([]expense.ExpenseResponse, 0, len(expenses)),
	}
	for _, e := range expenses {
		resp.Total = resp.Total.Add(e.Amount)
		resp.Expenses = append(resp.Expenses, expense.NewExpenseResponse(e))
	}
	return resp, nil
}

func (s *ExpenseServiceImpl) Create(ctx context.Context, req expense.CreateExpenseRequest) (expense.ExpenseResponse, error) {
	if err := req.Validate(); err != nil {
		return expense.ExpenseResponse{}, err
	}

	expenseDate, _ := validator.IsValidDate(req.ExpenseDate)

	created, err := s.ExpenseRepository.Create(ctx, expense.OperationalExpense{
		ExpenseDate: expenseDate,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		return expense.ExpenseResponse{}, fmt.Errorf("failed to create operational expense: %w", err)
	}

	slog.Info("operational expense recorded", "expense_id", created.ID, "amount", created.Amount.String())
	s.expensesChanged(ctx)

	return expense.NewExpenseResponse(created), nil
}

func (s *ExpenseServiceImpl) Delete(ctx context.Context, id string) error {
	if !validator.IsValidUUID(id) {
		return expense.ErrExpenseNotFound
	}

	if err := s.ExpenseRepository.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("operational expense deleted", "expense_id", id)
	s.expensesChanged(ctx)
	return nil
}

// expensesChanged only touches rollups; no commission view depends on expenses.
func (s *ExpenseServiceImpl) expensesChanged(ctx context.Context) {
	if err := s.cache.Bump(ctx, cache.ScopePerformance); err != nil {
		slog.Warn("failed to invalidate performance cache", "error", err)
	}
	s.hub.Publish(sse.TopicReports, sse.Event{Event: sse.EventExpensesChanged})
}
