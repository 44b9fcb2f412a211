package expense

import (
	"context"
	"time"
)

type ExpenseRepository interface {
	// ListByDateRange returns expenses with from <= expense_date < to.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]OperationalExpense, error)
	Create(ctx context.Context, e OperationalExpense) (OperationalExpense, error)
	Delete(ctx context.Context, id string) error
}
