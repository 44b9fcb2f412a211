package expense

import "context"

type ExpenseService interface {
	ListByYear(ctx context.Context, year int) (ListExpenseResponse, error)
	Create(ctx context.Context, req CreateExpenseRequest) (ExpenseResponse, error)
	Delete(ctx context.Context, id string) error
}
