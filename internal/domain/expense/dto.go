package expense

import (
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateExpenseRequest struct {
	ExpenseDate string          `json:"expense_date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description *string         `json:"description,omitempty"`
}

func (r *CreateExpenseRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(r.ExpenseDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "expense_date", Message: "must be in YYYY-MM-DD format"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be positive"})
	}
	if validator.IsEmpty(r.Category) {
		errs = append(errs, validator.ValidationError{Field: "category", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ExpenseResponse struct {
	ID          string          `json:"id"`
	ExpenseDate string          `json:"expense_date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description *string         `json:"description,omitempty"`
}

func NewExpenseResponse(e OperationalExpense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		ExpenseDate: e.ExpenseDate.Format(validator.DateLayout),
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
	}
}

type ListExpenseResponse struct {
	Year     int               `json:"year"`
	Total    decimal.Decimal   `json:"total"`
	Expenses []ExpenseResponse `json:"expenses"`
}
