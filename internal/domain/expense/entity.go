package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationalExpense is subtracted from profit in the yearly net-profit figure.
type OperationalExpense struct {
	ID          string
	ExpenseDate time.Time
	Amount      decimal.Decimal
	Category    string
	Description *string
	CreatedAt   time.Time
}
