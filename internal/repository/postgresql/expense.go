package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/kreditkeliling/kupon-backend-go/internal/domain/expense"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/database"
)

type expenseRepositoryImpl struct {
	db *database.DB
}

func NewExpenseRepository(db *database.DB) expense.ExpenseRepository {
	return &expenseRepositoryImpl{db: db}
}

// ListByDateRange implements expense.ExpenseRepository.
func (r *expenseRepositoryImpl) ListByDateRange(ctx context.Context, from, to time.Time) ([]expense.OperationalExpense, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, expense_date, amount, category, description, created_at
		FROM operational_expenses
		WHERE expense_date >= $1 AND expense_date < $2
		ORDER BY expense_date ASC, created_at ASC
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list operational expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]expense.OperationalExpense, 0)
	for rows.Next() {
		var e expense.OperationalExpense
		if err := rows.Scan(&e.ID, &e.ExpenseDate, &e.Amount, &e.Category, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operational expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operational expenses: %w", err)
	}
	return expenses, nil
}

// Create implements expense.ExpenseRepository.
func (r *expenseRepositoryImpl) Create(ctx context.Context, e expense.OperationalExpense) (expense.OperationalExpense, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO operational_expenses (expense_date, amount, category, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	if err := q.QueryRow(ctx, query, e.ExpenseDate, e.Amount, e.Category, e.Description).Scan(&e.ID, &e.CreatedAt); err != nil {
		return expense.OperationalExpense{}, fmt.Errorf("failed to create operational expense: %w", err)
	}
	return e, nil
}

// Delete implements expense.ExpenseRepository.
func (r *expenseRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM operational_expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete operational expense %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return expense.ErrExpenseNotFound
	}
	return nil
}
