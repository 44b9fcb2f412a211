package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/performance"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type yearlyTargetRepositoryImpl struct {
	db *database.DB
}

func NewYearlyTargetRepository(db *database.DB) performance.TargetRepository {
	return &yearlyTargetRepositoryImpl{db: db}
}

// GetTarget implements performance.TargetRepository.
func (r *yearlyTargetRepositoryImpl) GetTarget(ctx context.Context, year int) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	var amount decimal.Decimal
	err := q.QueryRow(ctx, `SELECT target_amount FROM yearly_targets WHERE year = $1`, year).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, performance.ErrTargetNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get yearly target for %d: %w", year, err)
	}
	return amount, nil
}

// UpsertTarget implements performance.TargetRepository.
func (r *yearlyTargetRepositoryImpl) UpsertTarget(ctx context.Context, year int, amount decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO yearly_targets (year, target_amount)
		VALUES ($1, $2)
		ON CONFLICT (year) DO UPDATE SET target_amount = EXCLUDED.target_amount, updated_at = NOW()
	`

	if _, err := q.Exec(ctx, query, year, amount); err != nil {
		return fmt.Errorf("failed to upsert yearly target for %d: %w", year, err)
	}
	return nil
}
