package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/database"
)

type commissionTierRepositoryImpl struct {
	db *database.DB
}

func NewCommissionTierRepository(db *database.DB) commission.TierRepository {
	return &commissionTierRepositoryImpl{db: db}
}

const tierColumns = `id, min_amount, max_amount, percentage, created_at, updated_at`

func scanTier(row pgx.Row) (commission.CommissionTier, error) {
	var t commission.CommissionTier
	err := row.Scan(&t.ID, &t.MinAmount, &t.MaxAmount, &t.Percentage, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// List implements commission.TierRepository.
func (r *commissionTierRepositoryImpl) List(ctx context.Context) ([]commission.CommissionTier, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+tierColumns+` FROM commission_tiers ORDER BY min_amount ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission tiers: %w", err)
	}
	defer rows.Close()

	tiers := make([]commission.CommissionTier, 0)
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commission tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate commission tiers: %w", err)
	}
	return tiers, nil
}

// Create implements commission.TierRepository.
func (r *commissionTierRepositoryImpl) Create(ctx context.Context, tier commission.CommissionTier) (commission.CommissionTier, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO commission_tiers (min_amount, max_amount, percentage)
		VALUES ($1, $2, $3)
		RETURNING ` + tierColumns

	created, err := scanTier(q.QueryRow(ctx, query, tier.MinAmount, tier.MaxAmount, tier.Percentage))
	if err != nil {
		return commission.CommissionTier{}, fmt.Errorf("failed to create commission tier: %w", err)
	}
	return created, nil
}

// Update implements commission.TierRepository.
func (r *commissionTierRepositoryImpl) Update(ctx context.Context, tier commission.CommissionTier) (commission.CommissionTier, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE commission_tiers
		SET min_amount = $1, max_amount = $2, percentage = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + tierColumns

	updated, err := scanTier(q.QueryRow(ctx, query, tier.MinAmount, tier.MaxAmount, tier.Percentage, tier.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return commission.CommissionTier{}, commission.ErrTierNotFound
		}
		return commission.CommissionTier{}, fmt.Errorf("failed to update commission tier %s: %w", tier.ID, err)
	}
	return updated, nil
}

// Delete implements commission.TierRepository.
func (r *commissionTierRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM commission_tiers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete commission tier %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return commission.ErrTierNotFound
	}
	return nil
}

// ReplaceAll implements commission.TierRepository.
func (r *commissionTierRepositoryImpl) ReplaceAll(ctx context.Context, tiers []commission.CommissionTier) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM commission_tiers`); err != nil {
			return fmt.Errorf("failed to clear commission tiers: %w", err)
		}

		batch := &pgx.Batch{}
		for _, t := range tiers {
			batch.Queue(`INSERT INTO commission_tiers (min_amount, max_amount, percentage) VALUES ($1, $2, $3)`,
				t.MinAmount, t.MaxAmount, t.Percentage)
		}

		results := tx.SendBatch(ctx, batch)
		for range tiers {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to insert commission tier: %w", err)
			}
		}
		return results.Close()
	})
}
