package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/database"
)

const commissionPaymentUniqueConstraint = "uq_commission_payments_agent_contract"

type commissionPaymentRepositoryImpl struct {
	db *database.DB
}

func NewCommissionPaymentRepository(db *database.DB) commission.PaymentRepository {
	return &commissionPaymentRepositoryImpl{db: db}
}

// ListByAgent implements commission.PaymentRepository.
func (r *commissionPaymentRepositoryImpl) ListByAgent(ctx context.Context, salesAgentID string) ([]commission.CommissionPayment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT cp.id, cp.sales_agent_id, cp.contract_id, cp.amount, cp.payment_date, cp.notes, cp.created_at,
			c.contract_ref
		FROM commission_payments cp
		LEFT JOIN contracts c ON c.id = cp.contract_id
		WHERE cp.sales_agent_id = $1
		ORDER BY cp.payment_date DESC, cp.created_at DESC
	`

	rows, err := q.Query(ctx, query, salesAgentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission payments: %w", err)
	}
	defer rows.Close()

	payments := make([]commission.CommissionPayment, 0)
	for rows.Next() {
		var p commission.CommissionPayment
		if err := rows.Scan(&p.ID, &p.SalesAgentID, &p.ContractID, &p.Amount, &p.PaymentDate, &p.Notes, &p.CreatedAt, &p.ContractRef); err != nil {
			return nil, fmt.Errorf("failed to scan commission payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate commission payments: %w", err)
	}
	return payments, nil
}

// Create implements commission.PaymentRepository.
func (r *commissionPaymentRepositoryImpl) Create(ctx context.Context, payment commission.CommissionPayment) (commission.CommissionPayment, error) {
	q := GetQuerier(ctx, r.db)

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}

	query := `
		INSERT INTO commission_payments (id, sales_agent_id, contract_id, amount, payment_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		payment.ID, payment.SalesAgentID, payment.ContractID, payment.Amount, payment.PaymentDate, payment.Notes,
	).Scan(&payment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, commissionPaymentUniqueConstraint) {
			return commission.CommissionPayment{}, commission.ErrCommissionAlreadyPaid
		}
		return commission.CommissionPayment{}, fmt.Errorf("failed to create commission payment: %w", err)
	}
	return payment, nil
}

// CreateBatch implements commission.PaymentRepository. All rows go in one
// multi-row INSERT inside a transaction, so a duplicate anywhere in the batch
// leaves the ledger untouched.
func (r *commissionPaymentRepositoryImpl) CreateBatch(ctx context.Context, payments []commission.CommissionPayment) ([]commission.CommissionPayment, error) {
	if len(payments) == 0 {
		return nil, nil
	}

	valueStrings := make([]string, 0, len(payments))
	valueArgs := make([]interface{}, 0, len(payments)*6)

	for i := range payments {
		p := &payments[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}

		base := i * 6
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		valueArgs = append(valueArgs, p.ID, p.SalesAgentID, p.ContractID, p.Amount, p.PaymentDate, p.Notes)
	}

	query := fmt.Sprintf(`
		INSERT INTO commission_payments (id, sales_agent_id, contract_id, amount, payment_date, notes)
		VALUES %s
		RETURNING id, created_at
	`, strings.Join(valueStrings, ", "))

	created := make([]commission.CommissionPayment, 0, len(payments))

	err := WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, valueArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()

		byID := make(map[string]commission.CommissionPayment, len(payments))
		for _, p := range payments {
			byID[p.ID] = p
		}

		for rows.Next() {
			var (
				id        string
				createdAt time.Time
			)
			if err := rows.Scan(&id, &createdAt); err != nil {
				return err
			}
			p := byID[id]
			p.CreatedAt = createdAt
			created = append(created, p)
		}
		return rows.Err()
	})
	if err != nil {
		if isUniqueViolation(err, commissionPaymentUniqueConstraint) {
			return nil, commission.ErrCommissionAlreadyPaid
		}
		return nil, fmt.Errorf("failed to create commission payments: %w", err)
	}

	return created, nil
}

// Delete implements commission.PaymentRepository.
func (r *commissionPaymentRepositoryImpl) Delete(ctx context.Context, id string, salesAgentID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM commission_payments WHERE id = $1 AND sales_agent_id = $2`, id, salesAgentID)
	if err != nil {
		return fmt.Errorf("failed to delete commission payment %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return commission.ErrCommissionPaymentNotFound
	}
	return nil
}
