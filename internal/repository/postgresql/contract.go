package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/contract"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/database"
)

// Every read joins customers so both ownership strategies can be resolved
// from the returned rows.

type contractRepositoryImpl struct {
	db *database.DB
}

func NewContractRepository(db *database.DB) contract.ContractRepository {
	return &contractRepositoryImpl{db: db}
}

const contractSelect = `
	SELECT c.id, c.contract_ref, c.sales_agent_id, c.customer_id, c.total_loan_amount, c.omset,
		c.tenor_days, c.current_installment_index, c.start_date, c.status, c.created_at,
		cu.assigned_sales_id
	FROM contracts c
	JOIN customers cu ON cu.id = c.customer_id
`

func scanContract(row pgx.Row) (contract.Contract, error) {
	var c contract.Contract
	err := row.Scan(
		&c.ID, &c.ContractRef, &c.SalesAgentID, &c.CustomerID, &c.Revenue, &c.CostBasis,
		&c.TenorDays, &c.CurrentInstallmentIndex, &c.StartDate, &c.Status, &c.CreatedAt,
		&c.Owner.AssignedSalesID,
	)
	c.Owner.SalesAgentID = c.SalesAgentID
	return c, err
}

func (r *contractRepositoryImpl) query(ctx context.Context, sql string, args ...interface{}) ([]contract.Contract, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	contracts := make([]contract.Contract, 0)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contracts: %w", err)
	}
	return contracts, nil
}

func (r *contractRepositoryImpl) List(ctx context.Context) ([]contract.Contract, error) {
	return r.query(ctx, contractSelect+` ORDER BY c.start_date ASC, c.contract_ref ASC`)
}

func (r *contractRepositoryImpl) ListByStartDate(ctx context.Context, from, to time.Time) ([]contract.Contract, error) {
	return r.query(ctx, contractSelect+`
		WHERE c.start_date >= $1 AND c.start_date < $2
		ORDER BY c.start_date ASC, c.contract_ref ASC
	`, from, to)
}

func (r *contractRepositoryImpl) ListBySalesAgent(ctx context.Context, salesAgentID string) ([]contract.Contract, error) {
	return r.query(ctx, contractSelect+`
		WHERE c.sales_agent_id = $1
		ORDER BY c.start_date ASC, c.contract_ref ASC
	`, salesAgentID)
}

func (r *contractRepositoryImpl) GetByID(ctx context.Context, id string) (contract.Contract, error) {
	q := GetQuerier(ctx, r.db)

	c, err := scanContract(q.QueryRow(ctx, contractSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contract.Contract{}, contract.ErrContractNotFound
		}
		return contract.Contract{}, fmt.Errorf("failed to get contract with id %s: %w", id, err)
	}
	return c, nil
}

type couponRepositoryImpl struct {
	db *database.DB
}

func NewCouponRepository(db *database.DB) contract.CouponRepository {
	return &couponRepositoryImpl{db: db}
}

const unpaidCouponSelect = `
	SELECT ic.id, ic.contract_id, ic.installment_index, ic.due_date, ic.amount, ic.status,
		c.sales_agent_id, cu.assigned_sales_id, c.start_date
	FROM installment_coupons ic
	JOIN contracts c ON c.id = ic.contract_id
	JOIN customers cu ON cu.id = c.customer_id
	WHERE ic.status = 'unpaid'
`

func (r *couponRepositoryImpl) query(ctx context.Context, sql string, args ...interface{}) ([]contract.InstallmentCoupon, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query installment coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]contract.InstallmentCoupon, 0)
	for rows.Next() {
		var cp contract.InstallmentCoupon
		if err := rows.Scan(
			&cp.ID, &cp.ContractID, &cp.InstallmentIndex, &cp.DueDate, &cp.Amount, &cp.Status,
			&cp.Owner.SalesAgentID, &cp.Owner.AssignedSalesID, &cp.ContractStartDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan installment coupon: %w", err)
		}
		coupons = append(coupons, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate installment coupons: %w", err)
	}
	return coupons, nil
}

func (r *couponRepositoryImpl) ListUnpaid(ctx context.Context) ([]contract.InstallmentCoupon, error) {
	return r.query(ctx, unpaidCouponSelect+` ORDER BY ic.due_date ASC`)
}

func (r *couponRepositoryImpl) ListUnpaidByContractStart(ctx context.Context, from, to time.Time) ([]contract.InstallmentCoupon, error) {
	return r.query(ctx, unpaidCouponSelect+`
		AND c.start_date >= $1 AND c.start_date < $2
		ORDER BY ic.due_date ASC
	`, from, to)
}

func (r *couponRepositoryImpl) ListUnpaidByDueDate(ctx context.Context, from, to time.Time) ([]contract.InstallmentCoupon, error) {
	return r.query(ctx, unpaidCouponSelect+`
		AND ic.due_date >= $1 AND ic.due_date < $2
		ORDER BY ic.due_date ASC
	`, from, to)
}

type paymentLogRepositoryImpl struct {
	db *database.DB
}

func NewPaymentLogRepository(db *database.DB) contract.PaymentLogRepository {
	return &paymentLogRepositoryImpl{db: db}
}

const paymentLogSelect = `
	SELECT pl.id, pl.contract_id, pl.payment_date, pl.installment_index, pl.amount_paid, pl.collector_id,
		c.sales_agent_id, cu.assigned_sales_id
	FROM payment_logs pl
	JOIN contracts c ON c.id = pl.contract_id
	JOIN customers cu ON cu.id = c.customer_id
`

func (r *paymentLogRepositoryImpl) query(ctx context.Context, sql string, args ...interface{}) ([]contract.PaymentLog, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment logs: %w", err)
	}
	defer rows.Close()

	logs := make([]contract.PaymentLog, 0)
	for rows.Next() {
		var pl contract.PaymentLog
		if err := rows.Scan(
			&pl.ID, &pl.ContractID, &pl.PaymentDate, &pl.InstallmentIndex, &pl.AmountPaid, &pl.CollectorID,
			&pl.Owner.SalesAgentID, &pl.Owner.AssignedSalesID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment log: %w", err)
		}
		logs = append(logs, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment logs: %w", err)
	}
	return logs, nil
}

func (r *paymentLogRepositoryImpl) List(ctx context.Context) ([]contract.PaymentLog, error) {
	return r.query(ctx, paymentLogSelect+` ORDER BY pl.payment_date ASC`)
}

func (r *paymentLogRepositoryImpl) ListByPaymentDate(ctx context.Context, from, to time.Time) ([]contract.PaymentLog, error) {
	return r.query(ctx, paymentLogSelect+`
		WHERE pl.payment_date >= $1 AND pl.payment_date < $2
		ORDER BY pl.payment_date ASC
	`, from, to)
}
