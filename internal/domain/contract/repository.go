package contract

import (
	"context"
	"time"
)

// Date ranges are half-open: from <= d < to.

type ContractRepository interface {
	List(ctx context.Context) ([]Contract, error)
	ListByStartDate(ctx context.Context, from, to time.Time) ([]Contract, error)
	ListBySalesAgent(ctx context.Context, salesAgentID string) ([]Contract, error)
	GetByID(ctx context.Context, id string) (Contract, error)
}

type CouponRepository interface {
	ListUnpaid(ctx context.Context) ([]InstallmentCoupon, error)
	// ListUnpaidByContractStart returns unpaid coupons whose contract started in the range.
	ListUnpaidByContractStart(ctx context.Context, from, to time.Time) ([]InstallmentCoupon, error)
	// ListUnpaidByDueDate returns unpaid coupons falling due in the range.
	ListUnpaidByDueDate(ctx context.Context, from, to time.Time) ([]InstallmentCoupon, error)
}

type PaymentLogRepository interface {
	List(ctx context.Context) ([]PaymentLog, error)
	ListByPaymentDate(ctx context.Context, from, to time.Time) ([]PaymentLog, error)
}
