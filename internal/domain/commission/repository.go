package commission

import "context"

type TierRepository interface {
	// List returns every tier ordered by min_amount ascending.
	List(ctx context.Context) ([]CommissionTier, error)
	Create(ctx context.Context, tier CommissionTier) (CommissionTier, error)
	Update(ctx context.Context, tier CommissionTier) (CommissionTier, error)
	Delete(ctx context.Context, id string) error
	// ReplaceAll swaps the whole table atomically.
	ReplaceAll(ctx context.Context, tiers []CommissionTier) error
}

// PaymentRepository persists commission payments. Create and CreateBatch
// return ErrCommissionAlreadyPaid when the (sales_agent_id, contract_id)
// uniqueness constraint rejects a row; CreateBatch inserts nothing in that case.
type PaymentRepository interface {
	ListByAgent(ctx context.Context, salesAgentID string) ([]CommissionPayment, error)
	Create(ctx context.Context, payment CommissionPayment) (CommissionPayment, error)
	CreateBatch(ctx context.Context, payments []CommissionPayment) ([]CommissionPayment, error)
	Delete(ctx context.Context, id string, salesAgentID string) error
}
