package commission

import "context"

type TierService interface {
	List(ctx context.Context) (TierTableResponse, error)
	Create(ctx context.Context, req CreateTierRequest) (TierTableResponse, error)
	Update(ctx context.Context, req UpdateTierRequest) (TierTableResponse, error)
	Delete(ctx context.Context, id string) (TierTableResponse, error)
	Check(ctx context.Context) ([]TierIssue, error)
}

// LedgerService tracks which contracts have had their commission disbursed.
// Paid/unpaid is always derived from the payment records at read time.
type LedgerService interface {
	ListUnpaid(ctx context.Context, salesAgentID string) ([]UnpaidCommissionLine, error)
	ListPaid(ctx context.Context, salesAgentID string) ([]PaymentResponse, error)
	Summary(ctx context.Context, salesAgentID string) (AgentCommissionSummary, error)
	PayOne(ctx context.Context, req PayCommissionRequest) (PaymentResponse, error)
	PayAll(ctx context.Context, req PayAllCommissionRequest) ([]PaymentResponse, error)
	DeletePayment(ctx context.Context, id string, salesAgentID string) error
}
