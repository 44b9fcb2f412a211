package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPercentage applies when no tier table is configured or no tier matches
// and there is no open-ended tier.
func DefaultPercentage() decimal.Decimal {
	return decimal.NewFromInt(5)
}

// CommissionTier maps a contract-size band to a percentage. Bounds are
// inclusive on both ends; a nil MaxAmount marks the open-ended top tier.
type CommissionTier struct {
	ID         string
	MinAmount  decimal.Decimal
	MaxAmount  *decimal.Decimal
	Percentage decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Contains reports whether amount falls within the tier's inclusive bounds.
func (t CommissionTier) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(t.MinAmount) {
		return false
	}
	return t.MaxAmount == nil || amount.LessThanOrEqual(*t.MaxAmount)
}

func (t CommissionTier) IsOpenEnded() bool {
	return t.MaxAmount == nil
}

// Commission is the result of applying a rate to a revenue amount.
type Commission struct {
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

// CommissionPayment records a disbursed commission. At most one exists per
// (SalesAgentID, ContractID).
type CommissionPayment struct {
	ID           string
	SalesAgentID string
	ContractID   string
	Amount       decimal.Decimal
	PaymentDate  time.Time
	Notes        *string
	CreatedAt    time.Time

	// Joined fields
	ContractRef *string
}

// UnpaidCommissionLine is a contract of the agent with no commission payment yet.
type UnpaidCommissionLine struct {
	ContractID  string          `json:"contract_id"`
	ContractRef string          `json:"contract_ref"`
	StartDate   string          `json:"start_date"`
	Revenue     decimal.Decimal `json:"revenue"`
	Percentage  decimal.Decimal `json:"percentage"`
	Commission  decimal.Decimal `json:"commission"`
}

// AgentCommissionSummary totals the ledger for one agent.
type AgentCommissionSummary struct {
	SalesAgentID        string          `json:"sales_agent_id"`
	AgentName           string          `json:"agent_name"`
	UseTieredCommission bool            `json:"use_tiered_commission"`
	ContractCount       int             `json:"contract_count"`
	PaidCount           int             `json:"paid_count"`
	UnpaidCount         int             `json:"unpaid_count"`
	TotalPaid           decimal.Decimal `json:"total_paid"`
	TotalUnpaid         decimal.Decimal `json:"total_unpaid"`
	TotalEarned         decimal.Decimal `json:"total_earned"`
	LastPaymentDate     *string         `json:"last_payment_date,omitempty"`
}
