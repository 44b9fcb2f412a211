package commission

import (
	"time"

	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ========== TIER DTOs ==========

type CreateTierRequest struct {
	MinAmount  decimal.Decimal  `json:"min_amount"`
	MaxAmount  *decimal.Decimal `json:"max_amount"`
	Percentage decimal.Decimal  `json:"percentage"`
}

func (r *CreateTierRequest) Validate() error {
	return validateTierBounds(r.MinAmount, r.MaxAmount, r.Percentage)
}

type UpdateTierRequest struct {
	ID         string           `json:"-"`
	MinAmount  decimal.Decimal  `json:"min_amount"`
	MaxAmount  *decimal.Decimal `json:"max_amount"`
	Percentage decimal.Decimal  `json:"percentage"`
}

func (r *UpdateTierRequest) Validate() error {
	return validateTierBounds(r.MinAmount, r.MaxAmount, r.Percentage)
}

func validateTierBounds(min decimal.Decimal, max *decimal.Decimal, pct decimal.Decimal) error {
	var errs validator.ValidationErrors

	if min.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "min_amount", Message: "must be non-negative"})
	}
	if max != nil && !max.GreaterThan(min) {
		errs = append(errs, validator.ValidationError{Field: "max_amount", Message: "must be greater than min_amount"})
	}
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		errs = append(errs, validator.ValidationError{Field: "percentage", Message: "must be between 0 and 100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TierResponse struct {
	ID         string           `json:"id"`
	MinAmount  decimal.Decimal  `json:"min_amount"`
	MaxAmount  *decimal.Decimal `json:"max_amount"`
	Percentage decimal.Decimal  `json:"percentage"`
}

func NewTierResponse(t CommissionTier) TierResponse {
	return TierResponse{
		ID:         t.ID,
		MinAmount:  t.MinAmount,
		MaxAmount:  t.MaxAmount,
		Percentage: t.Percentage,
	}
}

// TierTableResponse returns the table together with any partition issues so
// an administrator sees the consequence of an edit immediately.
type TierTableResponse struct {
	Tiers  []TierResponse `json:"tiers"`
	Issues []TierIssue    `json:"issues"`
}

// ========== LEDGER DTOs ==========

type PayCommissionRequest struct {
	SalesAgentID string          `json:"-"`
	ContractID   string          `json:"contract_id"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentDate  string          `json:"payment_date"`
	Notes        *string         `json:"notes,omitempty"`
}

func (r *PayCommissionRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ContractID) {
		errs = append(errs, validator.ValidationError{Field: "contract_id", Message: "must be a valid UUID"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be positive"})
	}
	if _, ok := validator.IsValidDate(r.PaymentDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "payment_date", Message: "must be in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayAllItem struct {
	ContractID string          `json:"contract_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type PayAllCommissionRequest struct {
	SalesAgentID string       `json:"-"`
	Items        []PayAllItem `json:"items"`
	PaymentDate  string       `json:"payment_date"`
	Notes        *string      `json:"notes,omitempty"`
}

func (r *PayAllCommissionRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Items) == 0 {
		errs = append(errs, validator.ValidationError{Field: "items", Message: "at least one contract is required"})
	}
	seen := make(map[string]struct{}, len(r.Items))
	for _, item := range r.Items {
		if !validator.IsValidUUID(item.ContractID) {
			errs = append(errs, validator.ValidationError{Field: "items.contract_id", Message: "must be a valid UUID"})
			break
		}
		if _, dup := seen[item.ContractID]; dup {
			errs = append(errs, validator.ValidationError{Field: "items", Message: "contract " + item.ContractID + " listed more than once"})
			break
		}
		seen[item.ContractID] = struct{}{}
		if !item.Amount.IsPositive() {
			errs = append(errs, validator.ValidationError{Field: "items.amount", Message: "must be positive"})
			break
		}
	}
	if _, ok := validator.IsValidDate(r.PaymentDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "payment_date", Message: "must be in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PaymentResponse struct {
	ID           string          `json:"id"`
	SalesAgentID string          `json:"sales_agent_id"`
	ContractID   string          `json:"contract_id"`
	ContractRef  *string         `json:"contract_ref,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentDate  string          `json:"payment_date"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func NewPaymentResponse(p CommissionPayment) PaymentResponse {
	return PaymentResponse{
		ID:           p.ID,
		SalesAgentID: p.SalesAgentID,
		ContractID:   p.ContractID,
		ContractRef:  p.ContractRef,
		Amount:       p.Amount,
		PaymentDate:  p.PaymentDate.Format(validator.DateLayout),
		Notes:        p.Notes,
		CreatedAt:    p.CreatedAt,
	}
}
