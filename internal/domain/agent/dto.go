package agent

import (
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type AgentResponse struct {
	ID                   string          `json:"id"`
	AgentCode            string          `json:"agent_code"`
	Name                 string          `json:"name"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	UseTieredCommission  bool            `json:"use_tiered_commission"`
}

func NewAgentResponse(a SalesAgent) AgentResponse {
	return AgentResponse{
		ID:                   a.ID,
		AgentCode:            a.AgentCode,
		Name:                 a.Name,
		CommissionPercentage: a.CommissionPercentage,
		UseTieredCommission:  a.UseTieredCommission,
	}
}

type UpdateCommissionSettingsRequest struct {
	ID                   string           `json:"-"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage,omitempty"`
	UseTieredCommission  *bool            `json:"use_tiered_commission,omitempty"`
}

var hundred = decimal.NewFromInt(100)

func (r *UpdateCommissionSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.CommissionPercentage == nil && r.UseTieredCommission == nil {
		errs = append(errs, validator.ValidationError{Field: "body", Message: "at least one field is required"})
	}
	if r.CommissionPercentage != nil {
		if r.CommissionPercentage.IsNegative() || r.CommissionPercentage.GreaterThan(hundred) {
			errs = append(errs, validator.ValidationError{Field: "commission_percentage", Message: "must be between 0 and 100"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
