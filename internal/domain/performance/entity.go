package performance

import (
	"github.com/shopspring/decimal"
)

// YearlyCommissionPercentage is the flat rate the yearly financial summary
// charges on omset. Monthly and ledger views use each agent's own rate.
func YearlyCommissionPercentage() decimal.Decimal {
	return decimal.NewFromInt(5)
}

// Ownership selects how contracts, coupons and payments are attributed to a
// sales agent.
type Ownership string

const (
	// OwnershipSalesAgent uses contracts.sales_agent_id.
	OwnershipSalesAgent Ownership = "sales_agent"
	// OwnershipCustomerAssignment uses the contract customer's assigned_sales_id.
	OwnershipCustomerAssignment Ownership = "customer_assignment"
)

// ParseOwnership defaults to OwnershipSalesAgent on an empty value.
func ParseOwnership(s string) (Ownership, error) {
	switch Ownership(s) {
	case "":
		return OwnershipSalesAgent, nil
	case OwnershipSalesAgent, OwnershipCustomerAssignment:
		return Ownership(s), nil
	default:
		return "", ErrInvalidOwnership
	}
}
