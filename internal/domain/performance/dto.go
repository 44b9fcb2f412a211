package performance

import (
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// AgentPerformanceRecord folds one agent's contracts, payments and unpaid
// coupons. Omset is contract revenue (total_loan_amount) and Modal the cost
// basis (the column named omset).
type AgentPerformanceRecord struct {
	SalesAgentID         string          `json:"sales_agent_id"`
	AgentCode            string          `json:"agent_code"`
	AgentName            string          `json:"agent_name"`
	ContractCount        int             `json:"contract_count"`
	PaymentCount         int             `json:"payment_count"`
	UnpaidCouponCount    int             `json:"unpaid_coupon_count"`
	Omset                decimal.Decimal `json:"omset"`
	Modal                decimal.Decimal `json:"modal"`
	Profit               decimal.Decimal `json:"profit"`
	ProfitMargin         decimal.Decimal `json:"profit_margin"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	TotalCommission      decimal.Decimal `json:"total_commission"`
	TotalCollected       decimal.Decimal `json:"total_collected"`
	TotalToCollect       decimal.Decimal `json:"total_to_collect"`
	CollectionRate       decimal.Decimal `json:"collection_rate"`
}

type PerformanceTotals struct {
	AgentCount      int             `json:"agent_count"`
	ContractCount   int             `json:"contract_count"`
	Omset           decimal.Decimal `json:"omset"`
	Modal           decimal.Decimal `json:"modal"`
	Profit          decimal.Decimal `json:"profit"`
	ProfitMargin    decimal.Decimal `json:"profit_margin"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	TotalCollected  decimal.Decimal `json:"total_collected"`
	TotalToCollect  decimal.Decimal `json:"total_to_collect"`
	CollectionRate  decimal.Decimal `json:"collection_rate"`
}

// PerformanceOverview is the lifetime view. Agents without any activity are
// included with zero values.
type PerformanceOverview struct {
	Ownership Ownership                `json:"ownership"`
	Agents    []AgentPerformanceRecord `json:"agents"`
	Totals    PerformanceTotals        `json:"totals"`
}

// MonthlyRollup scopes contracts by start_date and payments by payment_date to
// one calendar month. TotalToCollect is always zero in this view because no
// coupon source is scoped to the month.
type MonthlyRollup struct {
	Month     string                   `json:"month"`
	Ownership Ownership                `json:"ownership"`
	Agents    []AgentPerformanceRecord `json:"agents"`
	Totals    PerformanceTotals        `json:"totals"`
}

type MonthlyBreakdown struct {
	Month          int             `json:"month"`
	Label          string          `json:"label"`
	ContractCount  int             `json:"contract_count"`
	Modal          decimal.Decimal `json:"modal"`
	Omset          decimal.Decimal `json:"omset"`
	Profit         decimal.Decimal `json:"profit"`
	Commission     decimal.Decimal `json:"commission"`
	Collected      decimal.Decimal `json:"collected"`
	ToCollect      decimal.Decimal `json:"to_collect"`
	Expenses       decimal.Decimal `json:"expenses"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	CollectionRate decimal.Decimal `json:"collection_rate"`
}

type YearlyTotals struct {
	ContractCount        int             `json:"contract_count"`
	Modal                decimal.Decimal `json:"modal"`
	Omset                decimal.Decimal `json:"omset"`
	Profit               decimal.Decimal `json:"profit"`
	ProfitMargin         decimal.Decimal `json:"profit_margin"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	Commission           decimal.Decimal `json:"commission"`
	Collected            decimal.Decimal `json:"collected"`
	ToCollect            decimal.Decimal `json:"to_collect"`
	Expenses             decimal.Decimal `json:"expenses"`
	NetProfit            decimal.Decimal `json:"net_profit"`
	CollectionRate       decimal.Decimal `json:"collection_rate"`
}

// YearlyFinancialSummary charges commission at a flat YearlyCommissionPercentage
// of omset, independent of each agent's configured rate.
type YearlyFinancialSummary struct {
	Year   int                      `json:"year"`
	Totals YearlyTotals             `json:"totals"`
	Months []MonthlyBreakdown       `json:"months"`
	Agents []AgentPerformanceRecord `json:"agents"`
}

// YearlyTarget measures collection against coupons due in the year, a
// different basis from YearlyFinancialSummary's contract-start scoping.
type YearlyTarget struct {
	Year           int             `json:"year"`
	TargetAmount   decimal.Decimal `json:"target_amount"`
	Collected      decimal.Decimal `json:"collected"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	CollectionRate decimal.Decimal `json:"collection_rate"`
	Achievement    decimal.Decimal `json:"achievement"`
}

type SetYearlyTargetRequest struct {
	Year         int             `json:"-"`
	TargetAmount decimal.Decimal `json:"target_amount"`
}

func (r *SetYearlyTargetRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidYear(r.Year) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 2100"})
	}
	if r.TargetAmount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "target_amount", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
