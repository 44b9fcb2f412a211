package commission

import (
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculator resolves tier percentages and per-contract commission. It holds
// no state; the zero value is ready to use.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// ResolvePercentage returns the percentage of the first tier containing amount.
// tiers must already be sorted by MinAmount; use commission.SortTiers.
// Malformed tables are not rejected: an empty table or an unmatched amount
// with no open-ended tier yields commission.DefaultPercentage().
func (c *Calculator) ResolvePercentage(amount decimal.Decimal, tiers []commission.CommissionTier) decimal.Decimal {
	if len(tiers) == 0 {
		return commission.DefaultPercentage()
	}

	for _, t := range tiers {
		if t.Contains(amount) {
			return t.Percentage
		}
	}

	// gap in the table
	for _, t := range tiers {
		if t.IsOpenEnded() {
			return t.Percentage
		}
	}

	return commission.DefaultPercentage()
}

// Compute applies either the tier table or the fixed percentage to amount.
func (c *Calculator) Compute(amount decimal.Decimal, tiers []commission.CommissionTier, useTiered bool, fixedPercentage decimal.Decimal) commission.Commission {
	pct := fixedPercentage
	if useTiered {
		pct = c.ResolvePercentage(amount, tiers)
	}

	return commission.Commission{
		Percentage: pct,
		Amount:     amount.Mul(pct).Div(hundred).Round(2),
	}
}
