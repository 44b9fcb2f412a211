package agent

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesAgent originates contracts. CommissionPercentage is the flat rate used
// when UseTieredCommission is false.
type SalesAgent struct {
	ID                   string
	AgentCode            string
	Name                 string
	CommissionPercentage decimal.Decimal
	UseTieredCommission  bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
