package performance

import (
	"context"

	"github.com/shopspring/decimal"
)

type TargetRepository interface {
	GetTarget(ctx context.Context, year int) (decimal.Decimal, error)
	UpsertTarget(ctx context.Context, year int, amount decimal.Decimal) error
}
