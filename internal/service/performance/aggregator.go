package performance

import (
	"sort"

	"github.com/kreditkeliling/kupon-backend-go/internal/domain/agent"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/contract"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/performance"
	commissionsvc "github.com/kreditkeliling/kupon-backend-go/internal/service/commission"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// OwnershipResolver returns the sales agent a record is attributed to, or ""
// when the record has no owner under that strategy.
type OwnershipResolver func(contract.Owner) string

// OwnedBySalesAgent attributes by contracts.sales_agent_id.
func OwnedBySalesAgent(o contract.Owner) string {
	return o.SalesAgentID
}

// OwnedByCustomerAssignment attributes by the customer's assigned_sales_id.
func OwnedByCustomerAssignment(o contract.Owner) string {
	if o.AssignedSalesID == nil {
		return ""
	}
	return *o.AssignedSalesID
}

func ResolverFor(o performance.Ownership) OwnershipResolver {
	if o == performance.OwnershipCustomerAssignment {
		return OwnedByCustomerAssignment
	}
	return OwnedBySalesAgent
}

// Inputs is a point-in-time snapshot the aggregator folds over.
type Inputs struct {
	Contracts     []contract.Contract
	UnpaidCoupons []contract.InstallmentCoupon
	Payments      []contract.PaymentLog
}

// Aggregator is pure: equal inputs give equal records.
type Aggregator struct {
	calculator *commissionsvc.Calculator
}

func NewAggregator(calculator *commissionsvc.Calculator) *Aggregator {
	return &Aggregator{calculator: calculator}
}

// AggregateAgent folds the records owned by a into one performance record.
// Commission uses the agent's own tier flag and fixed percentage applied to
// total omset. tiers must be sorted by MinAmount.
func (g *Aggregator) AggregateAgent(a agent.SalesAgent, in Inputs, tiers []commission.CommissionTier, owner OwnershipResolver) performance.AgentPerformanceRecord {
	rec := fold(a, in, owner)
	comm := g.calculator.Compute(rec.Omset, tiers, a.UseTieredCommission, a.CommissionPercentage)
	rec.CommissionPercentage = comm.Percentage
	rec.TotalCommission = comm.Amount
	return rec
}

// AggregateAgentFlat charges performance.YearlyCommissionPercentage on omset
// regardless of the agent's configuration. Only the yearly summary uses it.
func (g *Aggregator) AggregateAgentFlat(a agent.SalesAgent, in Inputs, owner OwnershipResolver) performance.AgentPerformanceRecord {
	rec := fold(a, in, owner)
	comm := g.FlatCommission(rec.Omset)
	rec.CommissionPercentage = comm.Percentage
	rec.TotalCommission = comm.Amount
	return rec
}

func (g *Aggregator) FlatCommission(omset decimal.Decimal) commission.Commission {
	return g.calculator.Compute(omset, nil, false, performance.YearlyCommissionPercentage())
}

// AggregateAll returns one record per agent, zero rows included, ordered by
// profit descending and then by agent name.
func (g *Aggregator) AggregateAll(agents []agent.SalesAgent, in Inputs, tiers []commission.CommissionTier, owner OwnershipResolver) []performance.AgentPerformanceRecord {
	grouped := groupByOwner(in, owner)

	records := make([]performance.AgentPerformanceRecord, 0, len(agents))
	for _, a := range agents {
		records = append(records, g.AggregateAgent(a, grouped[a.ID], tiers, owner))
	}
	SortByProfit(records)
	return records
}

// AggregateAllFlat is AggregateAll with the flat yearly commission.
func (g *Aggregator) AggregateAllFlat(agents []agent.SalesAgent, in Inputs, owner OwnershipResolver) []performance.AgentPerformanceRecord {
	grouped := groupByOwner(in, owner)

	records := make([]performance.AgentPerformanceRecord, 0, len(agents))
	for _, a := range agents {
		records = append(records, g.AggregateAgentFlat(a, grouped[a.ID], owner))
	}
	SortByProfit(records)
	return records
}

func SortByProfit(records []performance.AgentPerformanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Profit.Equal(records[j].Profit) {
			return records[i].Profit.GreaterThan(records[j].Profit)
		}
		return records[i].AgentName < records[j].AgentName
	})
}

// Totals sums records and recomputes the ratios from the sums.
func Totals(records []performance.AgentPerformanceRecord) performance.PerformanceTotals {
	t := performance.PerformanceTotals{
		AgentCount:      len(records),
		Omset:           decimal.Zero,
		Modal:           decimal.Zero,
		TotalCommission: decimal.Zero,
		TotalCollected:  decimal.Zero,
		TotalToCollect:  decimal.Zero,
	}
	for _, r := range records {
		t.ContractCount += r.ContractCount
		t.Omset = t.Omset.Add(r.Omset)
		t.Modal = t.Modal.Add(r.Modal)
		t.TotalCommission = t.TotalCommission.Add(r.TotalCommission)
		t.TotalCollected = t.TotalCollected.Add(r.TotalCollected)
		t.TotalToCollect = t.TotalToCollect.Add(r.TotalToCollect)
	}
	t.Profit = t.Omset.Sub(t.Modal)
	t.ProfitMargin = Ratio(t.Profit, t.Omset)
	t.CollectionRate = Ratio(t.TotalCollected, t.TotalCollected.Add(t.TotalToCollect))
	return t
}

// Ratio returns part/whole as a percentage rounded to two places, or zero
// when whole is zero.
func Ratio(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

func fold(a agent.SalesAgent, in Inputs, owner OwnershipResolver) performance.AgentPerformanceRecord {
	rec := performance.AgentPerformanceRecord{
		SalesAgentID:   a.ID,
		AgentCode:      a.AgentCode,
		AgentName:      a.Name,
		Omset:          decimal.Zero,
		Modal:          decimal.Zero,
		TotalCollected: decimal.Zero,
		TotalToCollect: decimal.Zero,
	}

	for _, c := range in.Contracts {
		if owner(c.Owner) != a.ID {
			continue
		}
		rec.ContractCount++
		rec.Omset = rec.Omset.Add(c.Revenue)
		rec.Modal = rec.Modal.Add(c.CostBasis)
	}
	for _, cp := range in.UnpaidCoupons {
		if owner(cp.Owner) != a.ID {
			continue
		}
		rec.UnpaidCouponCount++
		rec.TotalToCollect = rec.TotalToCollect.Add(cp.Amount)
	}
	for _, p := range in.Payments {
		if owner(p.Owner) != a.ID {
			continue
		}
		rec.PaymentCount++
		rec.TotalCollected = rec.TotalCollected.Add(p.AmountPaid)
	}

	rec.Profit = rec.Omset.Sub(rec.Modal)
	rec.ProfitMargin = Ratio(rec.Profit, rec.Omset)
	rec.CollectionRate = Ratio(rec.TotalCollected, rec.TotalCollected.Add(rec.TotalToCollect))
	return rec
}

func groupByOwner(in Inputs, owner OwnershipResolver) map[string]Inputs {
	grouped := make(map[string]Inputs)

	for _, c := range in.Contracts {
		id := owner(c.Owner)
		g := grouped[id]
		g.Contracts = append(g.Contracts, c)
		grouped[id] = g
	}
	for _, cp := range in.UnpaidCoupons {
		id := owner(cp.Owner)
		g := grouped[id]
		g.UnpaidCoupons = append(g.UnpaidCoupons, cp)
		grouped[id] = g
	}
	for _, p := range in.Payments {
		id := owner(p.Owner)
		g := grouped[id]
		g.Payments = append(g.Payments, p)
		grouped[id] = g
	}

	return grouped
}
