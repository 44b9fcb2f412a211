package performance

import (
	"context"
	"time"

	"github.com/kreditkeliling/kupon-backend-go/internal/domain/agent"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/contract"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/expense"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/performance"
	"github.com/shopspring/decimal"
)

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// fakeStore backs every repository port the performance service reads.
type fakeStore struct {
	agents    []agent.SalesAgent
	contracts []contract.Contract
	coupons   []contract.InstallmentCoupon
	payments  []contract.PaymentLog
	tiers     []commission.CommissionTier
	expenses  []expense.OperationalExpense
	targets   map[int]decimal.Decimal

	paymentErr error
	calls      int

	// afterContracts runs once, after the next ListByStartDate has read its rows.
	afterContracts func()
}

func (f *fakeStore) repositories() Repositories {
	return Repositories{
		Agents:      fakeAgents{f},
		Contracts:   fakeContracts{f},
		Coupons:     fakeCoupons{f},
		PaymentLogs: fakePaymentLogs{f},
		Tiers:       fakeTiers{f},
		Expenses:    fakeExpenses{f},
		Targets:     fakeTargets{f},
	}
}

type fakeAgents struct{ f *fakeStore }

func (r fakeAgents) List(ctx context.Context) ([]agent.SalesAgent, error) {
	return r.f.agents, nil
}

func (r fakeAgents) GetByID(ctx context.Context, id string) (agent.SalesAgent, error) {
	for _, a := range r.f.agents {
		if a.ID == id {
			return a, nil
		}
	}
	return agent.SalesAgent{}, agent.ErrAgentNotFound
}

func (r fakeAgents) UpdateCommissionSettings(ctx context.Context, req agent.UpdateCommissionSettingsRequest) (agent.SalesAgent, error) {
	return agent.SalesAgent{}, nil
}

type fakeContracts struct{ f *fakeStore }

func (r fakeContracts) List(ctx context.Context) ([]contract.Contract, error) {
	r.f.calls++
	return r.f.contracts, nil
}

func (r fakeContracts) ListByStartDate(ctx context.Context, from, to time.Time) ([]contract.Contract, error) {
	r.f.calls++
	var out []contract.Contract
	for _, c := range r.f.contracts {
		if inRange(c.StartDate, from, to) {
			out = append(out, c)
		}
	}
	if hook := r.f.afterContracts; hook != nil {
		r.f.afterContracts = nil
		hook()
	}
	return out, nil
}

func (r fakeContracts) ListBySalesAgent(ctx context.Context, salesAgentID string) ([]contract.Contract, error) {
	var out []contract.Contract
	for _, c := range r.f.contracts {
		if c.SalesAgentID == salesAgentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r fakeContracts) GetByID(ctx context.Context, id string) (contract.Contract, error) {
	for _, c := range r.f.contracts {
		if c.ID == id {
			return c, nil
		}
	}
	return contract.Contract{}, contract.ErrContractNotFound
}

type fakeCoupons struct{ f *fakeStore }

func (r fakeCoupons) ListUnpaid(ctx context.Context) ([]contract.InstallmentCoupon, error) {
	return r.f.coupons, nil
}

func (r fakeCoupons) ListUnpaidByContractStart(ctx context.Context, from, to time.Time) ([]contract.InstallmentCoupon, error) {
	var out []contract.InstallmentCoupon
	for _, c := range r.f.coupons {
		if inRange(c.ContractStartDate, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r fakeCoupons) ListUnpaidByDueDate(ctx context.Context, from, to time.Time) ([]contract.InstallmentCoupon, error) {
	var out []contract.InstallmentCoupon
	for _, c := range r.f.coupons {
		if inRange(c.DueDate, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakePaymentLogs struct{ f *fakeStore }

func (r fakePaymentLogs) List(ctx context.Context) ([]contract.PaymentLog, error) {
	if r.f.paymentErr != nil {
		return nil, r.f.paymentErr
	}
	return r.f.payments, nil
}

func (r fakePaymentLogs) ListByPaymentDate(ctx context.Context, from, to time.Time) ([]contract.PaymentLog, error) {
	if r.f.paymentErr != nil {
		return nil, r.f.paymentErr
	}
	var out []contract.PaymentLog
	for _, p := range r.f.payments {
		if inRange(p.PaymentDate, from, to) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeTiers struct{ f *fakeStore }

func (r fakeTiers) List(ctx context.Context) ([]commission.CommissionTier, error) {
	return r.f.tiers, nil
}

func (r fakeTiers) Create(ctx context.Context, t commission.CommissionTier) (commission.CommissionTier, error) {
	return t, nil
}

func (r fakeTiers) Update(ctx context.Context, t commission.CommissionTier) (commission.CommissionTier, error) {
	return t, nil
}

func (r fakeTiers) Delete(ctx context.Context, id string) error {
	return nil
}

func (r fakeTiers) ReplaceAll(ctx context.Context, tiers []commission.CommissionTier) error {
	return nil
}

type fakeExpenses struct{ f *fakeStore }

func (r fakeExpenses) ListByDateRange(ctx context.Context, from, to time.Time) ([]expense.OperationalExpense, error) {
	var out []expense.OperationalExpense
	for _, e := range r.f.expenses {
		if inRange(e.ExpenseDate, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r fakeExpenses) Create(ctx context.Context, e expense.OperationalExpense) (expense.OperationalExpense, error) {
	return e, nil
}

func (r fakeExpenses) Delete(ctx context.Context, id string) error {
	return nil
}

type fakeTargets struct{ f *fakeStore }

func (r fakeTargets) GetTarget(ctx context.Context, year int) (decimal.Decimal, error) {
	amount, ok := r.f.targets[year]
	if !ok {
		return decimal.Zero, performance.ErrTargetNotFound
	}
	return amount, nil
}

func (r fakeTargets) UpsertTarget(ctx context.Context, year int, amount decimal.Decimal) error {
	if r.f.targets == nil {
		r.f.targets = make(map[int]decimal.Decimal)
	}
	r.f.targets[year] = amount
	return nil
}
