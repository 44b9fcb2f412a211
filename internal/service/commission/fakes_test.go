package commission

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/agent"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/contract"
)

type fakeAgentRepo struct {
	agents map[string]agent.SalesAgent
}

func (r *fakeAgentRepo) List(ctx context.Context) ([]agent.SalesAgent, error) {
	out := make([]agent.SalesAgent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out, nil
}

// GetByID rejects malformed ids the way a uuid column does.
func (r *fakeAgentRepo) GetByID(ctx context.Context, id string) (agent.SalesAgent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return agent.SalesAgent{}, fmt.Errorf("invalid input syntax for type uuid: %q", id)
	}
	a, ok := r.agents[id]
	if !ok {
		return agent.SalesAgent{}, agent.ErrAgentNotFound
	}
	return a, nil
}

func (r *fakeAgentRepo) UpdateCommissionSettings(ctx context.Context, req agent.UpdateCommissionSettingsRequest) (agent.SalesAgent, error) {
	a, ok := r.agents[req.ID]
	if !ok {
		return agent.SalesAgent{}, agent.ErrAgentNotFound
	}
	if req.CommissionPercentage != nil {
		a.CommissionPercentage = *req.CommissionPercentage
	}
	if req.UseTieredCommission != nil {
		a.UseTieredCommission = *req.UseTieredCommission
	}
	r.agents[req.ID] = a
	return a, nil
}

type fakeContractRepo struct {
	contracts []contract.Contract
}

func (r *fakeContractRepo) List(ctx context.Context) ([]contract.Contract, error) {
	return r.contracts, nil
}

func (r *fakeContractRepo) ListByStartDate(ctx context.Context, from, to time.Time) ([]contract.Contract, error) {
	var out []contract.Contract
	for _, c := range r.contracts {
		if !c.StartDate.Before(from) && c.StartDate.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeContractRepo) ListBySalesAgent(ctx context.Context, salesAgentID string) ([]contract.Contract, error) {
	var out []contract.Contract
	for _, c := range r.contracts {
		if c.SalesAgentID == salesAgentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeContractRepo) GetByID(ctx context.Context, id string) (contract.Contract, error) {
	for _, c := range r.contracts {
		if c.ID == id {
			return c, nil
		}
	}
	return contract.Contract{}, contract.ErrContractNotFound
}

type fakeTierRepo struct {
	tiers []commission.CommissionTier
}

func (r *fakeTierRepo) List(ctx context.Context) ([]commission.CommissionTier, error) {
	return commission.SortTiers(r.tiers), nil
}

func (r *fakeTierRepo) Create(ctx context.Context, t commission.CommissionTier) (commission.CommissionTier, error) {
	t.ID = uuid.NewString()
	r.tiers = append(r.tiers, t)
	return t, nil
}

func (r *fakeTierRepo) Update(ctx context.Context, t commission.CommissionTier) (commission.CommissionTier, error) {
	for i := range r.tiers {
		if r.tiers[i].ID == t.ID {
			r.tiers[i] = t
			return t, nil
		}
	}
	return commission.CommissionTier{}, commission.ErrTierNotFound
}

func (r *fakeTierRepo) Delete(ctx context.Context, id string) error {
	for i := range r.tiers {
		if r.tiers[i].ID == id {
			r.tiers = append(r.tiers[:i], r.tiers[i+1:]...)
			return nil
		}
	}
	return commission.ErrTierNotFound
}

func (r *fakeTierRepo) ReplaceAll(ctx context.Context, tiers []commission.CommissionTier) error {
	r.tiers = tiers
	return nil
}

// fakePaymentRepo enforces the (sales_agent_id, contract_id) uniqueness the
// database constraint provides.
type fakePaymentRepo struct {
	mu       sync.Mutex
	payments []commission.CommissionPayment

	// afterList runs once, after the next ListByAgent has read its rows.
	afterList func()
}

func (r *fakePaymentRepo) ListByAgent(ctx context.Context, salesAgentID string) ([]commission.CommissionPayment, error) {
	r.mu.Lock()
	var out []commission.CommissionPayment
	for _, p := range r.payments {
		if p.SalesAgentID == salesAgentID {
			out = append(out, p)
		}
	}
	afterList := r.afterList
	r.afterList = nil
	r.mu.Unlock()

	if afterList != nil {
		afterList()
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].PaymentDate.After(out[j].PaymentDate) })
	return out, nil
}

func (r *fakePaymentRepo) setAfterList(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterList = fn
}

func (r *fakePaymentRepo) exists(p commission.CommissionPayment) bool {
	for _, existing := range r.payments {
		if existing.SalesAgentID == p.SalesAgentID && existing.ContractID == p.ContractID {
			return true
		}
	}
	return false
}

func (r *fakePaymentRepo) Create(ctx context.Context, p commission.CommissionPayment) (commission.CommissionPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.exists(p) {
		return commission.CommissionPayment{}, commission.ErrCommissionAlreadyPaid
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	r.payments = append(r.payments, p)
	return p, nil
}

func (r *fakePaymentRepo) CreateBatch(ctx context.Context, payments []commission.CommissionPayment) ([]commission.CommissionPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range payments {
		if r.exists(p) {
			return nil, commission.ErrCommissionAlreadyPaid
		}
	}

	created := make([]commission.CommissionPayment, 0, len(payments))
	for _, p := range payments {
		p.ID = uuid.NewString()
		p.CreatedAt = time.Now()
		created = append(created, p)
	}
	r.payments = append(r.payments, created...)
	return created, nil
}

func (r *fakePaymentRepo) Delete(ctx context.Context, id string, salesAgentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.payments {
		if p.ID == id && p.SalesAgentID == salesAgentID {
			r.payments = append(r.payments[:i], r.payments[i+1:]...)
			return nil
		}
	}
	return commission.ErrCommissionPaymentNotFound
}

func (r *fakePaymentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payments)
}
