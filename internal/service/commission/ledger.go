package commission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kreditkeliling/kupon-backend-go/internal/domain/agent"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/contract"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/cache"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/sse"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type LedgerServiceImpl struct {
	agentRepo    agent.AgentRepository
	contractRepo contract.ContractRepository
	tierRepo     commission.TierRepository
	paymentRepo  commission.PaymentRepository
	calculator   *Calculator
	cache        cache.Cache
	hub          *sse.Hub
	ttl          time.Duration
}

func NewLedgerService(
	agentRepo agent.AgentRepository,
	contractRepo contract.ContractRepository,
	tierRepo commission.TierRepository,
	paymentRepo commission.PaymentRepository,
	calculator *Calculator,
	c cache.Cache,
	hub *sse.Hub,
	ttl time.Duration,
) commission.LedgerService {
	return &LedgerServiceImpl{
		agentRepo:    agentRepo,
		contractRepo: contractRepo,
		tierRepo:     tierRepo,
		paymentRepo:  paymentRepo,
		calculator:   calculator,
		cache:        c,
		hub:          hub,
		ttl:          ttl,
	}
}

// ledgerSnapshot is everything the unpaid set and the summary derive from.
type ledgerSnapshot struct {
	agent     agent.SalesAgent
	contracts []contract.Contract
	payments  []commission.CommissionPayment
	tiers     []commission.CommissionTier
}

func (s *LedgerServiceImpl) load(ctx context.Context, salesAgentID string) (ledgerSnapshot, error) {
	var snap ledgerSnapshot

	if !validator.IsValidUUID(salesAgentID) {
		return snap, agent.ErrAgentNotFound
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a, err := s.agentRepo.GetByID(gCtx, salesAgentID)
		if err != nil {
			return err
		}
		snap.agent = a
		return nil
	})

	g.Go(func() error {
		contracts, err := s.contractRepo.ListBySalesAgent(gCtx, salesAgentID)
		if err != nil {
			return fmt.Errorf("failed to list contracts: %w", err)
		}
		snap.contracts = contracts
		return nil
	})

	g.Go(func() error {
		payments, err := s.paymentRepo.ListByAgent(gCtx, salesAgentID)
		if err != nil {
			return fmt.Errorf("failed to list commission payments: %w", err)
		}
		snap.payments = payments
		return nil
	})

	g.Go(func() error {
		tiers, err := s.tierRepo.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list commission tiers: %w", err)
		}
		snap.tiers = commission.SortTiers(tiers)
		return nil
	})

	if err := g.Wait(); err != nil {
		return ledgerSnapshot{}, err
	}
	return snap, nil
}

// unpaid subtracts paid contract IDs from the agent's contracts.
func (s *LedgerServiceImpl) unpaid(snap ledgerSnapshot) []commission.UnpaidCommissionLine {
	paid := make(map[string]struct{}, len(snap.payments))
	for _, p := range snap.payments {
		paid[p.ContractID] = struct{}{}
	}

	lines := make([]commission.UnpaidCommissionLine, 0, len(snap.contracts))
	for _, c := range snap.contracts {
		if _, ok := paid[c.ID]; ok {
			continue
		}
		comm := s.calculator.Compute(c.Revenue, snap.tiers, snap.agent.UseTieredCommission, snap.agent.CommissionPercentage)
		lines = append(lines, commission.UnpaidCommissionLine{
			ContractID:  c.ID,
			ContractRef: c.ContractRef,
			StartDate:   c.StartDate.Format(validator.DateLayout),
			Revenue:     c.Revenue,
			Percentage:  comm.Percentage,
			Commission:  comm.Amount,
		})
	}
	return lines
}

func (s *LedgerServiceImpl) ListUnpaid(ctx context.Context, salesAgentID string) ([]commission.UnpaidCommissionLine, error) {
	key, cacheable := s.cacheKey(ctx, cache.CommissionUnpaidKey(salesAgentID), salesAgentID)

	var cached []commission.UnpaidCommissionLine
	if cacheable && s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	snap, err := s.load(ctx, salesAgentID)
	if err != nil {
		return nil, err
	}

	lines := s.unpaid(snap)
	if cacheable {
		s.toCache(ctx, key, lines)
	}
	return lines, nil
}

func (s *LedgerServiceImpl) ListPaid(ctx context.Context, salesAgentID string) ([]commission.PaymentResponse, error) {
	key, cacheable := s.cacheKey(ctx, cache.CommissionPaidKey(salesAgentID), salesAgentID)

	var cached []commission.PaymentResponse
	if cacheable && s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	if _, err := s.getAgent(ctx, salesAgentID); err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListByAgent(ctx, salesAgentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission payments: %w", err)
	}

	resp := make([]commission.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, commission.NewPaymentResponse(p))
	}

	if cacheable {
		s.toCache(ctx, key, resp)
	}
	return resp, nil
}

func (s *LedgerServiceImpl) Summary(ctx context.Context, salesAgentID string) (commission.AgentCommissionSummary, error) {
	key, cacheable := s.cacheKey(ctx, cache.CommissionSummaryKey(salesAgentID), salesAgentID)

	var cached commission.AgentCommissionSummary
	if cacheable && s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	snap, err := s.load(ctx, salesAgentID)
	if err != nil {
		return commission.AgentCommissionSummary{}, err
	}

	lines := s.unpaid(snap)

	summary := commission.AgentCommissionSummary{
		SalesAgentID:        snap.agent.ID,
		AgentName:           snap.agent.Name,
		UseTieredCommission: snap.agent.UseTieredCommission,
		ContractCount:       len(snap.contracts),
		PaidCount:           len(snap.payments),
		UnpaidCount:         len(lines),
		TotalPaid:           decimal.Zero,
		TotalUnpaid:         decimal.Zero,
	}

	var last time.Time
	for _, p := range snap.payments {
		summary.TotalPaid = summary.TotalPaid.Add(p.Amount)
		if p.PaymentDate.After(last) {
			last = p.PaymentDate
		}
	}
	for _, l := range lines {
		summary.TotalUnpaid = summary.TotalUnpaid.Add(l.Commission)
	}
	summary.TotalEarned = summary.TotalPaid.Add(summary.TotalUnpaid)
	if !last.IsZero() {
		date := last.Format(validator.DateLayout)
		summary.LastPaymentDate = &date
	}

	if cacheable {
		s.toCache(ctx, key, summary)
	}
	return summary, nil
}

func (s *LedgerServiceImpl) PayOne(ctx context.Context, req commission.PayCommissionRequest) (commission.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return commission.PaymentResponse{}, err
	}

	if _, err := s.getAgent(ctx, req.SalesAgentID); err != nil {
		return commission.PaymentResponse{}, err
	}

	c, err := s.contractRepo.GetByID(ctx, req.ContractID)
	if err != nil {
		return commission.PaymentResponse{}, err
	}
	if c.SalesAgentID != req.SalesAgentID {
		return commission.PaymentResponse{}, commission.ErrContractNotOwnedByAgent
	}

	paymentDate, _ := validator.IsValidDate(req.PaymentDate)

	created, err := s.paymentRepo.Create(ctx, commission.CommissionPayment{
		SalesAgentID: req.SalesAgentID,
		ContractID:   req.ContractID,
		Amount:       req.Amount,
		PaymentDate:  paymentDate,
		Notes:        req.Notes,
	})
	if err != nil {
		if errors.Is(err, commission.ErrCommissionAlreadyPaid) {
			return commission.PaymentResponse{}, err
		}
		return commission.PaymentResponse{}, fmt.Errorf("failed to record commission payment: %w", err)
	}
	if created.ContractRef == nil {
		created.ContractRef = &c.ContractRef
	}

	slog.Info("commission paid",
		"sales_agent_id", req.SalesAgentID,
		"contract_id", req.ContractID,
		"amount", req.Amount.String(),
	)
	s.ledgerChanged(ctx, req.SalesAgentID)

	return commission.NewPaymentResponse(created), nil
}

// PayAll records every item or none of them.
func (s *LedgerServiceImpl) PayAll(ctx context.Context, req commission.PayAllCommissionRequest) ([]commission.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.getAgent(ctx, req.SalesAgentID); err != nil {
		return nil, err
	}

	contracts, err := s.contractRepo.ListBySalesAgent(ctx, req.SalesAgentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	refs := make(map[string]string, len(contracts))
	for _, c := range contracts {
		refs[c.ID] = c.ContractRef
	}

	paymentDate, _ := validator.IsValidDate(req.PaymentDate)

	payments := make([]commission.CommissionPayment, 0, len(req.Items))
	for _, item := range req.Items {
		if _, ok := refs[item.ContractID]; !ok {
			return nil, fmt.Errorf("contract %s: %w", item.ContractID, commission.ErrContractNotOwnedByAgent)
		}
		payments = append(payments, commission.CommissionPayment{
			SalesAgentID: req.SalesAgentID,
			ContractID:   item.ContractID,
			Amount:       item.Amount,
			PaymentDate:  paymentDate,
			Notes:        req.Notes,
		})
	}

	created, err := s.paymentRepo.CreateBatch(ctx, payments)
	if err != nil {
		if errors.Is(err, commission.ErrCommissionAlreadyPaid) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record commission payments: %w", err)
	}

	resp := make([]commission.PaymentResponse, 0, len(created))
	for _, p := range created {
		if p.ContractRef == nil {
			ref := refs[p.ContractID]
			p.ContractRef = &ref
		}
		resp = append(resp, commission.NewPaymentResponse(p))
	}

	slog.Info("commission paid in bulk", "sales_agent_id", req.SalesAgentID, "count", len(created))
	s.ledgerChanged(ctx, req.SalesAgentID)

	return resp, nil
}

func (s *LedgerServiceImpl) getAgent(ctx context.Context, salesAgentID string) (agent.SalesAgent, error) {
	if !validator.IsValidUUID(salesAgentID) {
		return agent.SalesAgent{}, agent.ErrAgentNotFound
	}
	return s.agentRepo.GetByID(ctx, salesAgentID)
}

// DeletePayment makes the contract reappear in the unpaid list on the next read.
func (s *LedgerServiceImpl) DeletePayment(ctx context.Context, id string, salesAgentID string) error {
	if !validator.IsValidUUID(id) || !validator.IsValidUUID(salesAgentID) {
		return commission.ErrCommissionPaymentNotFound
	}

	if err := s.paymentRepo.Delete(ctx, id, salesAgentID); err != nil {
		return err
	}

	slog.Info("commission payment deleted", "payment_id", id, "sales_agent_id", salesAgentID)
	s.ledgerChanged(ctx, salesAgentID)

	return nil
}

// ledgerChanged retires the agent's unpaid list, paid history and summary plus
// every rollup, then tells subscribers to refetch.
func (s *LedgerServiceImpl) ledgerChanged(ctx context.Context, salesAgentID string) {
	if err := s.cache.Bump(ctx, cache.AgentScope(salesAgentID), cache.ScopePerformance); err != nil {
		slog.Warn("failed to invalidate commission cache", "sales_agent_id", salesAgentID, "error", err)
	}

	s.hub.PublishToMany(
		[]string{sse.AgentTopic(salesAgentID), sse.TopicReports},
		sse.Event{
			Event: sse.EventCommissionChanged,
			Data:  map[string]string{"sales_agent_id": salesAgentID},
		},
	)
}

// cacheKey versions an agent view by the tier table and the agent's ledger.
// When the generations cannot be read the view is served uncached.
func (s *LedgerServiceImpl) cacheKey(ctx context.Context, base string, salesAgentID string) (string, bool) {
	key, err := cache.VersionedKey(ctx, s.cache, base, cache.ScopeTiers, cache.AgentScope(salesAgentID))
	if err != nil {
		slog.Warn("cache generation read failed", "key", base, "error", err)
		return "", false
	}
	return key, true
}

func (s *LedgerServiceImpl) fromCache(ctx context.Context, key string, dest interface{}) bool {
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("cache read failed", "key", key, "error", err)
	}
	return false
}

func (s *LedgerServiceImpl) toCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}
