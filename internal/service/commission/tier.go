package commission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/cache"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/sse"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/validator"
)

type TierServiceImpl struct {
	tierRepo commission.TierRepository
	cache    cache.Cache
	hub      *sse.Hub
}

func NewTierService(tierRepo commission.TierRepository, c cache.Cache, hub *sse.Hub) commission.TierService {
	return &TierServiceImpl{
		tierRepo: tierRepo,
		cache:    c,
		hub:      hub,
	}
}

func (s *TierServiceImpl) List(ctx context.Context) (commission.TierTableResponse, error) {
	return s.table(ctx)
}

// Create stores the tier even when it leaves the table gapped or overlapping;
// those issues come back in the response.
func (s *TierServiceImpl) Create(ctx context.Context, req commission.CreateTierRequest) (commission.TierTableResponse, error) {
	if err := req.Validate(); err != nil {
		return commission.TierTableResponse{}, err
	}

	created, err := s.tierRepo.Create(ctx, commission.CommissionTier{
		MinAmount:  req.MinAmount,
		MaxAmount:  req.MaxAmount,
		Percentage: req.Percentage,
	})
	if err != nil {
		return commission.TierTableResponse{}, fmt.Errorf("failed to create commission tier: %w", err)
	}

	slog.Info("commission tier created", "tier_id", created.ID, "min_amount", created.MinAmount.String(), "percentage", created.Percentage.String())
	s.tiersChanged(ctx)

	return s.table(ctx)
}

func (s *TierServiceImpl) Update(ctx context.Context, req commission.UpdateTierRequest) (commission.TierTableResponse, error) {
	if !validator.IsValidUUID(req.ID) {
		return commission.TierTableResponse{}, commission.ErrTierNotFound
	}
	if err := req.Validate(); err != nil {
		return commission.TierTableResponse{}, err
	}

	updated, err := s.tierRepo.Update(ctx, commission.CommissionTier{
		ID:         req.ID,
		MinAmount:  req.MinAmount,
		MaxAmount:  req.MaxAmount,
		Percentage: req.Percentage,
	})
	if err != nil {
		return commission.TierTableResponse{}, err
	}

	slog.Info("commission tier updated", "tier_id", updated.ID)
	s.tiersChanged(ctx)

	return s.table(ctx)
}

func (s *TierServiceImpl) Delete(ctx context.Context, id string) (commission.TierTableResponse, error) {
	if !validator.IsValidUUID(id) {
		return commission.TierTableResponse{}, commission.ErrTierNotFound
	}
	if err := s.tierRepo.Delete(ctx, id); err != nil {
		return commission.TierTableResponse{}, err
	}

	slog.Info("commission tier deleted", "tier_id", id)
	s.tiersChanged(ctx)

	return s.table(ctx)
}

func (s *TierServiceImpl) Check(ctx context.Context) ([]commission.TierIssue, error) {
	tiers, err := s.tierRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission tiers: %w", err)
	}
	return commission.InspectTiers(tiers), nil
}

func (s *TierServiceImpl) table(ctx context.Context) (commission.TierTableResponse, error) {
	tiers, err := s.tierRepo.List(ctx)
	if err != nil {
		return commission.TierTableResponse{}, fmt.Errorf("failed to list commission tiers: %w", err)
	}

	sorted := commission.SortTiers(tiers)
	resp := commission.TierTableResponse{
		Tiers:  make([]commission.TierResponse, 0, len(sorted)),
		Issues: commission.InspectTiers(sorted),
	}
	for _, t := range sorted {
		resp.Tiers = append(resp.Tiers, commission.NewTierResponse(t))
	}
	if resp.Issues == nil {
		resp.Issues = []commission.TierIssue{}
	}
	return resp, nil
}

// tiersChanged retires every view that a commission amount flows into.
func (s *TierServiceImpl) tiersChanged(ctx context.Context) {
	if err := cache.InvalidateTiers(ctx, s.cache); err != nil {
		slog.Warn("failed to invalidate cache", "error", err)
	}
	s.hub.Publish(sse.TopicReports, sse.Event{Event: sse.EventTiersChanged})
}
