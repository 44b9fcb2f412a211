package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kreditkeliling/kupon-backend-go/internal/domain/agent"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/cache"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/sse"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/validator"
)

type AgentServiceImpl struct {
	agent.AgentRepository
	cache cache.Cache
	hub   *sse.Hub
}

func NewAgentService(repo agent.AgentRepository, c cache.Cache, hub *sse.Hub) agent.AgentService {
	return &AgentServiceImpl{
		AgentRepository: repo,
		cache:           c,
		hub:             hub,
	}
}

func (s *AgentServiceImpl) List(ctx context.Context) ([]agent.AgentResponse, error) {
	agents, err := s.AgentRepository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	resp := make([]agent.AgentResponse, 0, len(agents))
	for _, a := range agents {
		resp = append(resp, agent.NewAgentResponse(a))
	}
	return resp, nil
}

func (s *AgentServiceImpl) Get(ctx context.Context, id string) (agent.AgentResponse, error) {
	if !validator.IsValidUUID(id) {
		return agent.AgentResponse{}, agent.ErrAgentNotFound
	}

	a, err := s.AgentRepository.GetByID(ctx, id)
	if err != nil {
		return agent.AgentResponse{}, err
	}
	return agent.NewAgentResponse(a), nil
}

func (s *AgentServiceImpl) UpdateCommissionSettings(ctx context.Context, req agent.UpdateCommissionSettingsRequest) (agent.AgentResponse, error) {
	if err := req.Validate(); err != nil {
		return agent.AgentResponse{}, err
	}

	updated, err := s.AgentRepository.UpdateCommissionSettings(ctx, req)
	if err != nil {
		return agent.AgentResponse{}, err
	}

	slog.Info("commission settings updated",
		"sales_agent_id", updated.ID,
		"commission_percentage", updated.CommissionPercentage.String(),
		"use_tiered_commission", updated.UseTieredCommission,
	)

	if err := s.cache.Bump(ctx, cache.AgentScope(updated.ID), cache.ScopePerformance); err != nil {
		slog.Warn("failed to invalidate commission cache", "sales_agent_id", updated.ID, "error", err)
	}
	s.hub.PublishToMany(
		[]string{sse.AgentTopic(updated.ID), sse.TopicReports},
		sse.Event{Event: sse.EventAgentChanged, Data: map[string]string{"sales_agent_id": updated.ID}},
	)

	return agent.NewAgentResponse(updated), nil
}
