package agent

import "context"

type AgentService interface {
	List(ctx context.Context) ([]AgentResponse, error)
	Get(ctx context.Context, id string) (AgentResponse, error)
	// UpdateCommissionSettings changes the flat rate or tier flag and
	// invalidates every commission and performance view.
	UpdateCommissionSettings(ctx context.Context, req UpdateCommissionSettingsRequest) (AgentResponse, error)
}
