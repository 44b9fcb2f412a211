package agent

import "context"

type AgentRepository interface {
	List(ctx context.Context) ([]SalesAgent, error)
	GetByID(ctx context.Context, id string) (SalesAgent, error)
	UpdateCommissionSettings(ctx context.Context, req UpdateCommissionSettingsRequest) (SalesAgent, error)
}
