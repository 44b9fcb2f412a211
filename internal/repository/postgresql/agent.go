package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/agent"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/database"
)

type agentRepositoryImpl struct {
	db *database.DB
}

func NewAgentRepository(db *database.DB) agent.AgentRepository {
	return &agentRepositoryImpl{db: db}
}

const agentColumns = `id, agent_code, name, commission_percentage, use_tiered_commission, created_at, updated_at`

func scanAgent(row pgx.Row) (agent.SalesAgent, error) {
	var a agent.SalesAgent
	err := row.Scan(&a.ID, &a.AgentCode, &a.Name, &a.CommissionPercentage, &a.UseTieredCommission, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// List implements agent.AgentRepository.
func (r *agentRepositoryImpl) List(ctx context.Context) ([]agent.SalesAgent, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+agentColumns+` FROM sales_agents ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales agents: %w", err)
	}
	defer rows.Close()

	agents := make([]agent.SalesAgent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sales agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales agents: %w", err)
	}

	return agents, nil
}

// GetByID implements agent.AgentRepository.
func (r *agentRepositoryImpl) GetByID(ctx context.Context, id string) (agent.SalesAgent, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanAgent(q.QueryRow(ctx, `SELECT `+agentColumns+` FROM sales_agents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return agent.SalesAgent{}, agent.ErrAgentNotFound
		}
		return agent.SalesAgent{}, fmt.Errorf("failed to get sales agent with id %s: %w", id, err)
	}
	return a, nil
}

// UpdateCommissionSettings implements agent.AgentRepository.
func (r *agentRepositoryImpl) UpdateCommissionSettings(ctx context.Context, req agent.UpdateCommissionSettingsRequest) (agent.SalesAgent, error) {
	q := GetQuerier(ctx, r.db)

	setClauses := []string{"updated_at = NOW()"}
	args := make([]interface{}, 0, 3)

	if req.CommissionPercentage != nil {
		args = append(args, *req.CommissionPercentage)
		setClauses = append(setClauses, fmt.Sprintf("commission_percentage = $%d", len(args)))
	}
	if req.UseTieredCommission != nil {
		args = append(args, *req.UseTieredCommission)
		setClauses = append(setClauses, fmt.Sprintf("use_tiered_commission = $%d", len(args)))
	}
	args = append(args, req.ID)

	query := "UPDATE sales_agents SET " + strings.Join(setClauses, ", ") +
		fmt.Sprintf(" WHERE id = $%d RETURNING ", len(args)) + agentColumns

	a, err := scanAgent(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return agent.SalesAgent{}, agent.ErrAgentNotFound
		}
		return agent.SalesAgent{}, fmt.Errorf("failed to update commission settings for agent %s: %w", req.ID, err)
	}
	return a, nil
}
