package ports

import (
	"context"

	"fieldops/internal/core/domain/model/agent"
	"fieldops/internal/core/domain/model/kernel"
)

// AgentRepository defines the persistence contract for agent aggregates.
type AgentRepository interface {
	// Add persists a new agent.
	Add(ctx context.Context, aggregate *agent.Agent) error

	// Update persists a changed agent, such as a new location report.
	Update(ctx context.Context, aggregate *agent.Agent) error

	// Get retrieves an agent by identifier.
	// Returns errs.ErrObjectNotFound when there is no such agent.
	Get(ctx context.Context, id kernel.UUID) (*agent.Agent, error)

	// GetAll returns every registered agent.
	GetAll(ctx context.Context) ([]*agent.Agent, error)

	// GetAllAvailable returns agents performing kind that currently hold no
	// offered, accepted or active order.
	GetAllAvailable(ctx context.Context, kind kernel.ServiceKind) ([]*agent.Agent, error)
}
