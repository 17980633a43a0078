package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"fieldops/internal/core/domain/model/agent"
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/pkg/errs"
)

// AgentRepository is an in-process ports.AgentRepository. Availability is
// read from the order store it is paired with.
type AgentRepository struct {
	mu     sync.RWMutex
	agents map[kernel.UUID]*agent.Agent
	orders *OrderStore
}

// NewAgentRepository returns an empty repository backed by orders for
// availability checks.
func NewAgentRepository(orders *OrderStore) *AgentRepository {
	return &AgentRepository{
		agents: make(map[kernel.UUID]*agent.Agent),
		orders: orders,
	}
}

// Add saves a new agent.
func (r *AgentRepository) Add(_ context.Context, aggregate *agent.Agent) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[aggregate.ID()]; exists {
		return errs.NewValueIsInvalidErrorWithCause("agent", fmt.Errorf("agent %s already exists", aggregate.ID()))
	}
	r.agents[aggregate.ID()] = copyAgent(aggregate)
	return nil
}

// Update replaces a stored agent.
func (r *AgentRepository) Update(_ context.Context, aggregate *agent.Agent) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[aggregate.ID()]; !exists {
		return errs.NewObjectNotFoundError("agent", aggregate.ID().String())
	}
	r.agents[aggregate.ID()] = copyAgent(aggregate)
	return nil
}

// Get retrieves an agent by ID.
func (r *AgentRepository) Get(_ context.Context, id kernel.UUID) (*agent.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("agent", id.String())
	}
	return copyAgent(a), nil
}

// GetAll returns every agent ordered by name.
func (r *AgentRepository) GetAll(_ context.Context) ([]*agent.Agent, error) {
	return r.filter(func(*agent.Agent) bool { return true }), nil
}

// GetAllAvailable returns agents performing kind that hold no order.
func (r *AgentRepository) GetAllAvailable(_ context.Context, kind kernel.ServiceKind) ([]*agent.Agent, error) {
	busy := r.orders.busyAgents()
	return r.filter(func(a *agent.Agent) bool {
		return a.CanServe(kind) && !kernel.ContainsUUID(busy, a.ID())
	}), nil
}

func (r *AgentRepository) filter(keep func(*agent.Agent) bool) []*agent.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*agent.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		if keep(a) {
			result = append(result, copyAgent(a))
		}
	}

	slices.SortFunc(result, func(a, b *agent.Agent) int {
		if c := cmp.Compare(a.Name(), b.Name()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID().String(), b.ID().String())
	})
	return result
}

func copyAgent(a *agent.Agent) *agent.Agent {
	c, _ := agent.RestoreAgent(a.ID(), a.Name(), a.SpeedKmh(), a.Location(), a.Kinds())
	return c
}
