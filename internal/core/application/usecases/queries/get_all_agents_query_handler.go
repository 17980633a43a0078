package queries

import (
	"context"

	"fieldops/internal/core/ports"
)

// GetAllAgentsQueryHandler reads the roster from the agent repository.
type GetAllAgentsQueryHandler struct {
	agents ports.AgentRepository
}

// NewGetAllAgentsQueryHandler creates the handler.
func NewGetAllAgentsQueryHandler(agents ports.AgentRepository) GetAllAgentsQueryHandler {
	return GetAllAgentsQueryHandler{agents: agents}
}

// Handle returns every agent in repository order.
func (h GetAllAgentsQueryHandler) Handle(ctx context.Context, query GetAllAgentsQuery) ([]GetAllAgentsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	agents, err := h.agents.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]GetAllAgentsQueryResponse, 0, len(agents))
	for _, a := range agents {
		result = append(result, GetAllAgentsQueryResponse{
			ID:       a.ID(),
			Name:     a.Name(),
			SpeedKmh: a.SpeedKmh(),
			Location: a.Location(),
			Kinds:    a.Kinds(),
		})
	}
	return result, nil
}
