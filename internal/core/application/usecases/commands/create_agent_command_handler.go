package commands

import (
	"context"

	"fieldops/internal/core/domain/model/agent"
	"fieldops/internal/core/ports"
)

// CreateAgentCommandHandler registers agents.
type CreateAgentCommandHandler struct {
	agents ports.AgentRepository
}

// NewCreateAgentCommandHandler creates a handler for agent registration.
func NewCreateAgentCommandHandler(agents ports.AgentRepository) CreateAgentCommandHandler {
	return CreateAgentCommandHandler{agents: agents}
}

// Handle stores the new agent.
func (h CreateAgentCommandHandler) Handle(ctx context.Context, cmd CreateAgentCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	a, err := agent.NewAgent(cmd.AgentID(), cmd.Name(), cmd.SpeedKmh(), cmd.Location(), cmd.Kinds())
	if err != nil {
		return err
	}

	return h.agents.Add(ctx, a)
}
