package commands

import (
	"errors"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/pkg/guard"
)

var ErrStartServiceCommandIsNotConstructed = errors.New(
	"StartServiceCommand must be created via NewStartServiceCommand constructor",
)

// StartServiceCommand marks the confirmed agent as on site and working.
type StartServiceCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	agentID kernel.UUID

	guard guard.ConstructorGuard
}

// NewStartServiceCommand validates both identifiers.
func NewStartServiceCommand(orderID, agentID kernel.UUID) (StartServiceCommand, error) {
	cmd := StartServiceCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setAgentID(agentID),
	); err != nil {
		return StartServiceCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c StartServiceCommand) Validate() error {
	return c.guard.Validate(ErrStartServiceCommandIsNotConstructed)
}

// OrderID returns the order concerned.
func (c StartServiceCommand) OrderID() kernel.UUID {
	return c.orderID
}

// AgentID returns the acting agent.
func (c StartServiceCommand) AgentID() kernel.UUID {
	return c.agentID
}

func (c *StartServiceCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.orderID = id
	return nil
}

func (c *StartServiceCommand) setAgentID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.agentID = id
	return nil
}
