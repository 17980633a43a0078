package commands

import (
	"errors"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/pkg/guard"
)

var ErrDeclineOfferCommandIsNotConstructed = errors.New(
	"DeclineOfferCommand must be created via NewDeclineOfferCommand constructor",
)

// DeclineOfferCommand is an agent turning down the offer it currently holds.
type DeclineOfferCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	agentID kernel.UUID

	guard guard.ConstructorGuard
}

// NewDeclineOfferCommand validates both identifiers.
func NewDeclineOfferCommand(orderID, agentID kernel.UUID) (DeclineOfferCommand, error) {
	cmd := DeclineOfferCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setAgentID(agentID),
	); err != nil {
		return DeclineOfferCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c DeclineOfferCommand) Validate() error {
	return c.guard.Validate(ErrDeclineOfferCommandIsNotConstructed)
}

// OrderID returns the order concerned.
func (c DeclineOfferCommand) OrderID() kernel.UUID {
	return c.orderID
}

// AgentID returns the acting agent.
func (c DeclineOfferCommand) AgentID() kernel.UUID {
	return c.agentID
}

func (c *DeclineOfferCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.orderID = id
	return nil
}

func (c *DeclineOfferCommand) setAgentID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.agentID = id
	return nil
}
