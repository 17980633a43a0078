package commands

import (
	"errors"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/pkg/errs"
	"fieldops/internal/pkg/guard"
)

var ErrCreateAgentCommandIsNotConstructed = errors.New(
	"CreateAgentCommand must be created via NewCreateAgentCommand constructor",
)

// CreateAgentCommand registers a field agent.
type CreateAgentCommand struct { //nolint:recvcheck //using for validation
	agentID  kernel.UUID
	name     string
	speedKmh int
	location kernel.Location
	kinds    []kernel.ServiceKind

	guard guard.ConstructorGuard
}

// NewCreateAgentCommand validates every field and returns the joined
// errors when any is invalid.
func NewCreateAgentCommand(
	agentID kernel.UUID,
	name string,
	speedKmh int,
	location kernel.Location,
	kinds []kernel.ServiceKind,
) (CreateAgentCommand, error) {
	cmd := CreateAgentCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setAgentID(agentID),
		cmd.setName(name),
		cmd.setSpeed(speedKmh),
		cmd.setLocation(location),
		cmd.setKinds(kinds),
	); err != nil {
		return CreateAgentCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateAgentCommand) Validate() error {
	return c.guard.Validate(ErrCreateAgentCommandIsNotConstructed)
}

// AgentID returns the identifier of the agent to register.
func (c CreateAgentCommand) AgentID() kernel.UUID {
	return c.agentID
}

// Name returns the agent's display name.
func (c CreateAgentCommand) Name() string {
	return c.name
}

// SpeedKmh returns the agent's average travel speed.
func (c CreateAgentCommand) SpeedKmh() int {
	return c.speedKmh
}

// Location returns the agent's starting position.
func (c CreateAgentCommand) Location() kernel.Location {
	return c.location
}

// Kinds returns the services the agent performs.
func (c CreateAgentCommand) Kinds() []kernel.ServiceKind {
	return c.kinds
}

func (c *CreateAgentCommand) setAgentID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.agentID = id
	return nil
}

func (c *CreateAgentCommand) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}

	c.name = name
	return nil
}

func (c *CreateAgentCommand) setSpeed(speedKmh int) error {
	if speedKmh <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("speedKmh", errors.New("speed must be greater than 0"))
	}

	c.speedKmh = speedKmh
	return nil
}

func (c *CreateAgentCommand) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.location = location
	return nil
}

func (c *CreateAgentCommand) setKinds(kinds []kernel.ServiceKind) error {
	if len(kinds) == 0 {
		return errs.NewValueIsRequiredError("kinds")
	}

	for _, k := range kinds {
		if err := k.Validate(); err != nil {
			return err
		}
	}

	c.kinds = append([]kernel.ServiceKind(nil), kinds...)
	return nil
}
