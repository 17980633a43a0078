package agent

import (
	"errors"
	"slices"
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/pkg/errs"
	"fieldops/internal/pkg/guard"
)

// Domain errors for agent operations.
var (
	// ErrNameIsRequired is returned when attempting to create an agent without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrSpeedIsRequired is returned when attempting to create an agent with invalid speed (≤0).
	ErrSpeedIsRequired = errs.NewValueIsRequiredError("speed")
	// ErrKindsAreRequired is returned when an agent offers no service at all.
	ErrKindsAreRequired = errs.NewValueIsRequiredError("service kinds")
	// ErrAgentIsNotConstructed is returned when using an improperly initialized Agent.
	ErrAgentIsNotConstructed = errors.New("Agent must be created via NewAgent constructor")
)

// Agent is a field worker who drives out to customers: a fuel tanker driver,
// a mobile mechanic, or both. It is an aggregate root.
//
// Key responsibilities:
//   - Managing agent identity (ID, name, travel speed)
//   - Declaring which service kinds the agent can perform
//   - Tracking the last reported location
//   - Estimating travel time to a customer
//
// Business rules:
//   - Agent must have a valid UUID, non-empty name and positive speed
//   - Agent must offer at least one known service kind
//   - Kinds are deduplicated and kept in the order they were declared
//
// Example usage:
//
//	loc, _ := kernel.NewLocation(52.52, 13.405)
//	a, err := agent.NewAgent(kernel.NewUUID(), "Dana", 40, loc, []kernel.ServiceKind{kernel.FuelDelivery})
type Agent struct {
	id       kernel.UUID
	name     string
	speedKmh int
	location kernel.Location
	kinds    []kernel.ServiceKind
	guard    guard.ConstructorGuard
}

// NewAgent creates a new Agent. This is the only way to create a valid Agent
// besides RestoreAgent.
//
// Parameters:
//   - id: Unique identifier for the agent (must be valid UUID)
//   - name: Human-readable name (must be non-empty)
//   - speedKmh: Average travel speed in km/h (must be positive)
//   - location: Last reported position (must be valid location)
//   - kinds: Services the agent performs (at least one)
//
// Returns:
//   - *Agent: A fully initialized agent
//   - error: Validation errors joined together if any parameter is invalid
func NewAgent(
	id kernel.UUID,
	name string,
	speedKmh int,
	location kernel.Location,
	kinds []kernel.ServiceKind,
) (*Agent, error) {
	a := &Agent{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		a.setID(id),
		a.setName(name),
		a.setSpeed(speedKmh),
		a.setLocation(location),
		a.setKinds(kinds),
	); err != nil {
		return nil, err
	}

	return a, nil
}

// RestoreAgent reconstructs an Agent from persistent storage. It applies the
// same validation as NewAgent so corrupted rows never reach the domain.
func RestoreAgent(
	id kernel.UUID,
	name string,
	speedKmh int,
	location kernel.Location,
	kinds []kernel.ServiceKind,
) (*Agent, error) {
	return NewAgent(id, name, speedKmh, location, kinds)
}

// IsEqual compares two agents by identifier.
func (a *Agent) IsEqual(other *Agent) bool {
	if other == nil {
		return false
	}
	return a.id.IsEqual(other.id)
}

// Validate checks if the Agent was properly constructed.
func (a *Agent) Validate() error {
	if a == nil {
		return ErrAgentIsNotConstructed
	}
	return a.guard.Validate(ErrAgentIsNotConstructed)
}

// ID returns the unique identifier of the agent.
func (a *Agent) ID() kernel.UUID {
	return a.id
}

// Name returns the human-readable name of the agent.
func (a *Agent) Name() string {
	return a.name
}

// SpeedKmh returns the average travel speed used for ETA estimates.
func (a *Agent) SpeedKmh() int {
	return a.speedKmh
}

// Location returns the last reported position.
func (a *Agent) Location() kernel.Location {
	return a.location
}

// Kinds returns a copy of the services the agent performs.
func (a *Agent) Kinds() []kernel.ServiceKind {
	return slices.Clone(a.kinds)
}

// CanServe reports whether the agent performs kind.
func (a *Agent) CanServe(kind kernel.ServiceKind) bool {
	return slices.Contains(a.kinds, kind)
}

// UpdateLocation records a new position report.
func (a *Agent) UpdateLocation(location kernel.Location) error {
	return a.setLocation(location)
}

// CalculateTimeToLocation estimates how long the agent needs to drive to
// target, using the great-circle distance and the agent's average speed.
//
// Example:
//
//	eta, err := a.CalculateTimeToLocation(o.Location())
//	// 10 km at 40 km/h -> 15m0s
func (a *Agent) CalculateTimeToLocation(target kernel.Location) (time.Duration, error) {
	if err := target.Validate(); err != nil {
		return 0, err
	}

	distance, err := a.location.DistanceKm(target)
	if err != nil {
		return 0, err
	}

	hours := distance / float64(a.speedKmh)
	return time.Duration(hours * float64(time.Hour)), nil
}

func (a *Agent) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	a.id = id
	return nil
}

func (a *Agent) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}

	a.name = name
	return nil
}

func (a *Agent) setSpeed(speedKmh int) error {
	if speedKmh <= 0 {
		return ErrSpeedIsRequired
	}

	a.speedKmh = speedKmh
	return nil
}

func (a *Agent) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}

	a.location = location
	return nil
}

func (a *Agent) setKinds(kinds []kernel.ServiceKind) error {
	if len(kinds) == 0 {
		return ErrKindsAreRequired
	}

	unique := make([]kernel.ServiceKind, 0, len(kinds))
	for _, kind := range kinds {
		if err := kind.Validate(); err != nil {
			return err
		}
		if !slices.Contains(unique, kind) {
			unique = append(unique, kind)
		}
	}

	a.kinds = unique
	return nil
}
