package kernel

import (
	"fmt"

	"fieldops/internal/pkg/errs"
)

// ServiceKind is what the customer asked for and what an agent is able to do.
type ServiceKind string

const (
	// FuelDelivery brings fuel to a stranded vehicle.
	FuelDelivery ServiceKind = "fuel_delivery"
	// Mechanic sends a mechanic for on-site repair.
	Mechanic ServiceKind = "mechanic"
)

// ParseServiceKind converts the wire form into a ServiceKind.
func ParseServiceKind(s string) (ServiceKind, error) {
	kind := ServiceKind(s)
	if err := kind.Validate(); err != nil {
		return "", err
	}
	return kind, nil
}

// Validate rejects anything other than the known kinds.
func (k ServiceKind) Validate() error {
	switch k {
	case FuelDelivery, Mechanic:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("service kind", fmt.Errorf("%q is not a known service kind", string(k)))
	}
}

func (k ServiceKind) String() string {
	return string(k)
}
