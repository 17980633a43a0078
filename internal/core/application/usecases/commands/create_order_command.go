package commands

import (
	"errors"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand represents a customer's request for a service at a
// location.
//
// Example:
//
//	loc, _ := kernel.NewLocation(52.52, 13.405)
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), customerID, kernel.FuelDelivery, loc)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	status, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID    kernel.UUID
	customerID kernel.UUID
	kind       kernel.ServiceKind
	location   kernel.Location

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates every field and returns the joined
// errors when any is invalid.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	customerID kernel.UUID,
	kind kernel.ServiceKind,
	location kernel.Location,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCustomerID(customerID),
		cmd.setKind(kind),
		cmd.setLocation(location),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the identifier of the order to create.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CustomerID returns the customer placing the order.
func (c CreateOrderCommand) CustomerID() kernel.UUID {
	return c.customerID
}

// Kind returns the requested service.
func (c CreateOrderCommand) Kind() kernel.ServiceKind {
	return c.kind
}

// Location returns where the service is needed.
func (c CreateOrderCommand) Location() kernel.Location {
	return c.location
}

func (c *CreateOrderCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.orderID = id
	return nil
}

func (c *CreateOrderCommand) setCustomerID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.customerID = id
	return nil
}

func (c *CreateOrderCommand) setKind(kind kernel.ServiceKind) error {
	if err := kind.Validate(); err != nil {
		return err
	}

	c.kind = kind
	return nil
}

func (c *CreateOrderCommand) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.location = location
	return nil
}
