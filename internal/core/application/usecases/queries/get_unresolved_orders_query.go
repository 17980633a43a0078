package queries

import (
	"errors"

	"fieldops/internal/pkg/guard"
)

var ErrGetUnresolvedOrdersQueryIsNotConstructed = errors.New(
	"GetUnresolvedOrdersQuery must be created via NewGetUnresolvedOrdersQuery constructor",
)

// GetUnresolvedOrdersQuery lists every order that has not reached a
// terminal status, for the dispatcher's board.
type GetUnresolvedOrdersQuery struct {
	guard guard.ConstructorGuard
}

// NewGetUnresolvedOrdersQuery creates the parameterless query.
func NewGetUnresolvedOrdersQuery() GetUnresolvedOrdersQuery {
	return GetUnresolvedOrdersQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetUnresolvedOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetUnresolvedOrdersQueryIsNotConstructed)
}
