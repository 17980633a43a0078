// Package orderrepo persists order aggregates in PostgreSQL through GORM.
// The assignment fields live on the order row itself so that every
// workflow transition is a single conditional UPDATE.
package orderrepo

import (
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OrderDTO is the row layout of the orders table.
type OrderDTO struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CustomerID    uuid.UUID      `gorm:"type:uuid;not null"`
	Kind          string         `gorm:"type:varchar(32);not null"`
	Location      LocationDTO    `gorm:"embedded;embeddedPrefix:location_"`
	Status        int            `gorm:"not null;index"`
	AgentID       *uuid.UUID     `gorm:"type:uuid;index"`
	OfferedAt     *time.Time     `gorm:"index"`
	AcceptedAt    *time.Time
	AttemptCount  int            `gorm:"not null;default:0"`
	OfferedAgents pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	CreatedAt     time.Time      `gorm:"not null;index"`
}

// TableName overrides GORM's default naming.
func (OrderDTO) TableName() string {
	return "orders"
}

// LocationDTO holds the service location coordinates.
type LocationDTO struct {
	Lat float64 `gorm:"not null"`
	Lng float64 `gorm:"not null"`
}

func fromDomain(o *order.Order) OrderDTO {
	a := o.Assignment()

	offered := make(pq.StringArray, len(a.OfferedAgents))
	for i, id := range a.OfferedAgents {
		offered[i] = id.String()
	}

	return OrderDTO{
		ID:         o.ID().Bytes(),
		CustomerID: o.CustomerID().Bytes(),
		Kind:       string(o.Kind()),
		Location: LocationDTO{
			Lat: o.Location().Latitude(),
			Lng: o.Location().Longitude(),
		},
		Status:        int(o.Status()),
		AgentID:       uuidPtr(a.AgentID),
		OfferedAt:     a.OfferedAt,
		AcceptedAt:    a.AcceptedAt,
		AttemptCount:  a.AttemptCount,
		OfferedAgents: offered,
		CreatedAt:     o.CreatedAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}

	kind, err := kernel.ParseServiceKind(dto.Kind)
	if err != nil {
		return nil, err
	}

	loc, err := kernel.NewLocation(dto.Location.Lat, dto.Location.Lng)
	if err != nil {
		return nil, err
	}

	var agentID *kernel.UUID
	if dto.AgentID != nil {
		aID, agentErr := kernel.UUIDFromBytes((*dto.AgentID)[:])
		if agentErr != nil {
			return nil, agentErr
		}
		agentID = &aID
	}

	offered := make([]kernel.UUID, 0, len(dto.OfferedAgents))
	for _, s := range dto.OfferedAgents {
		aID, parseErr := kernel.UUIDFromString(s)
		if parseErr != nil {
			return nil, parseErr
		}
		offered = append(offered, aID)
	}

	return order.RestoreOrder(id, customerID, kind, loc, order.Status(dto.Status), order.Assignment{
		AgentID:       agentID,
		OfferedAt:     utc(dto.OfferedAt),
		AcceptedAt:    utc(dto.AcceptedAt),
		AttemptCount:  dto.AttemptCount,
		OfferedAgents: offered,
	}, dto.CreatedAt.UTC())
}

func uuidPtr(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
