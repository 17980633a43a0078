// Package agentrepo persists agent aggregates in PostgreSQL through GORM.
package agentrepo

import (
	"fieldops/internal/core/domain/model/agent"
	"fieldops/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AgentDTO is the row layout of the agents table.
type AgentDTO struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name     string         `gorm:"not null"`
	SpeedKmh int            `gorm:"not null"`
	Location LocationDTO    `gorm:"embedded;embeddedPrefix:location_"`
	Kinds    pq.StringArray `gorm:"type:text[];not null"`
}

// TableName overrides GORM's default naming.
func (AgentDTO) TableName() string {
	return "agents"
}

// LocationDTO holds the agent's last reported position.
type LocationDTO struct {
	Lat float64 `gorm:"not null"`
	Lng float64 `gorm:"not null"`
}

func fromDomain(a *agent.Agent) AgentDTO {
	kinds := make(pq.StringArray, 0, len(a.Kinds()))
	for _, k := range a.Kinds() {
		kinds = append(kinds, string(k))
	}

	return AgentDTO{
		ID:       a.ID().Bytes(),
		Name:     a.Name(),
		SpeedKmh: a.SpeedKmh(),
		Location: LocationDTO{
			Lat: a.Location().Latitude(),
			Lng: a.Location().Longitude(),
		},
		Kinds: kinds,
	}
}

func toDomain(dto AgentDTO) (*agent.Agent, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	loc, err := kernel.NewLocation(dto.Location.Lat, dto.Location.Lng)
	if err != nil {
		return nil, err
	}

	kinds := make([]kernel.ServiceKind, 0, len(dto.Kinds))
	for _, s := range dto.Kinds {
		k, parseErr := kernel.ParseServiceKind(s)
		if parseErr != nil {
			return nil, parseErr
		}
		kinds = append(kinds, k)
	}

	return agent.RestoreAgent(id, dto.Name, dto.SpeedKmh, loc, kinds)
}
