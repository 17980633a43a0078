package agentrepo

import (
	"context"
	"errors"

	"fieldops/internal/core/domain/model/agent"
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/pkg/errs"

	"gorm.io/gorm"
)

// busyAgentSubquery matches agents attached to an order that still needs
// them. It reads the orders table owned by orderrepo.
const busyAgentSubquery = "NOT EXISTS (SELECT 1 FROM orders o WHERE o.agent_id = agents.id AND o.status IN ?)"

// GormAgentRepository implements ports.AgentRepository using GORM.
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new GORM agent repository.
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// Add saves a new agent.
func (r *GormAgentRepository) Add(ctx context.Context, aggregate *agent.Agent) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Update saves an existing agent.
func (r *GormAgentRepository) Update(ctx context.Context, aggregate *agent.Agent) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&AgentDTO{}).Where("id = ?", dto.ID).Updates(map[string]any{
		"name":         dto.Name,
		"speed_kmh":    dto.SpeedKmh,
		"location_lat": dto.Location.Lat,
		"location_lng": dto.Location.Lng,
		"kinds":        dto.Kinds,
	})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("agent", aggregate.ID().String())
	}
	return nil
}

// Get retrieves an agent by ID.
func (r *GormAgentRepository) Get(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto AgentDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("agent", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAll returns every agent ordered by name.
func (r *GormAgentRepository) GetAll(ctx context.Context) ([]*agent.Agent, error) {
	var dtos []AgentDTO
	if err := r.db.WithContext(ctx).Order("name, id").Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toDomainAll(dtos)
}

// GetAllAvailable returns agents performing kind that hold no offered,
// accepted or active order.
func (r *GormAgentRepository) GetAllAvailable(ctx context.Context, kind kernel.ServiceKind) ([]*agent.Agent, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}

	busy := make([]int, 0, 3)
	for _, s := range order.NonTerminalStatuses() {
		if s.HoldsAgent() {
			busy = append(busy, int(s))
		}
	}

	var dtos []AgentDTO
	err := r.db.WithContext(ctx).
		Where("? = ANY(kinds)", string(kind)).
		Where(busyAgentSubquery, busy).
		Order("name, id").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}
	return toDomainAll(dtos)
}

func toDomainAll(dtos []AgentDTO) ([]*agent.Agent, error) {
	agents := make([]*agent.Agent, 0, len(dtos))
	for _, dto := range dtos {
		a, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}
