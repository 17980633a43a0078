package orderrepo

import (
	"context"
	"errors"
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderStore implements ports.OrderStore on PostgreSQL.
type GormOrderStore struct {
	db *gorm.DB
}

// NewGormOrderStore creates a new GORM order store.
func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

// Add saves a new order.
func (r *GormOrderStore) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Get retrieves an order by ID.
func (r *GormOrderStore) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// ConditionalUpdate applies change with one UPDATE ... WHERE ... RETURNING.
// The WHERE clause carries cond together with the statuses from which the
// change is a legal transition, so the database never holds an illegal
// state even when two hosts race.
func (r *GormOrderStore) ConditionalUpdate(
	ctx context.Context,
	id kernel.UUID,
	cond order.Condition,
	change order.Change,
) (bool, *order.Order, error) {
	if err := id.Validate(); err != nil {
		return false, nil, err
	}
	if err := change.Validate(); err != nil {
		return false, nil, err
	}

	from := transitionSources(cond.Statuses, change.Status)
	if len(from) > 0 {
		var updated []OrderDTO
		q := r.db.WithContext(ctx).
			Model(&updated).
			Clauses(clause.Returning{}).
			Where("id = ?", id.Bytes()).
			Where("status IN ?", from)
		q = applyCondition(q, cond)

		result := q.Updates(changeColumns(change))
		if result.Error != nil {
			return false, nil, result.Error
		}
		if result.RowsAffected == 1 && len(updated) == 1 {
			o, err := toDomain(updated[0])
			if err != nil {
				return false, nil, err
			}
			return true, o, nil
		}
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return false, nil, err
	}
	if current.Satisfies(cond) {
		// Matched everything except a legal transition.
		if err := current.Status().ValidateTransition(change.Status); err != nil {
			return false, nil, err
		}
	}
	return false, current, nil
}

// ListByStatus returns up to limit orders in status, oldest first.
func (r *GormOrderStore) ListByStatus(ctx context.Context, status order.Status, limit int) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("status = ?", int(status)).
		Order("created_at").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}
	return toDomainAll(dtos)
}

// ListOffersExpiredBefore returns offered orders whose offer was made at or
// before instant, oldest offer first.
func (r *GormOrderStore) ListOffersExpiredBefore(ctx context.Context, instant time.Time, limit int) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("status = ?", int(order.Offered)).
		Where("offered_at <= ?", instant).
		Order("offered_at").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}
	return toDomainAll(dtos)
}

func transitionSources(statuses []order.Status, to order.Status) []int {
	if len(statuses) == 0 {
		statuses = order.NonTerminalStatuses()
	}

	from := make([]int, 0, len(statuses))
	for _, s := range statuses {
		if s.CanTransitionTo(to) {
			from = append(from, int(s))
		}
	}
	return from
}

func applyCondition(q *gorm.DB, cond order.Condition) *gorm.DB {
	if cond.Attempt != nil {
		q = q.Where("attempt_count = ?", *cond.Attempt)
	}
	if cond.AgentID != nil {
		q = q.Where("agent_id = ?", cond.AgentID.Bytes())
	}
	if cond.NotOfferedTo != nil {
		q = q.Where("NOT (? = ANY(offered_agents))", cond.NotOfferedTo.String())
	}
	if cond.OfferedBefore != nil {
		q = q.Where("offered_at IS NOT NULL AND offered_at <= ?", *cond.OfferedBefore)
	}
	return q
}

func changeColumns(change order.Change) map[string]any {
	columns := map[string]any{
		"status":     int(change.Status),
		"agent_id":   nil,
		"offered_at": nil,
	}
	if change.AgentID != nil {
		columns["agent_id"] = change.AgentID.Bytes()
	}
	if change.OfferedAt != nil {
		columns["offered_at"] = *change.OfferedAt
	}
	if change.AcceptedAt != nil {
		columns["accepted_at"] = *change.AcceptedAt
	}
	if change.RecordOffer {
		columns["attempt_count"] = gorm.Expr("attempt_count + 1")
		columns["offered_agents"] = gorm.Expr("array_append(offered_agents, ?)", change.AgentID.String())
	}
	return columns
}

func toDomainAll(dtos []OrderDTO) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
