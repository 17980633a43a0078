package memory_test

import (
	"testing"

	"fieldops/internal/adapters/out/memory"
	"fieldops/internal/core/domain/model/agent"
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAgent(t *testing.T, name string, kinds ...kernel.ServiceKind) *agent.Agent {
	t.Helper()
	loc, err := kernel.NewLocation(48.14, 11.58)
	require.NoError(t, err)
	a, err := agent.NewAgent(kernel.NewUUID(), name, 40, loc, kinds)
	require.NoError(t, err)
	return a
}

func TestAgentRepository(t *testing.T) {
	orders := memory.NewOrderStore()
	repo := memory.NewAgentRepository(orders)

	busy := newAgent(t, "busy", kernel.Mechanic)
	idle := newAgent(t, "idle", kernel.Mechanic)
	tanker := newAgent(t, "tanker", kernel.FuelDelivery)
	for _, a := range []*agent.Agent{tanker, idle, busy} {
		require.NoError(t, repo.Add(t.Context(), a))
	}

	o := newOrder(t, baseTime)
	require.NoError(t, orders.Add(t.Context(), o))
	_, _, err := orders.ConditionalUpdate(t.Context(), o.ID(), order.Condition{}, order.OfferChange(busy.ID(), baseTime))
	require.NoError(t, err)

	t.Run("should list all agents by name", func(t *testing.T) {
		all, err := repo.GetAll(t.Context())

		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "busy", all[0].Name())
		assert.Equal(t, "tanker", all[2].Name())
	})

	t.Run("should skip busy agents and other kinds", func(t *testing.T) {
		available, err := repo.GetAllAvailable(t.Context(), kernel.Mechanic)

		require.NoError(t, err)
		require.Len(t, available, 1)
		assert.True(t, available[0].IsEqual(idle))
	})

	t.Run("should update and get", func(t *testing.T) {
		loc, err := kernel.NewLocation(1, 1)
		require.NoError(t, err)
		require.NoError(t, idle.UpdateLocation(loc))
		require.NoError(t, repo.Update(t.Context(), idle))

		got, err := repo.Get(t.Context(), idle.ID())
		require.NoError(t, err)
		assert.Equal(t, loc, got.Location())

		_, err = repo.Get(t.Context(), kernel.NewUUID())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
		require.ErrorIs(t, repo.Update(t.Context(), newAgent(t, "ghost", kernel.Mechanic)), errs.ErrObjectNotFound)
	})
}
