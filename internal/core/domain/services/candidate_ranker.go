package services

import (
	"cmp"
	"slices"
	"time"

	"fieldops/internal/core/domain/model/agent"
	"fieldops/internal/core/domain/model/order"
)

// CandidateRanker is a domain service that turns a pool of agents into the
// ordered candidate list for one order.
//
// Business rules:
//   - Only agents that perform the order's service kind are candidates
//   - Candidates are ordered by estimated travel time, shortest first
//   - Ties are broken by agent ID so the ordering is deterministic
//
// Example usage:
//
//	ranker := services.NewCandidateRanker()
//	ranked, err := ranker.Rank(o, agents)
//	// ranked[0] is the nearest agent able to serve o
type CandidateRanker struct{}

// NewCandidateRanker creates a new CandidateRanker instance.
func NewCandidateRanker() CandidateRanker {
	return CandidateRanker{}
}

type rankedAgent struct {
	agent *agent.Agent
	eta   time.Duration
}

// Rank returns the eligible agents for o, nearest first.
//
// Returns:
//   - []*agent.Agent: eligible agents, possibly empty
//   - error: validation error if the order or any agent is invalid
func (r CandidateRanker) Rank(o *order.Order, agents []*agent.Agent) ([]*agent.Agent, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	ranked := make([]rankedAgent, 0, len(agents))
	for _, a := range agents {
		if err := a.Validate(); err != nil {
			return nil, err
		}

		if !a.CanServe(o.Kind()) {
			continue
		}

		eta, err := a.CalculateTimeToLocation(o.Location())
		if err != nil {
			return nil, err
		}

		ranked = append(ranked, rankedAgent{agent: a, eta: eta})
	}

	slices.SortFunc(ranked, func(x, y rankedAgent) int {
		if c := cmp.Compare(x.eta, y.eta); c != 0 {
			return c
		}
		return cmp.Compare(x.agent.ID().String(), y.agent.ID().String())
	})

	result := make([]*agent.Agent, len(ranked))
	for i, ra := range ranked {
		result[i] = ra.agent
	}
	return result, nil
}
