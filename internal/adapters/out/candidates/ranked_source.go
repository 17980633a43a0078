// Package candidates supplies the coordinator with the next agent to offer
// an order to.
package candidates

import (
	"context"
	"fmt"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/core/domain/services"
	"fieldops/internal/core/ports"
)

// RankedSource reads the available agents for the order's service kind and
// returns the nearest one that has not been offered the order yet.
type RankedSource struct {
	agents ports.AgentRepository
	ranker services.CandidateRanker
}

// NewRankedSource returns a source reading agents from repo.
func NewRankedSource(repo ports.AgentRepository, ranker services.CandidateRanker) *RankedSource {
	return &RankedSource{agents: repo, ranker: ranker}
}

// NextCandidate implements ports.CandidateAgentSource.
func (s *RankedSource) NextCandidate(ctx context.Context, o *order.Order, exclude []kernel.UUID) (kernel.UUID, bool, error) {
	available, err := s.agents.GetAllAvailable(ctx, o.Kind())
	if err != nil {
		return kernel.UUID{}, false, fmt.Errorf("load available agents: %w", err)
	}

	ranked, err := s.ranker.Rank(o, available)
	if err != nil {
		return kernel.UUID{}, false, fmt.Errorf("rank agents: %w", err)
	}

	for _, a := range ranked {
		if !kernel.ContainsUUID(exclude, a.ID()) {
			return a.ID(), true, nil
		}
	}
	return kernel.UUID{}, false, nil
}
