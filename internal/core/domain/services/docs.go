// Package services provides domain services that work across aggregates.
//
// The package includes:
//   - CandidateRanker: orders eligible agents for an order, nearest first
//
// Domain services hold no state and never touch storage; callers load the
// aggregates and pass them in.
package services
