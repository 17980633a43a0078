// Package order holds the Order aggregate of the assignment workflow and the
// value types around it.
//
// The package includes:
//   - Order: the aggregate root with its Assignment projection
//   - Status: the state machine created -> offered -> accepted -> active -> completed,
//     with exhausted and cancelled as the other terminal outcomes
//   - Condition and Change: the precondition and the write of one
//     compare-and-swap, which is how every transition is persisted
//   - Offer, Countdown and Urgency: derived views of the live offer
//   - Event: lifecycle notifications emitted by the workflow
//
// Key business rules:
//   - At most one agent is attached to an order at any time
//   - The attempt counter grows by one per offer and never goes back
//   - Terminal orders are never mutated again
package order
