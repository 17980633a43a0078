// Package assignment implements the offer cycle of an order: offering it to
// one candidate agent at a time for a bounded acceptance window, accepting
// or declining, timing out and reassigning, up to a retry limit.
//
// Coordinator owns the cycle; Gateway is the entry point for agents. Both
// are stateless: every transition is one compare-and-swap through
// ports.OrderStore, which is the only serialization point, so they can run
// on several hosts at once.
package assignment
