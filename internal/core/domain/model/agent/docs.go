// Package agent provides the Agent aggregate: a field worker who can be
// offered fuel-delivery or mechanic orders.
//
// Agents carry identity, travel speed, last known location and the service
// kinds they perform. Availability (whether an agent already holds an
// accepted or active order) is a property of the orders, answered by the
// agent repository, not of the aggregate itself.
package agent
