// Package kernel holds the value objects shared by every aggregate of the
// marketplace: UUID identifiers, geographic Location with haversine distance,
// and the ServiceKind a customer requests and an agent offers.
//
// All of them are immutable and reject their zero value through Validate.
package kernel
