// Package ports declares the outbound interfaces of the assignment core:
// order and agent persistence, the candidate source, the acceptance timer
// and notification sinks. Adapters under internal/adapters/out implement them.
package ports
