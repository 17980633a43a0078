// Package timer provides the acceptance timers behind ports.AssignmentTimer.
//
// LocalTimer keeps one time.AfterFunc per order in process memory and suits
// a single host. RedisTimer keeps deadlines in a redis sorted set so any
// host can fire them and they survive restarts; a poll job calls FireDue.
//
// Both deliver at least once at best effort. The expiry handler re-reads the
// order before acting, so a late or duplicated fire is harmless.
package timer
