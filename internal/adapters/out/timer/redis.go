package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/ports"
	"fieldops/internal/pkg/clock"

	"github.com/redis/go-redis/v9"
)

const (
	DeadlinesKey = "fieldops:offer-deadlines"
	TimersKey    = "fieldops:offer-timers"

	claimBatchSize = 100
)

// KEYS[1] deadlines zset, KEYS[2] timers hash
// ARGV[1] order id, ARGV[2] member, ARGV[3] deadline in unix ms
var armScript = redis.NewScript(`
local previous = redis.call('hget', KEYS[2], ARGV[1])
if previous then
    redis.call('zrem', KEYS[1], previous)
end
redis.call('hset', KEYS[2], ARGV[1], ARGV[2])
redis.call('zadd', KEYS[1], ARGV[3], ARGV[2])
return 1
`)

// KEYS[1] deadlines zset, KEYS[2] timers hash
// ARGV[1] order id
var cancelScript = redis.NewScript(`
local previous = redis.call('hget', KEYS[2], ARGV[1])
if not previous then
    return 0
end
redis.call('zrem', KEYS[1], previous)
redis.call('hdel', KEYS[2], ARGV[1])
return 1
`)

// KEYS[1] deadlines zset, KEYS[2] timers hash
// ARGV[1] now in unix ms, ARGV[2] batch size
//
// Claimed members are removed before they are returned, so a deadline is
// handed to one host only.
var claimScript = redis.NewScript(`
local due = redis.call('zrangebyscore', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
for _, member in ipairs(due) do
    redis.call('zrem', KEYS[1], member)
    local orderId = string.match(member, '^(.*):%d+$')
    if orderId and redis.call('hget', KEYS[2], orderId) == member then
        redis.call('hdel', KEYS[2], orderId)
    end
end
return due
`)

// RedisTimer is a ports.AssignmentTimer backed by a redis sorted set.
// Deadlines fire when FireDue is polled at or after them.
type RedisTimer struct {
	client  redis.UniversalClient
	handler ports.ExpiryHandler
	clock   clock.Clock
	logger  *slog.Logger
}

// NewRedisTimer returns a timer storing deadlines through client.
func NewRedisTimer(client redis.UniversalClient, handler ports.ExpiryHandler, clk clock.Clock, logger *slog.Logger) *RedisTimer {
	return &RedisTimer{
		client:  client,
		handler: handler,
		clock:   clk,
		logger:  logger.With("component", "redis_timer"),
	}
}

// Schedule stores a deadline for the order, replacing any previous one.
func (r *RedisTimer) Schedule(ctx context.Context, orderID kernel.UUID, attempt int, d time.Duration) error {
	deadline := r.clock.Now().Add(d).UnixMilli()

	err := armScript.Run(ctx, r.client,
		[]string{DeadlinesKey, TimersKey},
		orderID.String(), member(orderID, attempt), deadline,
	).Err()
	if err != nil {
		return fmt.Errorf("arm offer timer: %w", err)
	}
	return nil
}

// Cancel removes the order's deadline if one is stored.
func (r *RedisTimer) Cancel(ctx context.Context, orderID kernel.UUID) error {
	err := cancelScript.Run(ctx, r.client,
		[]string{DeadlinesKey, TimersKey},
		orderID.String(),
	).Err()
	if err != nil {
		return fmt.Errorf("cancel offer timer: %w", err)
	}
	return nil
}

// FireDue claims every deadline at or before now and delivers it to the
// expiry handler. It returns how many deadlines were claimed.
func (r *RedisTimer) FireDue(ctx context.Context, now time.Time) (int, error) {
	fired := 0
	for {
		members, err := claimScript.Run(ctx, r.client,
			[]string{DeadlinesKey, TimersKey},
			now.UnixMilli(), claimBatchSize,
		).StringSlice()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return fired, nil
			}
			return fired, fmt.Errorf("claim due offer timers: %w", err)
		}

		for _, m := range members {
			orderID, attempt, err := parseMember(m)
			if err != nil {
				r.logger.WarnContext(ctx, "Skipping malformed timer entry", "member", m, "error", err)
				continue
			}
			if err := r.handler.OnTimerExpired(ctx, orderID, attempt); err != nil {
				r.logger.ErrorContext(ctx, "Expiry handler failed", "order_id", orderID, "attempt", attempt, "error", err)
			}
		}
		fired += len(members)

		if len(members) < claimBatchSize {
			return fired, nil
		}
	}
}

func member(orderID kernel.UUID, attempt int) string {
	return orderID.String() + ":" + strconv.Itoa(attempt)
}

func parseMember(m string) (kernel.UUID, int, error) {
	i := strings.LastIndexByte(m, ':')
	if i < 0 {
		return kernel.UUID{}, 0, fmt.Errorf("missing attempt separator in %q", m)
	}

	orderID, err := kernel.UUIDFromString(m[:i])
	if err != nil {
		return kernel.UUID{}, 0, err
	}

	attempt, err := strconv.Atoi(m[i+1:])
	if err != nil {
		return kernel.UUID{}, 0, fmt.Errorf("invalid attempt in %q: %w", m, err)
	}
	return orderID, attempt, nil
}
