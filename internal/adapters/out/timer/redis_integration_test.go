package timer_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fieldops/internal/adapters/out/timer"
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/pkg/clock"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RedisTimerIntegrationTestSuite struct {
	suite.Suite
	container testcontainers.Container
	client    *redis.Client
	ctx       context.Context
}

func (s *RedisTimerIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(s.ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(s.ctx, "6379/tcp")
	s.Require().NoError(err)

	s.client = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	s.Require().NoError(s.client.Ping(s.ctx).Err())
}

func (s *RedisTimerIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *RedisTimerIntegrationTestSuite) SetupTest() {
	s.Require().NoError(s.client.FlushDB(s.ctx).Err())
}

type collectingHandler struct {
	mu    sync.Mutex
	fired []firing
}

func (h *collectingHandler) OnTimerExpired(_ context.Context, orderID kernel.UUID, attempt int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fired = append(h.fired, firing{orderID: orderID, attempt: attempt})
	return nil
}

func (s *RedisTimerIntegrationTestSuite) newTimer(handler *collectingHandler) (*timer.RedisTimer, *clock.Manual) {
	clk := clock.NewManual(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	return timer.NewRedisTimer(s.client, handler, clk, slog.Default()), clk
}

func (s *RedisTimerIntegrationTestSuite) TestFireDue_DeliversOnlyDueDeadlines() {
	handler := &collectingHandler{}
	tm, clk := s.newTimer(handler)

	early, late := kernel.NewUUID(), kernel.NewUUID()
	s.Require().NoError(tm.Schedule(s.ctx, early, 1, time.Minute))
	s.Require().NoError(tm.Schedule(s.ctx, late, 2, 3*time.Minute))

	fired, err := tm.FireDue(s.ctx, clk.Now().Add(2*time.Minute))
	s.Require().NoError(err)
	s.Equal(1, fired)
	s.Require().Len(handler.fired, 1)
	s.True(handler.fired[0].orderID.IsEqual(early))
	s.Equal(1, handler.fired[0].attempt)

	remaining, err := s.client.ZCard(s.ctx, timer.DeadlinesKey).Result()
	s.Require().NoError(err)
	s.Equal(int64(1), remaining)

	fired, err = tm.FireDue(s.ctx, clk.Now().Add(2*time.Minute))
	s.Require().NoError(err)
	s.Equal(0, fired)
}

func (s *RedisTimerIntegrationTestSuite) TestSchedule_ReplacesPreviousDeadline() {
	handler := &collectingHandler{}
	tm, clk := s.newTimer(handler)

	orderID := kernel.NewUUID()
	s.Require().NoError(tm.Schedule(s.ctx, orderID, 1, time.Minute))
	s.Require().NoError(tm.Schedule(s.ctx, orderID, 2, 2*time.Minute))

	count, err := s.client.ZCard(s.ctx, timer.DeadlinesKey).Result()
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	fired, err := tm.FireDue(s.ctx, clk.Now().Add(90*time.Second))
	s.Require().NoError(err)
	s.Equal(0, fired)

	fired, err = tm.FireDue(s.ctx, clk.Now().Add(2*time.Minute))
	s.Require().NoError(err)
	s.Equal(1, fired)
	s.Equal(2, handler.fired[0].attempt)

	exists, err := s.client.HExists(s.ctx, timer.TimersKey, orderID.String()).Result()
	s.Require().NoError(err)
	s.False(exists)
}

func (s *RedisTimerIntegrationTestSuite) TestCancel_RemovesDeadline() {
	handler := &collectingHandler{}
	tm, clk := s.newTimer(handler)

	orderID := kernel.NewUUID()
	s.Require().NoError(tm.Schedule(s.ctx, orderID, 1, time.Minute))
	s.Require().NoError(tm.Cancel(s.ctx, orderID))
	s.Require().NoError(tm.Cancel(s.ctx, orderID))

	fired, err := tm.FireDue(s.ctx, clk.Now().Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(0, fired)
	s.Empty(handler.fired)
}

func (s *RedisTimerIntegrationTestSuite) TestFireDue_ConcurrentPollersClaimOnce() {
	handler := &collectingHandler{}
	tm, clk := s.newTimer(handler)

	for i := 0; i < 250; i++ {
		s.Require().NoError(tm.Schedule(s.ctx, kernel.NewUUID(), 1, time.Second))
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tm.FireDue(s.ctx, clk.Now().Add(time.Minute))
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.Len(handler.fired, 250)
}

func TestRedisTimerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(RedisTimerIntegrationTestSuite))
}
