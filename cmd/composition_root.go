package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	httpin "fieldops/internal/adapters/in/http"
	kafkain "fieldops/internal/adapters/in/kafka"
	"fieldops/internal/adapters/out/candidates"
	kafkaout "fieldops/internal/adapters/out/kafka"
	"fieldops/internal/adapters/out/memory"
	"fieldops/internal/adapters/out/metrics"
	"fieldops/internal/adapters/out/notify"
	"fieldops/internal/adapters/out/postgres"
	"fieldops/internal/adapters/out/postgres/agentrepo"
	"fieldops/internal/adapters/out/postgres/orderrepo"
	"fieldops/internal/adapters/out/timer"
	"fieldops/internal/adapters/out/ws"
	"fieldops/internal/core/application/assignment"
	"fieldops/internal/core/application/usecases/commands"
	"fieldops/internal/core/application/usecases/queries"
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/services"
	"fieldops/internal/core/ports"
	"fieldops/internal/jobs"
	"fieldops/internal/pkg/clock"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot builds the object graph of the service from Config.
type CompositionRoot struct {
	config Config
	logger *slog.Logger
	clock  clock.Clock
	policy assignment.Policy

	gormDB      *gorm.DB
	redisClient *redis.Client
	orders      ports.OrderStore
	agents      ports.AgentRepository

	registry   *prometheus.Registry
	hub        *ws.Hub
	publisher  *kafkaout.EventPublisher
	localTimer *timer.LocalTimer
	redisTimer *timer.RedisTimer

	coordinator *assignment.Coordinator
	gateway     *assignment.Gateway
}

// NewCompositionRoot connects to the configured backends and wires the
// assignment core. Close releases what it opened.
func NewCompositionRoot(ctx context.Context, config Config, logger *slog.Logger) (*CompositionRoot, error) {
	policy, err := assignment.NewPolicy(
		config.AssignmentMaxAttempts,
		config.AssignmentAcceptanceWindow,
		config.AssignmentRetryDelay,
	)
	if err != nil {
		return nil, fmt.Errorf("assignment policy: %w", err)
	}

	c := &CompositionRoot{
		config:   config,
		logger:   logger,
		clock:    clock.System{},
		policy:   policy,
		registry: prometheus.NewRegistry(),
		hub:      ws.NewHub(logger),
	}

	if err := c.openStores(ctx); err != nil {
		return nil, errors.Join(err, c.Close())
	}

	sink, err := c.notificationSink()
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	assignmentTimer, err := c.assignmentTimer(ctx)
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	source := candidates.NewRankedSource(c.agents, services.NewCandidateRanker())
	c.coordinator = assignment.NewCoordinator(c.orders, source, assignmentTimer, sink, c.clock, policy, logger)
	c.gateway = assignment.NewGateway(c.orders, c.coordinator, assignmentTimer, sink, c.clock, logger)

	return c, nil
}

func (c *CompositionRoot) openStores(ctx context.Context) error {
	if !c.config.PostgresEnabled() {
		c.logger.WarnContext(ctx, "DB_HOST is not set, orders and agents are kept in memory")
		orders := memory.NewOrderStore()
		c.orders = orders
		c.agents = memory.NewAgentRepository(orders)
		return nil
	}

	db, err := postgres.Open(c.config.Postgres())
	if err != nil {
		return err
	}
	c.gormDB = db
	c.orders = orderrepo.NewGormOrderStore(db)
	c.agents = agentrepo.NewGormAgentRepository(db)
	return nil
}

func (c *CompositionRoot) notificationSink() (ports.NotificationSink, error) {
	if err := c.registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	metricsSink, err := metrics.NewSink(c.registry)
	if err != nil {
		return nil, err
	}

	sinks := []ports.NotificationSink{notify.NewLogSink(c.logger), metricsSink, c.hub}
	if c.config.KafkaEnabled() {
		writer := kafkaout.NewAsyncWriter(c.config.KafkaBrokers, c.config.KafkaAssignmentEventsTopic, c.logger)
		c.publisher = kafkaout.NewEventPublisher(writer, c.logger)
		sinks = append(sinks, c.publisher)
	}
	return notify.NewFanout(sinks...), nil
}

// assignmentTimer builds the timer. Its expiry handler resolves the
// coordinator lazily since the coordinator itself needs the timer.
func (c *CompositionRoot) assignmentTimer(ctx context.Context) (ports.AssignmentTimer, error) {
	handler := ports.ExpiryHandlerFunc(func(ctx context.Context, orderID kernel.UUID, attempt int) error {
		return c.coordinator.OnTimerExpired(ctx, orderID, attempt)
	})

	if !c.config.RedisEnabled() {
		c.localTimer = timer.NewLocalTimer(handler, c.logger)
		return c.localTimer, nil
	}

	c.redisClient = redis.NewClient(&redis.Options{Addr: c.config.RedisAddr})
	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", c.config.RedisAddr, err)
	}
	c.redisTimer = timer.NewRedisTimer(c.redisClient, handler, c.clock, c.logger)
	return c.redisTimer, nil
}

// Coordinator returns the assignment coordinator.
func (c *CompositionRoot) Coordinator() *assignment.Coordinator {
	return c.coordinator
}

func (c *CompositionRoot) CreateCreateAgentCommandHandler() commands.CreateAgentCommandHandler {
	return commands.NewCreateAgentCommandHandler(c.agents)
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orders, c.coordinator, c.clock)
}

func (c *CompositionRoot) CreateAcceptOfferCommandHandler() commands.AcceptOfferCommandHandler {
	return commands.NewAcceptOfferCommandHandler(c.gateway)
}

func (c *CompositionRoot) CreateDeclineOfferCommandHandler() commands.DeclineOfferCommandHandler {
	return commands.NewDeclineOfferCommandHandler(c.gateway)
}

func (c *CompositionRoot) CreateStartServiceCommandHandler() commands.StartServiceCommandHandler {
	return commands.NewStartServiceCommandHandler(c.coordinator)
}

func (c *CompositionRoot) CreateCompleteOrderCommandHandler() commands.CompleteOrderCommandHandler {
	return commands.NewCompleteOrderCommandHandler(c.coordinator)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.coordinator)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.orders, c.clock, c.policy.AcceptanceWindow)
}

func (c *CompositionRoot) CreateGetUnresolvedOrdersQueryHandler() queries.GetUnresolvedOrdersQueryHandler {
	return queries.NewGetUnresolvedOrdersQueryHandler(c.orders, c.clock, c.policy.AcceptanceWindow)
}

func (c *CompositionRoot) CreateGetAllAgentsQueryHandler() queries.GetAllAgentsQueryHandler {
	return queries.NewGetAllAgentsQueryHandler(c.agents)
}

// Router builds the HTTP router and publishes the API document.
func (c *CompositionRoot) Router(ctx context.Context) (*echo.Echo, error) {
	doc, err := httpin.LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}
	if err := httpin.RegisterSwagger(doc); err != nil {
		return nil, err
	}

	server := httpin.NewServer(httpin.Handlers{
		CreateAgent:         c.CreateCreateAgentCommandHandler(),
		CreateOrder:         c.CreateCreateOrderCommandHandler(),
		AcceptOffer:         c.CreateAcceptOfferCommandHandler(),
		DeclineOffer:        c.CreateDeclineOfferCommandHandler(),
		StartService:        c.CreateStartServiceCommandHandler(),
		CompleteOrder:       c.CreateCompleteOrderCommandHandler(),
		CancelOrder:         c.CreateCancelOrderCommandHandler(),
		GetOrder:            c.CreateGetOrderQueryHandler(),
		GetUnresolvedOrders: c.CreateGetUnresolvedOrdersQueryHandler(),
		GetAllAgents:        c.CreateGetAllAgentsQueryHandler(),
	}, c.hub, c.clock, c.policy.AcceptanceWindow, c.logger)

	return httpin.NewRouter(server, c.MetricsHandler(), c.logger), nil
}

// MetricsHandler serves the service's Prometheus registry.
func (c *CompositionRoot) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// JobManager returns the background jobs for the configured backends.
func (c *CompositionRoot) JobManager() *jobs.JobManager {
	scheduled := []jobs.Job{
		jobs.NewAssignmentJob(c.orders, c.coordinator, c.logger),
		jobs.NewOfferExpiryJob(c.orders, c.coordinator, c.clock,
			c.policy.AcceptanceWindow, c.config.AssignmentSweepSchedule, c.logger),
	}
	if c.redisTimer != nil {
		scheduled = append(scheduled, jobs.NewTimerPollJob(c.redisTimer, c.clock, c.logger))
	}
	return jobs.NewJobManager(c.logger, scheduled...)
}

// OrderCreatedConsumer returns the Kafka intake consumer, or nil when Kafka
// is disabled.
func (c *CompositionRoot) OrderCreatedConsumer() *kafkain.OrderCreatedConsumer {
	if !c.config.KafkaEnabled() {
		return nil
	}
	reader := kafkain.NewReader(c.config.KafkaBrokers, c.config.KafkaConsumerGroup, c.config.KafkaOrderCreatedTopic)
	return kafkain.NewOrderCreatedConsumer(reader, c.coordinator, c.logger)
}

// Close stops the in-process timer and releases every connection.
func (c *CompositionRoot) Close() error {
	var errs []error
	if c.localTimer != nil {
		c.localTimer.Stop()
	}
	c.hub.Close()
	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}
	if c.redisClient != nil {
		errs = append(errs, c.redisClient.Close())
	}
	if c.gormDB != nil {
		sqlDB, err := c.gormDB.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

// Migrate creates or updates the database schema.
func Migrate(config Config) error {
	if !config.PostgresEnabled() {
		return errors.New("DB_HOST is required to migrate")
	}

	db, err := postgres.Open(config.Postgres())
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return postgres.Migrate(db)
}
