package http

import (
	"log/slog"
	"net/http"
	"time"

	"fieldops/internal/core/application/assignment"
	"fieldops/internal/core/application/usecases/commands"
	"fieldops/internal/core/application/usecases/queries"
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/pkg/clock"

	"github.com/labstack/echo/v4"
)

// EventStream subscribes a client connection to the events of one order.
type EventStream interface {
	Serve(w http.ResponseWriter, r *http.Request, orderID kernel.UUID) error
}

// Handlers groups the use cases the server exposes.
type Handlers struct {
	CreateAgent   commands.CreateAgentCommandHandler
	CreateOrder   commands.CreateOrderCommandHandler
	AcceptOffer   commands.AcceptOfferCommandHandler
	DeclineOffer  commands.DeclineOfferCommandHandler
	StartService  commands.StartServiceCommandHandler
	CompleteOrder commands.CompleteOrderCommandHandler
	CancelOrder   commands.CancelOrderCommandHandler

	GetOrder            queries.GetOrderQueryHandler
	GetUnresolvedOrders queries.GetUnresolvedOrdersQueryHandler
	GetAllAgents        queries.GetAllAgentsQueryHandler
}

// Server handles the HTTP API. It coordinates between HTTP handlers and
// application use cases.
type Server struct {
	handlers Handlers
	events   EventStream
	clock    clock.Clock
	window   time.Duration
	logger   *slog.Logger
}

// NewServer creates a server. window is the acceptance window used to
// render the countdown of orders returned by commands.
func NewServer(
	handlers Handlers,
	events EventStream,
	clk clock.Clock,
	window time.Duration,
	logger *slog.Logger,
) *Server {
	return &Server{
		handlers: handlers,
		events:   events,
		clock:    clk,
		window:   window,
		logger:   logger.With("component", "http_server"),
	}
}

// GetAgents handles GET /api/v1/agents - retrieves all agents.
func (s *Server) GetAgents(ctx echo.Context) error {
	agents, err := s.handlers.GetAllAgents.Handle(ctx.Request().Context(), queries.NewGetAllAgentsQuery())
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve agents")
	}

	response := make([]Agent, len(agents))
	for i, a := range agents {
		response[i] = toAgent(a)
	}
	return ctx.JSON(http.StatusOK, response)
}

// CreateAgent handles POST /api/v1/agents - registers a new agent.
func (s *Server) CreateAgent(ctx echo.Context) error {
	var newAgent NewAgent
	if err := ctx.Bind(&newAgent); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}

	location, err := kernel.NewLocation(newAgent.Location.Latitude, newAgent.Location.Longitude)
	if err != nil {
		return s.fail(ctx, err, "Failed to create agent")
	}
	kinds, err := parseKinds(newAgent.Kinds)
	if err != nil {
		return s.fail(ctx, err, "Failed to create agent")
	}

	agentID := kernel.NewUUID()
	cmd, err := commands.NewCreateAgentCommand(agentID, newAgent.Name, newAgent.SpeedKmh, location, kinds)
	if err != nil {
		return s.fail(ctx, err, "Failed to create agent")
	}

	if err := s.handlers.CreateAgent.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to create agent")
	}

	return ctx.JSON(http.StatusCreated, Agent{
		Id:       agentID.Bytes(),
		Name:     newAgent.Name,
		SpeedKmh: newAgent.SpeedKmh,
		Location: toLocation(location),
		Kinds:    newAgent.Kinds,
	})
}

// CreateOrder handles POST /api/v1/orders - places an order and starts
// looking for an agent.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var newOrder NewOrder
	if err := ctx.Bind(&newOrder); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}

	customerID, err := kernel.UUIDFromBytes(newOrder.CustomerId[:])
	if err != nil {
		return s.fail(ctx, err, "Failed to create order")
	}
	kind, err := kernel.ParseServiceKind(newOrder.Kind)
	if err != nil {
		return s.fail(ctx, err, "Failed to create order")
	}
	location, err := kernel.NewLocation(newOrder.Location.Latitude, newOrder.Location.Longitude)
	if err != nil {
		return s.fail(ctx, err, "Failed to create order")
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(orderID, customerID, kind, location)
	if err != nil {
		return s.fail(ctx, err, "Failed to create order")
	}

	status, err := s.handlers.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to create order")
	}

	response := OrderCreated{
		Id:     orderID.Bytes(),
		Status: status.String(),
	}
	if status == order.Exhausted {
		response.Reason = assignment.ErrNoCandidatesAvailable.Error()
	}
	return ctx.JSON(http.StatusCreated, response)
}

// GetOrders handles GET /api/v1/orders - retrieves all unresolved orders.
func (s *Server) GetOrders(ctx echo.Context) error {
	views, err := s.handlers.GetUnresolvedOrders.Handle(ctx.Request().Context(), queries.NewGetUnresolvedOrdersQuery())
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve orders")
	}

	response := make([]Order, len(views))
	for i, v := range views {
		response[i] = toOrder(v)
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetOrder handles GET /api/v1/orders/{orderId} - retrieves one order with
// the countdown of its live offer.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := orderIDParam(ctx)
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve order")
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve order")
	}

	view, err := s.handlers.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve order")
	}
	return ctx.JSON(http.StatusOK, toOrder(view))
}

// AcceptOffer handles POST /api/v1/orders/{orderId}/accept.
func (s *Server) AcceptOffer(ctx echo.Context) error {
	orderID, agentID, err := s.orderAndAgent(ctx)
	if err != nil {
		return s.fail(ctx, err, "Failed to accept offer")
	}

	cmd, err := commands.NewAcceptOfferCommand(orderID, agentID)
	if err != nil {
		return s.fail(ctx, err, "Failed to accept offer")
	}

	o, err := s.handlers.AcceptOffer.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to accept offer")
	}
	return s.respondOrder(ctx, o)
}

// DeclineOffer handles POST /api/v1/orders/{orderId}/decline.
func (s *Server) DeclineOffer(ctx echo.Context) error {
	orderID, agentID, err := s.orderAndAgent(ctx)
	if err != nil {
		return s.fail(ctx, err, "Failed to decline offer")
	}

	cmd, err := commands.NewDeclineOfferCommand(orderID, agentID)
	if err != nil {
		return s.fail(ctx, err, "Failed to decline offer")
	}

	o, err := s.handlers.DeclineOffer.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to decline offer")
	}
	return s.respondOrder(ctx, o)
}

// StartService handles POST /api/v1/orders/{orderId}/start.
func (s *Server) StartService(ctx echo.Context) error {
	orderID, agentID, err := s.orderAndAgent(ctx)
	if err != nil {
		return s.fail(ctx, err, "Failed to start service")
	}

	cmd, err := commands.NewStartServiceCommand(orderID, agentID)
	if err != nil {
		return s.fail(ctx, err, "Failed to start service")
	}

	o, err := s.handlers.StartService.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to start service")
	}
	return s.respondOrder(ctx, o)
}

// CompleteOrder handles POST /api/v1/orders/{orderId}/complete.
func (s *Server) CompleteOrder(ctx echo.Context) error {
	orderID, agentID, err := s.orderAndAgent(ctx)
	if err != nil {
		return s.fail(ctx, err, "Failed to complete order")
	}

	cmd, err := commands.NewCompleteOrderCommand(orderID, agentID)
	if err != nil {
		return s.fail(ctx, err, "Failed to complete order")
	}

	o, err := s.handlers.CompleteOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to complete order")
	}
	return s.respondOrder(ctx, o)
}

// CancelOrder handles POST /api/v1/orders/{orderId}/cancel.
func (s *Server) CancelOrder(ctx echo.Context) error {
	orderID, err := orderIDParam(ctx)
	if err != nil {
		return s.fail(ctx, err, "Failed to cancel order")
	}

	cmd, err := commands.NewCancelOrderCommand(orderID)
	if err != nil {
		return s.fail(ctx, err, "Failed to cancel order")
	}

	o, err := s.handlers.CancelOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to cancel order")
	}
	return s.respondOrder(ctx, o)
}

// StreamOrderEvents handles GET /api/v1/orders/{orderId}/events - upgrades
// to a websocket receiving the order's lifecycle events.
func (s *Server) StreamOrderEvents(ctx echo.Context) error {
	orderID, err := orderIDParam(ctx)
	if err != nil {
		return s.fail(ctx, err, "Failed to subscribe")
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return s.fail(ctx, err, "Failed to subscribe")
	}
	if _, err := s.handlers.GetOrder.Handle(ctx.Request().Context(), query); err != nil {
		return s.fail(ctx, err, "Failed to subscribe")
	}

	// The upgrader has already written the response on failure
	if err := s.events.Serve(ctx.Response(), ctx.Request(), orderID); err != nil {
		s.logger.WarnContext(ctx.Request().Context(), "Websocket upgrade failed", "order_id", orderID, "error", err)
	}
	return nil
}

func (s *Server) orderAndAgent(ctx echo.Context) (kernel.UUID, kernel.UUID, error) {
	orderID, err := orderIDParam(ctx)
	if err != nil {
		return kernel.UUID{}, kernel.UUID{}, err
	}
	agentID, err := agentIDBody(ctx)
	if err != nil {
		return kernel.UUID{}, kernel.UUID{}, err
	}
	return orderID, agentID, nil
}

func (s *Server) respondOrder(ctx echo.Context, o *order.Order) error {
	return ctx.JSON(http.StatusOK, toOrder(queries.NewOrderView(o, s.window, s.clock.Now())))
}
