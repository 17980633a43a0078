package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// NewRouter builds the echo instance serving the API, health, metrics and
// the Swagger UI.
func NewRouter(server *Server, metrics http.Handler, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.DebugContext(c.Request().Context(), "Request handled",
				"component", "http",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error,
			)
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/metrics", echo.WrapHandler(metrics))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1")
	api.GET("/agents", server.GetAgents)
	api.POST("/agents", server.CreateAgent)
	api.GET("/orders", server.GetOrders)
	api.POST("/orders", server.CreateOrder)
	api.GET("/orders/:orderId", server.GetOrder)
	api.POST("/orders/:orderId/accept", server.AcceptOffer)
	api.POST("/orders/:orderId/decline", server.DeclineOffer)
	api.POST("/orders/:orderId/start", server.StartService)
	api.POST("/orders/:orderId/complete", server.CompleteOrder)
	api.POST("/orders/:orderId/cancel", server.CancelOrder)
	api.GET("/orders/:orderId/events", server.StreamOrderEvents)

	return e
}
