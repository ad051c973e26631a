package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/alumnet/alumnet/cmd/alumnet/container"
	"github.com/alumnet/alumnet/cmd/alumnet/handlers"
	"github.com/alumnet/alumnet/cmd/alumnet/middleware"
	commonmw "github.com/alumnet/alumnet/common/middleware"
)

// RegisterConnectionRoutes registers the connection-graph routes
func RegisterConnectionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewConnectionHandler(c.ConnectionService)
	cfg := c.Components.Config

	g := e.Group("/api/v1/connections")
	g.Use(middleware.ExtractMemberID())
	{
		send := g.Group("")
		if c.RateLimiter != nil {
			send.Use(commonmw.ConnectionRequestRateLimit(c.RateLimiter, cfg.RateLimit.ConnectionRequestsPerMinute))
		}
		send.POST("/requests", h.SendRequest)

		g.POST("/requests/:id/respond", h.Respond)
		g.GET("/requests", h.ListPending)
		g.DELETE("/requests/:memberId", h.Cancel)
		g.GET("", h.ListConnections)
		g.DELETE("/:memberId", h.Remove)
		g.GET("/status/:memberId", h.PairStatus)
	}
}
