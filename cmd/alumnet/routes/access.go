package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/alumnet/alumnet/cmd/alumnet/container"
	"github.com/alumnet/alumnet/cmd/alumnet/handlers"
	"github.com/alumnet/alumnet/cmd/alumnet/middleware"
)

// RegisterAccessRoutes registers the access-gate routes
func RegisterAccessRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAccessHandler(c.AccessService)

	g := e.Group("/api/v1/access")
	g.Use(middleware.ExtractMemberID())
	{
		g.GET("/can-message/:memberId", h.CanMessage)
		g.GET("/can-view-contact/:memberId", h.CanViewContact)
	}
}
