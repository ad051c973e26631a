package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/alumnet/alumnet/cmd/alumnet/container"
	"github.com/alumnet/alumnet/cmd/alumnet/handlers"
	"github.com/alumnet/alumnet/cmd/alumnet/middleware"
)

// RegisterVerificationRoutes registers the member-facing verification routes
func RegisterVerificationRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewVerificationHandler(c.VerificationService)

	g := e.Group("/api/v1/verification")
	g.Use(middleware.ExtractMemberID())
	{
		g.POST("/code", h.VerifyByCode)
		g.POST("/roster-check", h.CheckAgainstRoster)
		g.POST("/confirm", h.ConfirmMatch)
		g.POST("/manual", h.SubmitManualReview)
		g.GET("/status", h.Status)
	}
}
