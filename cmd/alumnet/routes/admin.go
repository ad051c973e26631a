package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/alumnet/alumnet/cmd/alumnet/container"
	"github.com/alumnet/alumnet/cmd/alumnet/handlers"
	"github.com/alumnet/alumnet/cmd/alumnet/middleware"
)

// RegisterAdminRoutes registers the admin collaborator's routes
func RegisterAdminRoutes(e *echo.Echo, c *container.Container) {
	cfg := c.Components.Config
	h := handlers.NewAdminHandler(c.VerificationService, c.RosterIndex, c.RateLimiter, cfg.RateLimit.CodeMintsPerMinute)

	g := e.Group("/api/v1/admin")
	g.Use(middleware.ExtractAdminID())
	{
		g.POST("/verification/codes", h.IssueCodes)
		g.GET("/verification/requests", h.ListPendingReviews)
		g.POST("/verification/requests/:id/resolve", h.ResolveReview)
		g.PATCH("/verification/requests/:id", h.AmendReviewClaim)
		g.GET("/verification/stats", h.Stats)
		g.POST("/roster/reload", h.ReloadRoster)
	}
}
