package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// MemberIDKey is the context key for the acting member's ID
	MemberIDKey ContextKey = "member_id"
	// AdminIDKey is the context key for the acting admin's ID
	AdminIDKey ContextKey = "admin_id"
)

// ExtractMemberID reads the X-Member-ID header into the request context.
// Authentication itself lives at the platform gateway; by the time a request
// reaches this service, the header carries an already-authenticated identity.
//
// Usage:
//
//	g := e.Group("/api/v1/connections")
//	g.Use(middleware.ExtractMemberID())
func ExtractMemberID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			memberID := c.Request().Header.Get("X-Member-ID")
			if memberID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error": "X-Member-ID header is required",
				})
			}
			c.Set(string(MemberIDKey), memberID)
			return next(c)
		}
	}
}

// ExtractAdminID reads the X-Admin-ID header for routes reserved for the
// admin collaborator.
func ExtractAdminID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			adminID := c.Request().Header.Get("X-Admin-ID")
			if adminID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error": "X-Admin-ID header is required",
				})
			}
			c.Set(string(AdminIDKey), adminID)
			return next(c)
		}
	}
}

// GetMemberID retrieves the member ID from the request context.
// Returns empty string if not set.
func GetMemberID(c echo.Context) string {
	memberID := c.Get(string(MemberIDKey))
	if memberID == nil {
		return ""
	}
	return memberID.(string)
}

// GetAdminID retrieves the admin ID from the request context
func GetAdminID(c echo.Context) string {
	adminID := c.Get(string(AdminIDKey))
	if adminID == nil {
		return ""
	}
	return adminID.(string)
}
