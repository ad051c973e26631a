package middleware

import (
	"net/http"

	"github.com/alumnet/alumnet/common/ratelimit"
	"github.com/labstack/echo/v4"
)

// ConnectionRequestRateLimit limits how fast one member can issue connection
// requests. Requires the member ID to be set in context by ExtractMemberID.
// Rejection is not a cool-down, so a spammer could otherwise re-request the
// same member in a tight loop.
func ConnectionRequestRateLimit(limiter *ratelimit.RateLimiter, limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			memberID, ok := c.Get("member_id").(string)
			if !ok || memberID == "" {
				return next(c)
			}

			result, err := limiter.CheckConnectionRequestLimit(c.Request().Context(), memberID, limit)
			if err != nil {
				// Fail open for availability
				return next(c)
			}

			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "rate_limit_exceeded",
					"message": "Too many connection requests. Please wait before trying again.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"window":              "60 seconds",
						"current_count":       result.CurrentCount,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
