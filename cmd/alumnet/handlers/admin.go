package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/alumnet/alumnet/cmd/alumnet/middleware"
	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/cmd/alumnet/service"
	"github.com/alumnet/alumnet/common/ratelimit"
)

// AdminHandler handles the admin collaborator's verification endpoints
type AdminHandler struct {
	verification *service.VerificationService
	roster       *service.RosterIndex
	limiter      *ratelimit.RateLimiter
	mintLimit    int64
}

// NewAdminHandler creates a new admin handler. limiter may be nil when rate
// limiting is disabled.
func NewAdminHandler(verification *service.VerificationService, roster *service.RosterIndex, limiter *ratelimit.RateLimiter, mintLimit int64) *AdminHandler {
	return &AdminHandler{
		verification: verification,
		roster:       roster,
		limiter:      limiter,
		mintLimit:    mintLimit,
	}
}

type issueCodesBody struct {
	MemberID *string `json:"memberId,omitempty"`
	Count    int     `json:"count"`
}

// IssueCodes mints verification codes for out-of-band delivery
// POST /api/v1/admin/verification/codes
func (h *AdminHandler) IssueCodes(c echo.Context) error {
	adminID := middleware.GetAdminID(c)

	if h.limiter != nil {
		result, err := h.limiter.CheckCodeMintLimit(c.Request().Context(), adminID, h.mintLimit)
		if err == nil && !result.Allowed {
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"error":   "rate_limit_exceeded",
				"message": "Too many code batches minted. Please wait before trying again.",
				"details": map[string]interface{}{
					"limit":               result.Limit,
					"retry_after_seconds": result.RetryAfterSeconds,
				},
			})
		}
	}

	var body issueCodesBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_input",
			"message": "malformed request body",
		})
	}
	if body.Count == 0 {
		body.Count = 1
	}

	codes, err := h.verification.IssueCodes(c.Request().Context(), adminID, body.MemberID, body.Count)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"codes": codes,
		"count": len(codes),
	})
}

// ListPendingReviews lists the manual-review queue, oldest first
// GET /api/v1/admin/verification/requests?limit=20&offset=0
func (h *AdminHandler) ListPendingReviews(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	reviews, err := h.verification.ListPendingReviews(c.Request().Context(), limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}
	if reviews == nil {
		reviews = []*models.VerificationRequest{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requests": reviews,
		"count":    len(reviews),
	})
}

type resolveReviewBody struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes,omitempty"`
}

// ResolveReview finalizes a pending manual-review request
// POST /api/v1/admin/verification/requests/:id/resolve
func (h *AdminHandler) ResolveReview(c echo.Context) error {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_input",
			"message": "request id must be a UUID",
		})
	}

	var body resolveReviewBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_input",
			"message": "malformed request body",
		})
	}

	req, err := h.verification.ResolveManualReview(c.Request().Context(), requestID, models.ReviewDecision(body.Decision), body.Notes)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// AmendReviewClaim applies an RFC 7386 merge patch to a pending claim
// PATCH /api/v1/admin/verification/requests/:id
func (h *AdminHandler) AmendReviewClaim(c echo.Context) error {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_input",
			"message": "request id must be a UUID",
		})
	}

	patch, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_input",
			"message": "unreadable request body",
		})
	}

	req, err := h.verification.AmendPendingClaim(c.Request().Context(), requestID, patch)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// Stats returns code and review counters
// GET /api/v1/admin/verification/stats
func (h *AdminHandler) Stats(c echo.Context) error {
	codeStats, reviewStats, err := h.verification.Stats(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"codes":   codeStats,
		"reviews": reviewStats,
	})
}

// ReloadRoster refreshes the in-memory roster snapshot after an import
// POST /api/v1/admin/roster/reload
func (h *AdminHandler) ReloadRoster(c echo.Context) error {
	if err := h.roster.Reload(c.Request().Context()); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"records":  h.roster.Size(),
		"loadedAt": h.roster.LoadedAt(),
	})
}
