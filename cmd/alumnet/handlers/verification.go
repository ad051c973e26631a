package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alumnet/alumnet/cmd/alumnet/middleware"
	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/cmd/alumnet/service"
)

// VerificationHandler handles member-facing verification requests
type VerificationHandler struct {
	verification *service.VerificationService
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(verification *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

type verifyCodeBody struct {
	Code string `json:"code"`
}

// VerifyByCode redeems a verification code
// POST /api/v1/verification/code
func (h *VerificationHandler) VerifyByCode(c echo.Context) error {
	memberID := middleware.GetMemberID(c)

	var body verifyCodeBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_input",
			"message": "malformed request body",
		})
	}

	if err := h.verification.VerifyByCode(c.Request().Context(), memberID, body.Code); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"verified": true,
		"method":   models.MethodCode,
	})
}

type rosterCheckBody struct {
	Claim models.VerificationClaim `json:"claim"`
}

// CheckAgainstRoster ranks the caller's claim against the roster
// POST /api/v1/verification/roster-check
func (h *VerificationHandler) CheckAgainstRoster(c echo.Context) error {
	memberID := middleware.GetMemberID(c)

	var body rosterCheckBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_input",
			"message": "malformed request body",
		})
	}

	candidates, escalated, err := h.verification.CheckAgainstRoster(c.Request().Context(), memberID, body.Claim)
	if err != nil {
		return errorResponse(c, err)
	}
	if candidates == nil {
		candidates = []models.MatchCandidate{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"candidates": candidates,
		"escalated":  escalated,
	})
}

type confirmMatchBody struct {
	RollNo string `json:"rollNo"`
}

// ConfirmMatch confirms one of the recently offered candidates
// POST /api/v1/verification/confirm
func (h *VerificationHandler) ConfirmMatch(c echo.Context) error {
	memberID := middleware.GetMemberID(c)

	var body confirmMatchBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_input",
			"message": "malformed request body",
		})
	}

	if err := h.verification.ConfirmMatch(c.Request().Context(), memberID, body.RollNo); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"verified": true,
		"method":   models.MethodRoster,
	})
}

type manualReviewBody struct {
	Claim   models.VerificationClaim `json:"claim"`
	Contact models.ContactInfo       `json:"contact"`
}

// SubmitManualReview queues the caller's claim for human review
// POST /api/v1/verification/manual
func (h *VerificationHandler) SubmitManualReview(c echo.Context) error {
	memberID := middleware.GetMemberID(c)

	var body manualReviewBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_input",
			"message": "malformed request body",
		})
	}

	req, err := h.verification.SubmitManualReview(c.Request().Context(), memberID, body.Claim, body.Contact)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusAccepted, req)
}

// Status reports the caller's verified flag
// GET /api/v1/verification/status
func (h *VerificationHandler) Status(c echo.Context) error {
	memberID := middleware.GetMemberID(c)

	verified, err := h.verification.IsVerifiedAlumni(c.Request().Context(), memberID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"memberId": memberID,
		"verified": verified,
	})
}
