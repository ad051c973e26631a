package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alumnet/alumnet/cmd/alumnet/middleware"
	"github.com/alumnet/alumnet/cmd/alumnet/service"
)

// AccessHandler exposes the access gate to downstream feature services
type AccessHandler struct {
	access *service.AccessService
}

// NewAccessHandler creates a new access handler
func NewAccessHandler(access *service.AccessService) *AccessHandler {
	return &AccessHandler{access: access}
}

// CanMessage reports whether the caller may message the target member
// GET /api/v1/access/can-message/:memberId
func (h *AccessHandler) CanMessage(c echo.Context) error {
	memberID := middleware.GetMemberID(c)
	targetID := c.Param("memberId")

	allowed, err := h.access.CanMessage(c.Request().Context(), memberID, targetID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"allowed": allowed,
		"feature": "messaging",
	})
}

// CanViewContact reports whether the caller may see the target's contact card
// GET /api/v1/access/can-view-contact/:memberId
func (h *AccessHandler) CanViewContact(c echo.Context) error {
	memberID := middleware.GetMemberID(c)
	targetID := c.Param("memberId")

	allowed, err := h.access.CanViewContactDetails(c.Request().Context(), memberID, targetID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"allowed": allowed,
		"feature": "contact_details",
	})
}
