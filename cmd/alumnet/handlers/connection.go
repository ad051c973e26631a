package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/alumnet/alumnet/cmd/alumnet/middleware"
	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/cmd/alumnet/service"
)

// ConnectionHandler handles connection-graph requests
type ConnectionHandler struct {
	connections *service.ConnectionService
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connections *service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connections: connections}
}

type sendRequestBody struct {
	RecipientID    string  `json:"recipientId"`
	RequestMessage *string `json:"requestMessage,omitempty"`
}

// SendRequest creates a pending connection request
// POST /api/v1/connections/requests
func (h *ConnectionHandler) SendRequest(c echo.Context) error {
	memberID := middleware.GetMemberID(c)

	var body sendRequestBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_input",
			"message": "malformed request body",
		})
	}

	edge, err := h.connections.SendRequest(c.Request().Context(), memberID, body.RecipientID, body.RequestMessage)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, edge)
}

type respondBody struct {
	Action string `json:"action"`
}

// Respond accepts or rejects a pending request
// POST /api/v1/connections/requests/:id/respond
func (h *ConnectionHandler) Respond(c echo.Context) error {
	memberID := middleware.GetMemberID(c)

	edgeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_input",
			"message": "request id must be a UUID",
		})
	}

	var body respondBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_input",
			"message": "malformed request body",
		})
	}

	edge, err := h.connections.Respond(c.Request().Context(), edgeID, memberID, models.RespondAction(body.Action))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, edge)
}

// Cancel withdraws the caller's pending request toward another member
// DELETE /api/v1/connections/requests/:memberId
func (h *ConnectionHandler) Cancel(c echo.Context) error {
	memberID := middleware.GetMemberID(c)
	counterpartyID := c.Param("memberId")

	if err := h.connections.Cancel(c.Request().Context(), memberID, counterpartyID); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Remove deletes an accepted connection
// DELETE /api/v1/connections/:memberId
func (h *ConnectionHandler) Remove(c echo.Context) error {
	memberID := middleware.GetMemberID(c)
	counterpartyID := c.Param("memberId")

	if err := h.connections.Remove(c.Request().Context(), memberID, counterpartyID); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPending lists the caller's pending requests
// GET /api/v1/connections/requests?direction=incoming&limit=20&offset=0
func (h *ConnectionHandler) ListPending(c echo.Context) error {
	memberID := middleware.GetMemberID(c)

	direction := c.QueryParam("direction")
	if direction == "" {
		direction = string(models.DirectionIncoming)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	edges, err := h.connections.ListPending(c.Request().Context(), memberID, models.Direction(direction), limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}
	if edges == nil {
		edges = []*models.ConnectionEdge{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requests":  edges,
		"direction": direction,
	})
}

// ListConnections lists the caller's accepted connections
// GET /api/v1/connections
func (h *ConnectionHandler) ListConnections(c echo.Context) error {
	memberID := middleware.GetMemberID(c)

	connections, err := h.connections.ListConnections(c.Request().Context(), memberID)
	if err != nil {
		return errorResponse(c, err)
	}
	if connections == nil {
		connections = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"connections": connections,
		"count":       len(connections),
	})
}

// PairStatus reports where the caller stands with another member
// GET /api/v1/connections/status/:memberId
func (h *ConnectionHandler) PairStatus(c echo.Context) error {
	memberID := middleware.GetMemberID(c)
	counterpartyID := c.Param("memberId")

	status, edge, err := h.connections.PairStatus(c.Request().Context(), memberID, counterpartyID)
	if err != nil {
		return errorResponse(c, err)
	}

	body := map[string]interface{}{"status": status}
	if edge != nil {
		body["request"] = edge
	}
	return c.JSON(http.StatusOK, body)
}
