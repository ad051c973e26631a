package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alumnet/alumnet/cmd/alumnet/service"
)

// errorResponse translates the service error taxonomy into HTTP statuses in
// one place, so handlers never pick status codes ad hoc.
func errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, service.ErrSelfRequest):
		status, code = http.StatusBadRequest, "self_request"
	case errors.Is(err, service.ErrInvalidCode):
		status, code = http.StatusBadRequest, "invalid_code"
	case errors.Is(err, service.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrMemberMismatch):
		status, code = http.StatusForbidden, "member_mismatch"
	case errors.Is(err, service.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrDuplicateEdge):
		status, code = http.StatusConflict, "duplicate_edge"
	case errors.Is(err, service.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, service.ErrStaleCandidate):
		status, code = http.StatusGone, "stale_candidate"
	}

	body := map[string]interface{}{"error": code}
	if status != http.StatusInternalServerError {
		body["message"] = err.Error()
	} else {
		body["message"] = "internal server error"
	}
	return c.JSON(status, body)
}
