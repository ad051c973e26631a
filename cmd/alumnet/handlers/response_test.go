package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/alumnet/alumnet/cmd/alumnet/service"
)

func TestErrorResponse_StatusMapping(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{service.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{service.ErrSelfRequest, http.StatusBadRequest, "self_request"},
		{service.ErrInvalidCode, http.StatusBadRequest, "invalid_code"},
		{service.ErrForbidden, http.StatusForbidden, "forbidden"},
		{service.ErrMemberMismatch, http.StatusForbidden, "member_mismatch"},
		{service.ErrNotFound, http.StatusNotFound, "not_found"},
		{service.ErrDuplicateEdge, http.StatusConflict, "duplicate_edge"},
		{service.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{service.ErrStaleCandidate, http.StatusGone, "stale_candidate"},
		{errors.New("database exploded"), http.StatusInternalServerError, "internal_error"},
	}

	e := echo.New()
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, errorResponse(c, tc.err))
		require.Equal(t, tc.wantStatus, rec.Code, "error %v", tc.err)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.wantCode, body["error"])
	}
}

func TestErrorResponse_WrappedErrorsKeepMapping(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	wrapped := fmt.Errorf("%w: message exceeds 200 characters", service.ErrInvalidInput)
	require.NoError(t, errorResponse(c, wrapped))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorResponse_InternalErrorHidesDetail(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, errorResponse(c, errors.New("pq: connection refused at 10.0.0.3")))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "internal server error", body["message"])
}
