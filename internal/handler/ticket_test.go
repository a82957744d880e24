package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/task-board/internal/model"
	"github.com/iliyamo/task-board/internal/service"
)

// stubMover returns a canned result and records the request it received.
type stubMover struct {
	result service.MoveResult
	got    service.MoveRequest
}

func (s *stubMover) Move(_ context.Context, req service.MoveRequest) service.MoveResult {
	s.got = req
	return s.result
}

func moveContext(t *testing.T, body string, userID interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/tickets/5/move", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/tickets/:id/move")
	c.SetParamNames("id")
	c.SetParamValues("5")
	if userID != nil {
		c.Set("user_id", userID)
	}
	return c, rec
}

func TestMoveTicketSuccess(t *testing.T) {
	moved := &model.Ticket{ID: 5, ProjectID: 7, Status: model.StatusDone, Title: "t", Position: 1500}
	mover := &stubMover{result: service.MoveResult{Success: true, Ticket: moved}}
	h := &TicketHandler{Mover: mover}

	c, rec := moveContext(t, `{"project_id":7,"new_status":"done","target_order":1000}`, float64(42))
	require.NoError(t, h.MoveTicket(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// The wire request reached the coordinator intact, actor included.
	assert.Equal(t, uint64(5), mover.got.TicketID)
	assert.Equal(t, uint64(7), mover.got.ProjectID)
	assert.Equal(t, model.StatusDone, mover.got.NewStatus)
	require.NotNil(t, mover.got.TargetOrder)
	assert.Equal(t, int64(1000), *mover.got.TargetOrder)
	assert.Nil(t, mover.got.NewOrder)
	assert.Equal(t, uint64(42), mover.got.ActorID)

	var resp struct {
		Success bool          `json:"success"`
		Data    *model.Ticket `json:"data"`
		Error   string        `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.Equal(t, int64(1500), resp.Data.Position)
	assert.Empty(t, resp.Error)
}

func TestMoveTicketFailureStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		kind service.MoveErrorKind
		want int
	}{
		{"validation", service.MoveErrValidation, http.StatusBadRequest},
		{"not found", service.MoveErrNotFound, http.StatusNotFound},
		{"store", service.MoveErrStore, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mover := &stubMover{result: service.MoveResult{Success: false, Error: "boom", Kind: tc.kind}}
			h := &TicketHandler{Mover: mover}

			c, rec := moveContext(t, `{"project_id":7,"new_status":"done"}`, float64(1))
			require.NoError(t, h.MoveTicket(c))
			assert.Equal(t, tc.want, rec.Code)

			var resp struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, "boom", resp.Error)
		})
	}
}

func TestMoveTicketUnauthorized(t *testing.T) {
	h := &TicketHandler{Mover: &stubMover{}}
	c, rec := moveContext(t, `{"project_id":7,"new_status":"done"}`, nil)
	require.NoError(t, h.MoveTicket(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMoveTicketInvalidID(t *testing.T) {
	h := &TicketHandler{Mover: &stubMover{}}
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/tickets/abc/move", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/tickets/:id/move")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	c.Set("user_id", float64(1))

	require.NoError(t, h.MoveTicket(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
