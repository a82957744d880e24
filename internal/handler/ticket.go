package handler // handler package contains ticket and board endpoints

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-board/internal/model"
	"github.com/iliyamo/task-board/internal/queue"
	"github.com/iliyamo/task-board/internal/repository"
	"github.com/iliyamo/task-board/internal/service"
)

// TicketMover is the slice of the move coordinator the handler needs.
// Declared here so tests can drive the endpoint with a stub.
type TicketMover interface {
	Move(ctx context.Context, req service.MoveRequest) service.MoveResult
}

// TicketHandler bundles dependencies for ticket endpoints: CRUD, the board
// read used by clients to (re)materialize their column lists, and the move
// operation.
type TicketHandler struct {
	Tickets  *repository.TicketRepo
	Projects *repository.ProjectRepo
	Mover    TicketMover
	Events   service.EventSink // change notifier; may be nil when Redis is off
	// Activity publishes a moved ticket to the activity queue. Optional;
	// failures are ignored so the broker can never fail a move.
	Activity func(ctx context.Context, ev queue.TicketMovedEvent) error
}

// NewTicketHandler constructs a TicketHandler and panics if a required
// dependency is nil.
func NewTicketHandler(tickets *repository.TicketRepo, projects *repository.ProjectRepo, mover TicketMover, events service.EventSink) *TicketHandler {
	if tickets == nil || projects == nil || mover == nil {
		panic("nil dependency passed to NewTicketHandler")
	}
	return &TicketHandler{Tickets: tickets, Projects: projects, Mover: mover, Events: events}
}

// publish sends a change event on the project channel when a notifier is
// configured. Create/update/delete share this; moves are announced by the
// coordinator itself.
func (h *TicketHandler) publish(ctx context.Context, evType service.EventType, t *model.Ticket, actorID uint64) {
	if h.Events == nil {
		return
	}
	h.Events.Publish(ctx, service.ProjectChannel(t.ProjectID), service.Event{
		ID:         uuid.NewString(),
		Type:       evType,
		TicketID:   t.ID,
		ProjectID:  t.ProjectID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
}

// CreateTicket handles POST /v1/projects/:id/tickets. The new ticket is
// appended to the end of its column: it receives the partition's max
// position plus the allocation step.
func (h *TicketHandler) CreateTicket(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	var body struct {
		Title       string       `json:"title"`
		Description string       `json:"description"`
		Status      model.Status `json:"status"`
		AssigneeID  *uint64      `json:"assignee_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	status := body.Status
	if status == "" {
		status = model.StatusBacklog // new tickets land in the backlog by default
	}
	if !model.ValidStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx := c.Request().Context()
	if _, err := h.Projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	t := &model.Ticket{
		ProjectID:   projectID,
		Status:      status,
		Title:       title,
		Description: body.Description,
		AssigneeID:  body.AssigneeID,
	}
	if err := h.Tickets.Create(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create ticket"})
	}
	h.publish(ctx, service.EventCreated, t, actorID)
	return c.JSON(http.StatusCreated, t)
}

// GetBoard handles GET /v1/projects/:id/board. It returns every column of
// the project keyed by status, each sorted in display order. Clients use
// this both for the initial render and for the refetch triggered by change
// events, so this endpoint is deliberately never cached.
func (h *TicketHandler) GetBoard(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}

	ctx := c.Request().Context()
	if _, err := h.Projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	tickets, err := h.Tickets.ListByProject(ctx, projectID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	// Every column is present in the response even when empty, so clients
	// can render the full board without knowing the status set.
	columns := make(map[model.Status][]model.Ticket, len(model.Statuses))
	for _, s := range model.Statuses {
		columns[s] = []model.Ticket{}
	}
	for _, t := range tickets {
		columns[t.Status] = append(columns[t.Status], t)
	}
	return c.JSON(http.StatusOK, echo.Map{"project_id": projectID, "columns": columns})
}

// moveReq is the wire shape of a move request. target_order carries the
// anchor sibling's current position when the ticket is dropped next to one;
// new_order places the ticket at an explicit position; neither appends to
// the end of the destination column.
type moveReq struct {
	ProjectID   uint64       `json:"project_id"`
	NewStatus   model.Status `json:"new_status"`
	NewOrder    *int64       `json:"new_order"`
	TargetOrder *int64       `json:"target_order"`
}

// MoveTicket handles POST /v1/tickets/:id/move. The heavy lifting lives in
// the move coordinator; this handler only translates between HTTP and the
// structured move result, and feeds the activity queue on success.
func (h *TicketHandler) MoveTicket(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, service.MoveResult{Error: "invalid ticket id"})
	}
	var body moveReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, service.MoveResult{Error: "invalid request body"})
	}

	res := h.Mover.Move(c.Request().Context(), service.MoveRequest{
		TicketID:    ticketID,
		ProjectID:   body.ProjectID,
		NewStatus:   body.NewStatus,
		NewOrder:    body.NewOrder,
		TargetOrder: body.TargetOrder,
		ActorID:     actorID,
	})
	if !res.Success {
		switch res.Kind {
		case service.MoveErrNotFound:
			return c.JSON(http.StatusNotFound, res)
		case service.MoveErrValidation:
			return c.JSON(http.StatusBadRequest, res)
		default:
			return c.JSON(http.StatusServiceUnavailable, res)
		}
	}

	if h.Activity != nil && res.Ticket != nil {
		ev := queue.TicketMovedEvent{
			TicketID:   res.Ticket.ID,
			ProjectID:  res.Ticket.ProjectID,
			ActorID:    actorID,
			Title:      res.Ticket.Title,
			FromStatus: res.From,
			ToStatus:   res.Ticket.Status,
			Position:   res.Ticket.Position,
			MovedAt:    time.Now().UTC().Format(time.RFC3339),
		}
		if p, perr := h.Projects.GetByID(c.Request().Context(), res.Ticket.ProjectID); perr == nil {
			ev.ProjectName = p.Name
		}
		_ = h.Activity(c.Request().Context(), ev) // best-effort, never fails the move
	}
	return c.JSON(http.StatusOK, res)
}

// UpdateTicket handles PATCH /v1/tickets/:id and changes title, description
// and assignee. Column and position are only ever changed through the move
// endpoint.
func (h *TicketHandler) UpdateTicket(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var body struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		AssigneeID  *uint64 `json:"assignee_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	ctx := c.Request().Context()
	updated, err := h.Tickets.UpdateDetails(ctx, ticketID, title, body.Description, body.AssigneeID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.publish(ctx, service.EventUpdated, updated, actorID)
	return c.JSON(http.StatusOK, updated)
}

// DeleteTicket handles DELETE /v1/tickets/:id. Sibling tickets are not
// renumbered; the position gap the ticket leaves behind simply persists.
func (h *TicketHandler) DeleteTicket(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	ctx := c.Request().Context()
	t, err := h.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.Tickets.Delete(ctx, ticketID, t.ProjectID); err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.publish(ctx, service.EventDeleted, t, actorID)
	return c.NoContent(http.StatusNoContent)
}
