package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/task-board/internal/model"
	"github.com/iliyamo/task-board/internal/ordering"
	"github.com/iliyamo/task-board/internal/repository"
)

// MoveRequest describes one "move ticket X to position P in column C"
// request. Exactly one placement mode applies: TargetOrder anchors the
// ticket after the sibling currently at that position, NewOrder places it
// at an explicit position, and neither means append to the end of the
// destination column.
type MoveRequest struct {
	TicketID    uint64       // ticket being moved
	ProjectID   uint64       // project the caller believes the ticket is in
	NewStatus   model.Status // destination column
	NewOrder    *int64       // explicit destination position, optional
	TargetOrder *int64       // anchor sibling's current position, optional
	ActorID     uint64       // user performing the move
}

// MoveErrorKind classifies a failed move for HTTP status mapping.
type MoveErrorKind int

const (
	MoveOK            MoveErrorKind = iota
	MoveErrValidation               // malformed request, surfaced as 400
	MoveErrNotFound                 // ticket gone or outside the project, 404
	MoveErrStore                    // persistence unavailable, 503
)

// MoveResult is the structured outcome of a move. Failures are always
// recovered into this shape at the coordinator boundary; nothing is thrown
// past it. The convergence layer commits on Success and rolls back
// otherwise.
type MoveResult struct {
	Success bool          `json:"success"`
	Ticket  *model.Ticket `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
	Kind    MoveErrorKind `json:"-"`
	From    model.Status  `json:"-"` // column the ticket left, set on success
}

func moveFailure(kind MoveErrorKind, msg string) MoveResult {
	return MoveResult{Success: false, Error: msg, Kind: kind}
}

// Mover coordinates single ticket moves: it decides whether the destination
// needs an allocated position, whether the column must be rebalanced first,
// performs the write, and reports the result. There is no locking between
// concurrent moves on the same column; two racing moves may write the same
// position, which reads tolerate via the (position, id) sort and the next
// rebalance heals.
type Mover struct {
	store      TicketStore
	rebalancer *Rebalancer
	events     EventSink
}

// NewMover wires a Mover from its collaborators. events may be nil when no
// notification transport is configured.
func NewMover(store TicketStore, rebalancer *Rebalancer, events EventSink) *Mover {
	return &Mover{store: store, rebalancer: rebalancer, events: events}
}

// Move handles one move request end to end. On success the updated ticket
// is returned and exactly one "moved" event is published on the project's
// channel; the no-op short circuit (destination equals the current column
// and position) skips both the write and the notification.
func (m *Mover) Move(ctx context.Context, req MoveRequest) MoveResult {
	if req.TicketID == 0 || req.ProjectID == 0 {
		return moveFailure(MoveErrValidation, "ticket id and project id are required")
	}
	if !model.ValidStatus(req.NewStatus) {
		return moveFailure(MoveErrValidation, "unknown status: "+string(req.NewStatus))
	}

	cur, err := m.store.GetByID(ctx, req.TicketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return moveFailure(MoveErrNotFound, "ticket not found")
		}
		return moveFailure(MoveErrStore, "ticket store unavailable")
	}
	if cur.ProjectID != req.ProjectID {
		// The ticket exists but not where the caller thinks; from the
		// caller's point of view that is a missing ticket, not a hint
		// about another project.
		return moveFailure(MoveErrNotFound, "ticket not found")
	}

	var pos int64
	switch {
	case req.TargetOrder != nil:
		pos, err = m.anchoredPosition(ctx, req, *req.TargetOrder)
		if err != nil {
			return moveFailure(MoveErrStore, "ticket store unavailable")
		}
	case req.NewOrder != nil:
		// The caller already knows the exact position (e.g. replaying a
		// placement it has seen committed); honor it verbatim.
		pos = *req.NewOrder
	default:
		siblings, lerr := m.siblingsWithout(ctx, req.ProjectID, req.NewStatus, req.TicketID)
		if lerr != nil {
			return moveFailure(MoveErrStore, "ticket store unavailable")
		}
		pos = ordering.Append(positionsOf(siblings))
	}

	// No-op short circuit: nothing to write, nothing to announce.
	if req.NewStatus == cur.Status && pos == cur.Position {
		return MoveResult{Success: true, Ticket: cur, From: cur.Status}
	}

	updated, err := m.store.WriteOrder(ctx, req.TicketID, req.NewStatus, pos)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			// Deleted underneath us between the read and the write.
			return moveFailure(MoveErrNotFound, "ticket not found")
		}
		return moveFailure(MoveErrStore, "ticket store unavailable")
	}

	if m.events != nil {
		m.events.Publish(ctx, ProjectChannel(req.ProjectID), Event{
			ID:         uuid.NewString(),
			Type:       EventMoved,
			TicketID:   updated.ID,
			ProjectID:  updated.ProjectID,
			ActorID:    req.ActorID,
			FromStatus: cur.Status,
			ToStatus:   updated.Status,
			Position:   updated.Position,
			OccurredAt: time.Now().UTC(),
		})
	}
	return MoveResult{Success: true, Ticket: updated, From: cur.Status}
}

// anchoredPosition resolves the anchor from its current position among the
// destination siblings and allocates a spot after it. When the bounding gap
// is exhausted the column is rebalanced first, the siblings re-read, and
// the anchor re-located by ticket id (its numeric position has changed).
func (m *Mover) anchoredPosition(ctx context.Context, req MoveRequest, target int64) (int64, error) {
	siblings, err := m.siblingsWithout(ctx, req.ProjectID, req.NewStatus, req.TicketID)
	if err != nil {
		return 0, err
	}
	anchorIdx := ordering.AnchorIndex(positionsOf(siblings), target)
	if pos, ok := ordering.PlaceAfter(positionsOf(siblings), anchorIdx); ok {
		return pos, nil
	}

	var anchorID uint64
	if anchorIdx >= 0 {
		anchorID = siblings[anchorIdx].ID
	}
	if err := m.rebalancer.Rebalance(ctx, req.ProjectID, req.NewStatus); err != nil {
		return 0, err
	}
	siblings, err = m.siblingsWithout(ctx, req.ProjectID, req.NewStatus, req.TicketID)
	if err != nil {
		return 0, err
	}
	anchorIdx = -1
	for i, s := range siblings {
		if s.ID == anchorID {
			anchorIdx = i
			break
		}
	}
	pos, ok := ordering.PlaceAfter(positionsOf(siblings), anchorIdx)
	if !ok {
		// Cannot happen right after a rebalance restores full gaps, unless
		// another rebalance-worthy race landed in between; treat like any
		// other store-level failure and let the client retry.
		return 0, errors.New("position allocation failed after rebalance")
	}
	return pos, nil
}

// siblingsWithout lists a destination partition excluding the ticket being
// moved, which is present when reordering within its own column.
func (m *Mover) siblingsWithout(ctx context.Context, projectID uint64, status model.Status, ticketID uint64) ([]model.Ticket, error) {
	list, err := m.store.ListByPartition(ctx, projectID, status)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, t := range list {
		if t.ID != ticketID {
			out = append(out, t)
		}
	}
	return out, nil
}

func positionsOf(tickets []model.Ticket) []int64 {
	out := make([]int64, len(tickets))
	for i, t := range tickets {
		out[i] = t.Position
	}
	return out
}
