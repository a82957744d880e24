// Package client implements the board cache kept by each connected client:
// a status-partitioned, locally materialized view of one project's tickets
// that stays usable for drag interaction with near-zero latency. A move is
// applied speculatively before the server answers, then reconciled with the
// authoritative result or rolled back on failure; change events from the
// notifier invalidate the cache entirely, because server truth always
// supersedes local prediction.
package client

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/iliyamo/task-board/internal/model"
	"github.com/iliyamo/task-board/internal/service"
)

// MoveState tracks one in-flight move through its lifecycle. A move is
// SPECULATIVE from the moment the user drops the ticket until the server
// answers, then becomes COMMITTED or ROLLED_BACK and never changes again.
type MoveState string

const (
	MoveSpeculative MoveState = "SPECULATIVE"
	MoveCommitted   MoveState = "COMMITTED"
	MoveRolledBack  MoveState = "ROLLED_BACK"
)

// Fetcher retrieves the authoritative board from the ticket store. The
// HTTP client implements it against the board endpoint; tests use a stub.
type Fetcher interface {
	BoardTickets(ctx context.Context, projectID uint64) ([]model.Ticket, error)
}

// EventStream is the subset of the notifier the cache subscribes through.
type EventStream interface {
	Subscribe(ctx context.Context, channel string) (<-chan service.Event, func(), error)
}

// PendingMove is the record of one speculative mutation. The snapshot is
// captured before the cache is touched so Rollback can restore the exact
// pre-move state.
type PendingMove struct {
	ID       uuid.UUID // correlation id for matching server responses
	TicketID uint64    // ticket being moved
	State    MoveState // current lifecycle state
	snapshot map[model.Status][]model.Ticket
}

// BoardCache holds one project's tickets grouped by status column. All
// methods are safe for concurrent use; the subscribe loop and UI-driven
// moves share the cache.
type BoardCache struct {
	projectID uint64
	fetcher   Fetcher

	mu      sync.Mutex
	columns map[model.Status][]model.Ticket
	stale   bool
	pending map[uuid.UUID]*PendingMove
}

// New returns an empty cache for one project. Call Refresh (or Load) to
// populate it before use.
func New(projectID uint64, fetcher Fetcher) *BoardCache {
	return &BoardCache{
		projectID: projectID,
		fetcher:   fetcher,
		columns:   emptyColumns(),
		pending:   make(map[uuid.UUID]*PendingMove),
	}
}

func emptyColumns() map[model.Status][]model.Ticket {
	cols := make(map[model.Status][]model.Ticket, len(model.Statuses))
	for _, s := range model.Statuses {
		cols[s] = nil
	}
	return cols
}

// Load replaces the cached board with the given tickets, grouping them by
// status and sorting each column by (position, id). Any speculative state
// is discarded: a full load is server truth.
func (b *BoardCache) Load(tickets []model.Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadLocked(tickets)
}

func (b *BoardCache) loadLocked(tickets []model.Ticket) {
	cols := emptyColumns()
	for _, t := range tickets {
		cols[t.Status] = append(cols[t.Status], t)
	}
	for s := range cols {
		col := cols[s]
		sort.SliceStable(col, func(i, j int) bool {
			if col[i].Position != col[j].Position {
				return col[i].Position < col[j].Position
			}
			return col[i].ID < col[j].ID
		})
	}
	b.columns = cols
	b.stale = false
	b.abandonPendingLocked()
}

// abandonPendingLocked marks every in-flight move rolled back and forgets
// it. Called when server truth replaces the whole board.
func (b *BoardCache) abandonPendingLocked() {
	for id, m := range b.pending {
		m.State = MoveRolledBack
		delete(b.pending, id)
	}
}

// Refresh refetches the authoritative board and replaces the cache.
func (b *BoardCache) Refresh(ctx context.Context) error {
	tickets, err := b.fetcher.BoardTickets(ctx, b.projectID)
	if err != nil {
		return err
	}
	b.Load(tickets)
	return nil
}

// Column returns a copy of one column's tickets in display order.
func (b *BoardCache) Column(status model.Status) []model.Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Ticket, len(b.columns[status]))
	copy(out, b.columns[status])
	return out
}

// Stale reports whether a change event has invalidated the cache since the
// last load.
func (b *BoardCache) Stale() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stale
}

func cloneColumns(cols map[model.Status][]model.Ticket) map[model.Status][]model.Ticket {
	out := make(map[model.Status][]model.Ticket, len(cols))
	for s, col := range cols {
		if col == nil {
			out[s] = nil
			continue
		}
		cp := make([]model.Ticket, len(col))
		copy(cp, col)
		out[s] = cp
	}
	return out
}

// BeginMove applies a move speculatively: the ticket is removed from its
// current column and inserted into the destination at the visually
// indicated index, without waiting for any network response. The returned
// PendingMove carries the pre-move snapshot; pass it to Commit or Rollback
// once the server answers. Returns false when the ticket is not in the
// cache.
func (b *BoardCache) BeginMove(ticketID uint64, to model.Status, index int) (*PendingMove, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var moved *model.Ticket
	var from model.Status
	var fromIdx int
	for s, col := range b.columns {
		for i, t := range col {
			if t.ID == ticketID {
				cp := t
				moved, from, fromIdx = &cp, s, i
				break
			}
		}
		if moved != nil {
			break
		}
	}
	if moved == nil {
		return nil, false
	}

	m := &PendingMove{
		ID:       uuid.New(),
		TicketID: ticketID,
		State:    MoveSpeculative,
		snapshot: cloneColumns(b.columns),
	}

	src := b.columns[from]
	b.columns[from] = append(src[:fromIdx:fromIdx], src[fromIdx+1:]...)

	moved.Status = to
	dst := b.columns[to]
	if index < 0 {
		index = 0
	}
	if index > len(dst) {
		index = len(dst)
	}
	dst = append(dst, model.Ticket{})
	copy(dst[index+1:], dst[index:])
	dst[index] = *moved
	b.columns[to] = dst

	b.pending[m.ID] = m
	return m, true
}

// Commit reconciles a speculative move with the authoritative server
// record. The server values always win: the ticket is re-placed according
// to the returned status and position even when they differ from the
// speculative guess.
func (b *BoardCache) Commit(m *PendingMove, authoritative model.Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m.State != MoveSpeculative {
		return
	}
	b.removeLocked(authoritative.ID)
	b.insertSortedLocked(authoritative)
	m.State = MoveCommitted
	delete(b.pending, m.ID)
}

// Rollback restores the exact pre-move snapshot captured by BeginMove.
// Used when the move request fails or times out; the ticket visually snaps
// back to where it was.
func (b *BoardCache) Rollback(m *PendingMove) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m.State != MoveSpeculative {
		return
	}
	b.columns = cloneColumns(m.snapshot)
	m.State = MoveRolledBack
	delete(b.pending, m.ID)
}

func (b *BoardCache) removeLocked(ticketID uint64) {
	for s, col := range b.columns {
		for i, t := range col {
			if t.ID == ticketID {
				b.columns[s] = append(col[:i:i], col[i+1:]...)
				return
			}
		}
	}
}

func (b *BoardCache) insertSortedLocked(t model.Ticket) {
	col := b.columns[t.Status]
	idx := sort.Search(len(col), func(i int) bool {
		if col[i].Position != t.Position {
			return col[i].Position > t.Position
		}
		return col[i].ID > t.ID
	})
	col = append(col, model.Ticket{})
	copy(col[idx+1:], col[idx:])
	col[idx] = t
	b.columns[t.Status] = col
}

// HandleEvent reacts to one change event. Events for other projects are
// ignored; an event for this project marks the cache stale and abandons any
// speculative state, since the server has moved on without us.
func (b *BoardCache) HandleEvent(ev service.Event) bool {
	if ev.ProjectID != b.projectID {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stale = true
	b.abandonPendingLocked()
	return true
}

// Run subscribes to the project's channel and refetches the board on every
// event until the context is cancelled or the stream closes. Refetch
// failures leave the cache stale and keep listening; the next event (or an
// explicit Refresh) will try again.
func (b *BoardCache) Run(ctx context.Context, stream EventStream) error {
	events, cancel, err := stream.Subscribe(ctx, service.ProjectChannel(b.projectID))
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if b.HandleEvent(ev) {
				_ = b.Refresh(ctx)
			}
		}
	}
}
