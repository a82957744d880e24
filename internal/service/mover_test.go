package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/task-board/internal/model"
	"github.com/iliyamo/task-board/internal/repository"
)

// fakeStore is an in-memory ticket store. It counts single-row writes and
// records rebalance batches so tests can assert on the exact persistence
// traffic a move produced.
type fakeStore struct {
	tickets    map[uint64]*model.Ticket
	writes     int
	batches    [][]repository.PositionUpdate
	failWrites bool
	failReads  bool
}

func newFakeStore(tickets ...model.Ticket) *fakeStore {
	s := &fakeStore{tickets: make(map[uint64]*model.Ticket)}
	for _, t := range tickets {
		cp := t
		s.tickets[t.ID] = &cp
	}
	return s
}

var errStoreDown = errors.New("store down")

func (s *fakeStore) ListByPartition(_ context.Context, projectID uint64, status model.Status) ([]model.Ticket, error) {
	if s.failReads {
		return nil, errStoreDown
	}
	var out []model.Ticket
	for _, t := range s.tickets {
		if t.ProjectID == projectID && t.Status == status {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *fakeStore) GetByID(_ context.Context, id uint64) (*model.Ticket, error) {
	if s.failReads {
		return nil, errStoreDown
	}
	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) WriteOrder(_ context.Context, id uint64, status model.Status, position int64) (*model.Ticket, error) {
	if s.failWrites {
		return nil, errStoreDown
	}
	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	s.writes++
	t.Status = status
	t.Position = position
	cp := *t
	return &cp, nil
}

func (s *fakeStore) WriteOrderBatch(_ context.Context, updates []repository.PositionUpdate) error {
	if s.failWrites {
		return errStoreDown
	}
	s.batches = append(s.batches, updates)
	for _, u := range updates {
		if t, ok := s.tickets[u.TicketID]; ok {
			t.Position = u.Position
		}
	}
	return nil
}

// fakeSink records every published event.
type fakeSink struct {
	channels []string
	events   []Event
}

func (f *fakeSink) Publish(_ context.Context, channel string, ev Event) {
	f.channels = append(f.channels, channel)
	f.events = append(f.events, ev)
}

func ticket(id, projectID uint64, status model.Status, pos int64) model.Ticket {
	return model.Ticket{ID: id, ProjectID: projectID, Status: status, Title: "t", Position: pos}
}

func newMover(store *fakeStore, sink *fakeSink) *Mover {
	return NewMover(store, NewRebalancer(store), sink)
}

func int64p(v int64) *int64 { return &v }

func TestMoveInsertionBounds(t *testing.T) {
	// Inserting after the ticket at 1000, before its neighbor at 2000,
	// lands exactly on the midpoint.
	store := newFakeStore(
		ticket(1, 7, model.StatusTodo, 1000),
		ticket(2, 7, model.StatusTodo, 2000),
		ticket(3, 7, model.StatusBacklog, 1000),
	)
	m := newMover(store, &fakeSink{})

	res := m.Move(context.Background(), MoveRequest{
		TicketID: 3, ProjectID: 7, NewStatus: model.StatusTodo,
		TargetOrder: int64p(1000), ActorID: 1,
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, int64(1500), res.Ticket.Position)
	assert.Equal(t, model.StatusTodo, res.Ticket.Status)
	assert.Empty(t, store.batches, "no rebalance expected for a healthy gap")
}

func TestMoveAppendSemantics(t *testing.T) {
	store := newFakeStore(
		ticket(1, 7, model.StatusTodo, 4000),
		ticket(2, 7, model.StatusBacklog, 1000),
	)
	m := newMover(store, &fakeSink{})

	// Appending to a column whose max position is 4000 yields 5000.
	res := m.Move(context.Background(), MoveRequest{
		TicketID: 2, ProjectID: 7, NewStatus: model.StatusTodo, ActorID: 1,
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, int64(5000), res.Ticket.Position)

	// Moving into an empty column yields the base step.
	res = m.Move(context.Background(), MoveRequest{
		TicketID: 2, ProjectID: 7, NewStatus: model.StatusDone, ActorID: 1,
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, int64(1000), res.Ticket.Position)
}

func TestMoveGapExhaustionTriggersRebalance(t *testing.T) {
	// The gap between 1000 and 1001 cannot be split, so the move must
	// rebalance the destination column before allocating.
	store := newFakeStore(
		ticket(1, 7, model.StatusTodo, 1000),
		ticket(2, 7, model.StatusTodo, 1001),
		ticket(3, 7, model.StatusBacklog, 1000),
	)
	m := newMover(store, &fakeSink{})

	res := m.Move(context.Background(), MoveRequest{
		TicketID: 3, ProjectID: 7, NewStatus: model.StatusTodo,
		TargetOrder: int64p(1000), ActorID: 1,
	})
	require.True(t, res.Success, res.Error)
	require.Len(t, store.batches, 1, "exactly one rebalance expected")

	// After the rebalance the anchors sit at 1000 and 2000; the moved
	// ticket lands between them and on neither.
	assert.Equal(t, int64(1500), res.Ticket.Position)
	assert.NotEqual(t, store.tickets[1].Position, res.Ticket.Position)
	assert.NotEqual(t, store.tickets[2].Position, res.Ticket.Position)
	assert.Equal(t, int64(1000), store.tickets[1].Position)
	assert.Equal(t, int64(2000), store.tickets[2].Position)
}

func TestMoveTotalOrderPreserved(t *testing.T) {
	// A ticket placed after a sibling must sort after it, whatever the
	// numeric details.
	store := newFakeStore(
		ticket(1, 7, model.StatusTodo, 1000),
		ticket(2, 7, model.StatusTodo, 1001),
		ticket(3, 7, model.StatusTodo, 1002),
		ticket(4, 7, model.StatusBacklog, 1000),
	)
	m := newMover(store, &fakeSink{})

	res := m.Move(context.Background(), MoveRequest{
		TicketID: 4, ProjectID: 7, NewStatus: model.StatusTodo,
		TargetOrder: int64p(1001), ActorID: 1,
	})
	require.True(t, res.Success, res.Error)

	col, err := store.ListByPartition(context.Background(), 7, model.StatusTodo)
	require.NoError(t, err)
	ids := make([]uint64, len(col))
	for i, tk := range col {
		ids[i] = tk.ID
	}
	assert.Equal(t, []uint64{1, 2, 4, 3}, ids)
}

func TestRebalanceIdempotence(t *testing.T) {
	store := newFakeStore(
		ticket(1, 7, model.StatusTodo, 17),
		ticket(2, 7, model.StatusTodo, 18),
		ticket(3, 7, model.StatusTodo, 4123),
	)
	r := NewRebalancer(store)

	require.NoError(t, r.Rebalance(context.Background(), 7, model.StatusTodo))
	first := []int64{store.tickets[1].Position, store.tickets[2].Position, store.tickets[3].Position}
	assert.Equal(t, []int64{1000, 2000, 3000}, first)

	require.NoError(t, r.Rebalance(context.Background(), 7, model.StatusTodo))
	second := []int64{store.tickets[1].Position, store.tickets[2].Position, store.tickets[3].Position}
	assert.Equal(t, first, second)
}

func TestMoveNoOpShortCircuit(t *testing.T) {
	store := newFakeStore(ticket(1, 7, model.StatusTodo, 1000))
	sink := &fakeSink{}
	m := newMover(store, sink)

	res := m.Move(context.Background(), MoveRequest{
		TicketID: 1, ProjectID: 7, NewStatus: model.StatusTodo,
		NewOrder: int64p(1000), ActorID: 1,
	})
	require.True(t, res.Success, res.Error)
	assert.Zero(t, store.writes, "no write expected for a no-op move")
	assert.Empty(t, sink.events, "no notification expected for a no-op move")
}

func TestMoveNotificationFanOut(t *testing.T) {
	store := newFakeStore(ticket(1, 7, model.StatusTodo, 1000))
	sink := &fakeSink{}
	m := newMover(store, sink)

	res := m.Move(context.Background(), MoveRequest{
		TicketID: 1, ProjectID: 7, NewStatus: model.StatusDone, ActorID: 42,
	})
	require.True(t, res.Success, res.Error)

	require.Len(t, sink.events, 1, "exactly one event expected")
	assert.Equal(t, []string{"project:7:tickets"}, sink.channels)
	ev := sink.events[0]
	assert.Equal(t, EventMoved, ev.Type)
	assert.Equal(t, uint64(1), ev.TicketID)
	assert.Equal(t, uint64(42), ev.ActorID)
	assert.Equal(t, model.StatusTodo, ev.FromStatus)
	assert.Equal(t, model.StatusDone, ev.ToStatus)
	assert.Equal(t, res.Ticket.Position, ev.Position)
	assert.NotEmpty(t, ev.ID)
}

func TestMoveValidation(t *testing.T) {
	store := newFakeStore(ticket(1, 7, model.StatusTodo, 1000))
	m := newMover(store, &fakeSink{})

	res := m.Move(context.Background(), MoveRequest{
		TicketID: 1, ProjectID: 7, NewStatus: "archived", ActorID: 1,
	})
	assert.False(t, res.Success)
	assert.Equal(t, MoveErrValidation, res.Kind)

	res = m.Move(context.Background(), MoveRequest{ProjectID: 7, NewStatus: model.StatusTodo})
	assert.False(t, res.Success)
	assert.Equal(t, MoveErrValidation, res.Kind)
}

func TestMoveTicketNotFound(t *testing.T) {
	store := newFakeStore(ticket(1, 7, model.StatusTodo, 1000))
	m := newMover(store, &fakeSink{})

	res := m.Move(context.Background(), MoveRequest{
		TicketID: 99, ProjectID: 7, NewStatus: model.StatusDone, ActorID: 1,
	})
	assert.False(t, res.Success)
	assert.Equal(t, MoveErrNotFound, res.Kind)

	// A ticket that exists in another project is equally invisible.
	res = m.Move(context.Background(), MoveRequest{
		TicketID: 1, ProjectID: 8, NewStatus: model.StatusDone, ActorID: 1,
	})
	assert.False(t, res.Success)
	assert.Equal(t, MoveErrNotFound, res.Kind)
}

func TestMoveStoreFailure(t *testing.T) {
	store := newFakeStore(ticket(1, 7, model.StatusTodo, 1000))
	store.failWrites = true
	sink := &fakeSink{}
	m := newMover(store, sink)

	res := m.Move(context.Background(), MoveRequest{
		TicketID: 1, ProjectID: 7, NewStatus: model.StatusDone, ActorID: 1,
	})
	assert.False(t, res.Success)
	assert.Equal(t, MoveErrStore, res.Kind)
	assert.Empty(t, sink.events, "no notification on failure")
}
