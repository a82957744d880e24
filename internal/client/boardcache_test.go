package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/task-board/internal/model"
	"github.com/iliyamo/task-board/internal/service"
)

// stubFetcher returns a fixed board and counts fetches.
type stubFetcher struct {
	tickets []model.Ticket
	calls   int
	err     error
}

func (f *stubFetcher) BoardTickets(context.Context, uint64) ([]model.Ticket, error) {
	f.calls++
	return f.tickets, f.err
}

func ticket(id uint64, status model.Status, pos int64) model.Ticket {
	return model.Ticket{ID: id, ProjectID: 7, Status: status, Title: "t", Position: pos}
}

func loadedCache() *BoardCache {
	b := New(7, &stubFetcher{})
	b.Load([]model.Ticket{
		ticket(1, model.StatusTodo, 1000),
		ticket(2, model.StatusTodo, 2000),
		ticket(3, model.StatusTodo, 3000),
		ticket(4, model.StatusDone, 1000),
	})
	return b
}

func columnIDs(b *BoardCache, status model.Status) []uint64 {
	col := b.Column(status)
	ids := make([]uint64, len(col))
	for i, t := range col {
		ids[i] = t.ID
	}
	return ids
}

func boardSnapshot(b *BoardCache) map[model.Status][]model.Ticket {
	out := make(map[model.Status][]model.Ticket, len(model.Statuses))
	for _, s := range model.Statuses {
		out[s] = b.Column(s)
	}
	return out
}

func TestLoadSortsByPositionThenID(t *testing.T) {
	b := New(7, &stubFetcher{})
	// Duplicate positions (the accepted concurrent-move artifact) must
	// still yield a deterministic order via the id tie-break.
	b.Load([]model.Ticket{
		ticket(5, model.StatusTodo, 2000),
		ticket(2, model.StatusTodo, 1000),
		ticket(3, model.StatusTodo, 1000),
	})
	assert.Equal(t, []uint64{2, 3, 5}, columnIDs(b, model.StatusTodo))
}

func TestSpeculativeMove(t *testing.T) {
	b := loadedCache()

	m, ok := b.BeginMove(1, model.StatusDone, 1)
	require.True(t, ok)
	assert.Equal(t, MoveSpeculative, m.State)

	// The ticket left its source column and appeared at the drop index
	// in the destination, before any server round trip.
	assert.Equal(t, []uint64{2, 3}, columnIDs(b, model.StatusTodo))
	assert.Equal(t, []uint64{4, 1}, columnIDs(b, model.StatusDone))
}

func TestRollbackRestoresExactSnapshot(t *testing.T) {
	b := loadedCache()
	before := boardSnapshot(b)

	m, ok := b.BeginMove(1, model.StatusDone, 0)
	require.True(t, ok)
	require.NotEqual(t, before, boardSnapshot(b), "speculative state should differ")

	b.Rollback(m)
	assert.Equal(t, MoveRolledBack, m.State)
	assert.Equal(t, before, boardSnapshot(b), "rollback must restore the pre-move board exactly")
}

func TestCommitServerValuesWin(t *testing.T) {
	b := loadedCache()

	// Drop at the top of done, but the server allocated a position that
	// sorts it after ticket 4.
	m, ok := b.BeginMove(1, model.StatusDone, 0)
	require.True(t, ok)

	authoritative := ticket(1, model.StatusDone, 2000)
	b.Commit(m, authoritative)
	assert.Equal(t, MoveCommitted, m.State)
	assert.Equal(t, []uint64{4, 1}, columnIDs(b, model.StatusDone))

	done := b.Column(model.StatusDone)
	assert.Equal(t, int64(2000), done[1].Position, "committed ticket carries the server position")
}

func TestBeginMoveUnknownTicket(t *testing.T) {
	b := loadedCache()
	_, ok := b.BeginMove(99, model.StatusDone, 0)
	assert.False(t, ok)
}

func TestEventInvalidation(t *testing.T) {
	b := loadedCache()

	// Events for other projects are ignored.
	assert.False(t, b.HandleEvent(service.Event{ProjectID: 8, Type: service.EventMoved}))
	assert.False(t, b.Stale())

	m, ok := b.BeginMove(1, model.StatusDone, 0)
	require.True(t, ok)

	// An event for this project marks the cache stale and abandons the
	// in-flight speculative move: server truth has moved on without us.
	assert.True(t, b.HandleEvent(service.Event{ProjectID: 7, Type: service.EventMoved}))
	assert.True(t, b.Stale())
	assert.Equal(t, MoveRolledBack, m.State)

	// Rolling back an abandoned move must not clobber the board with its
	// stale snapshot.
	afterEvent := boardSnapshot(b)
	b.Rollback(m)
	assert.Equal(t, afterEvent, boardSnapshot(b))
}

func TestRefreshReplacesBoard(t *testing.T) {
	fetcher := &stubFetcher{tickets: []model.Ticket{
		ticket(9, model.StatusBacklog, 1000),
	}}
	b := New(7, fetcher)
	b.Load([]model.Ticket{ticket(1, model.StatusTodo, 1000)})
	b.HandleEvent(service.Event{ProjectID: 7, Type: service.EventUpdated})
	require.True(t, b.Stale())

	require.NoError(t, b.Refresh(context.Background()))
	assert.False(t, b.Stale())
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, []uint64{9}, columnIDs(b, model.StatusBacklog))
	assert.Empty(t, b.Column(model.StatusTodo))
}
