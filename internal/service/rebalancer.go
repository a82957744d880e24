package service

import (
	"context"

	"github.com/iliyamo/task-board/internal/model"
	"github.com/iliyamo/task-board/internal/ordering"
	"github.com/iliyamo/task-board/internal/repository"
)

// TicketStore is the persistence boundary the move coordinator and the
// rebalancer operate through. *repository.TicketRepo satisfies it; tests
// substitute an in-memory fake.
type TicketStore interface {
	// ListByPartition returns one column's tickets sorted by (position, id).
	ListByPartition(ctx context.Context, projectID uint64, status model.Status) ([]model.Ticket, error)
	// GetByID returns a single ticket or repository.ErrTicketNotFound.
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	// WriteOrder persists one ticket's new column and position and returns
	// the refreshed record.
	WriteOrder(ctx context.Context, id uint64, status model.Status, position int64) (*model.Ticket, error)
	// WriteOrderBatch rewrites many positions, used by the rebalancer.
	WriteOrderBatch(ctx context.Context, updates []repository.PositionUpdate) error
}

// Rebalancer restores uniform spacing across one (project, status)
// partition. It changes no ticket's logical position, only its numeric
// coordinate, so running it twice in a row produces identical output.
type Rebalancer struct {
	store TicketStore
}

// NewRebalancer returns a Rebalancer over the given store.
func NewRebalancer(store TicketStore) *Rebalancer {
	return &Rebalancer{store: store}
}

// Rebalance reads the partition in its current order and rewrites every
// ticket's position to (index+1)*step. The write is a batch of per-row
// updates; a crash partway through leaves the partition ordered well enough
// for the next rebalance to repair, since reads tie-break equal positions
// by ticket id.
func (r *Rebalancer) Rebalance(ctx context.Context, projectID uint64, status model.Status) error {
	tickets, err := r.store.ListByPartition(ctx, projectID, status)
	if err != nil {
		return err
	}
	if len(tickets) == 0 {
		return nil
	}
	updates := make([]repository.PositionUpdate, 0, len(tickets))
	for i, t := range tickets {
		updates = append(updates, repository.PositionUpdate{
			TicketID: t.ID,
			Position: ordering.Rebalanced(i),
		})
	}
	return r.store.WriteOrderBatch(ctx, updates)
}
