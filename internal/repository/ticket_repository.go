// Package repository contains data access logic separated from HTTP handlers.
// This file implements the ticket store: the persistence boundary the move
// service and the board handlers read and write through. Ordering inside a
// (project, status) partition is carried by the plain numeric `position`
// column on the ticket row; there is no separate ordering table. Reads sort
// by (position, id) so that a duplicate position produced by two concurrent
// moves still yields a deterministic column order.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/task-board/internal/model"
	"github.com/iliyamo/task-board/internal/ordering"
)

// ErrTicketNotFound is returned when a ticket cannot be found in the DB,
// including the case where it was deleted by a concurrent request between
// the caller's read and write.
var ErrTicketNotFound = errors.New("ticket not found")

// PositionUpdate names one row rewrite inside a rebalance batch.
type PositionUpdate struct {
	TicketID uint64 // ticket whose position is rewritten
	Position int64  // new position value
}

// TicketRepo encapsulates all database queries related to tickets. It
// depends on a sql.DB connection which should be configured elsewhere.
type TicketRepo struct {
	db *sql.DB // underlying database connection pool
}

// NewTicketRepo constructs a TicketRepo with the provided DB handle. This
// allows dependency injection of the database in tests and at startup.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

const ticketColumns = "id, project_id, status, title, description, assignee_id, position, created_at, updated_at"

// scanTicket reads one ticket row from either *sql.Row or *sql.Rows.
func scanTicket(scan func(dest ...any) error) (*model.Ticket, error) {
	var t model.Ticket
	var assignee sql.NullInt64
	if err := scan(&t.ID, &t.ProjectID, &t.Status, &t.Title, &t.Description,
		&assignee, &t.Position, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if assignee.Valid {
		v := uint64(assignee.Int64)
		t.AssigneeID = &v
	}
	return &t, nil
}

// ListByPartition returns all tickets of one board column sorted by
// position ascending, with the ticket id as the tie-break for the rare
// duplicate positions left behind by concurrent moves.
func (r *TicketRepo) ListByPartition(ctx context.Context, projectID uint64, status model.Status) ([]model.Ticket, error) {
	const q = "SELECT " + ticketColumns + ` FROM tickets
	           WHERE project_id = ? AND status = ? ORDER BY position, id`
	rows, err := r.db.QueryContext(ctx, q, projectID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByProject returns every ticket of a project across all columns, in
// column order first and position order within each column. Used by the
// board read endpoint and by clients refetching after a change event.
func (r *TicketRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.Ticket, error) {
	const q = "SELECT " + ticketColumns + ` FROM tickets
	           WHERE project_id = ? ORDER BY status, position, id`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a ticket by its ID. It returns ErrTicketNotFound if no
// row exists.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	const q = "SELECT " + ticketColumns + " FROM tickets WHERE id = ?"
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// Create inserts a new ticket at the end of its column: the position is the
// current partition maximum plus the allocation step, or the step itself
// for an empty column. The max lookup and the insert are two statements in
// one transaction; on success the struct is populated with the generated id,
// position and timestamps.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var maxPos sql.NullInt64
	if err = tx.QueryRowContext(ctx,
		`SELECT MAX(position) FROM tickets WHERE project_id = ? AND status = ?`,
		t.ProjectID, t.Status).Scan(&maxPos); err != nil {
		return err
	}
	if maxPos.Valid {
		t.Position = maxPos.Int64 + ordering.Step
	} else {
		t.Position = ordering.Step
	}

	var assignee any
	if t.AssigneeID != nil {
		assignee = *t.AssigneeID
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO tickets (project_id, status, title, description, assignee_id, position)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ProjectID, t.Status, t.Title, t.Description, assignee, t.Position)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)

	// Follow-up SELECT to populate DB-defaulted timestamps.
	err = tx.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM tickets WHERE id = ?`, t.ID).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	return err
}

// WriteOrder persists a ticket's new column and position in a single row
// update and returns the refreshed record. MySQL reports zero affected
// rows for a no-change update, so existence is verified by the follow-up
// SELECT rather than by RowsAffected.
func (r *TicketRepo) WriteOrder(ctx context.Context, id uint64, status model.Status, position int64) (*model.Ticket, error) {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, position, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// WriteOrderBatch rewrites the positions of many tickets, one UPDATE per
// row inside a single transaction. Used by the rebalancer; tickets deleted
// concurrently are simply skipped by their UPDATE matching nothing.
func (r *TicketRepo) WriteOrderBatch(ctx context.Context, updates []PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	for _, u := range updates {
		if _, err = tx.ExecContext(ctx,
			`UPDATE tickets SET position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			u.Position, u.TicketID); err != nil {
			return err
		}
	}
	return nil
}

// UpdateDetails changes a ticket's title, description and assignee without
// touching its column or position. Returns ErrTicketNotFound when the row
// does not exist.
func (r *TicketRepo) UpdateDetails(ctx context.Context, id uint64, title, description string, assigneeID *uint64) (*model.Ticket, error) {
	var assignee any
	if assigneeID != nil {
		assignee = *assigneeID
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET title = ?, description = ?, assignee_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, assignee, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a ticket scoped to its project. Sibling tickets keep
// their positions; the gap left behind simply persists. Returns
// ErrTicketNotFound when nothing was deleted.
func (r *TicketRepo) Delete(ctx context.Context, id, projectID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tickets WHERE id = ? AND project_id = ?`, id, projectID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTicketNotFound
	}
	return nil
}
