// This file defines repository methods for projects. A project is the board
// that tickets hang off; deleting one cascades to its tickets inside a
// transaction. Only minimal fields (ID and Name) should be exposed in the
// public directory response.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/task-board/internal/model"
)

// ErrProjectNotFound is returned when a project cannot be found in the DB.
var ErrProjectNotFound = errors.New("project not found")

// ProjectRepo encapsulates all database queries related to projects.
type ProjectRepo struct {
	db *sql.DB // underlying database connection pool
}

// NewProjectRepo constructs a ProjectRepo with the provided DB handle.
func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// Create inserts a new project. On success the ID field is populated with
// the auto-generated value and a follow-up SELECT fills the DB-defaulted
// timestamps so callers receive a fully populated record.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	const qInsert = "INSERT INTO projects (owner_id, name) VALUES (?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, p.OwnerID, p.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	const qSelect = "SELECT owner_id, name, created_at, updated_at FROM projects WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, p.ID).
		Scan(&p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID fetches a project by its ID regardless of owner. It returns
// ErrProjectNotFound if no row is found.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (*model.Project, error) {
	const q = "SELECT id, owner_id, name, created_at, updated_at FROM projects WHERE id = ?"
	var p model.Project
	if err := r.db.QueryRowContext(ctx, q, id).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByIDAndOwner fetches a project by id but only if it belongs to the
// specified owner. If the project doesn't exist or is owned by someone
// else, ErrProjectNotFound is returned.
func (r *ProjectRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Project, error) {
	const q = "SELECT id, owner_id, name, created_at, updated_at FROM projects WHERE id = ? AND owner_id = ?"
	var p model.Project
	if err := r.db.QueryRowContext(ctx, q, id, ownerID).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByOwner returns all projects for a specific owner ordered by id.
func (r *ProjectRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Project, error) {
	const q = `SELECT id, owner_id, name, created_at, updated_at
	           FROM projects WHERE owner_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Project
	for rows.Next() {
		p := new(model.Project)
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns all projects regardless of owner. It backs the public
// project directory endpoint; only ID and Name are selected to avoid
// exposing owner or timestamp fields.
func (r *ProjectRepo) ListAll(ctx context.Context) ([]*model.Project, error) {
	const q = `SELECT id, name FROM projects ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Project
	for rows.Next() {
		p := &model.Project{}
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateName updates the project name if it belongs to the provided owner.
// It returns sql.ErrNoRows when no row is affected (not found / not owned).
func (r *ProjectRepo) UpdateName(ctx context.Context, id, ownerID uint64, name string) error {
	const q = `UPDATE projects
	           SET name = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, name, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByIDAndOwner removes a project and its tickets provided it belongs
// to the specified owner. If the project does not exist, sql.ErrNoRows is
// returned. If it exists but is owned by a different user, ErrForbidden is
// returned. The deletion occurs within a transaction to maintain integrity.
func (r *ProjectRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
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

	// Verify the project exists and ownership matches.
	var dbOwnerID uint64
	if err = tx.QueryRowContext(ctx, `SELECT owner_id FROM projects WHERE id = ?`, id).Scan(&dbOwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return err
	}
	if dbOwnerID != ownerID {
		return ErrForbidden
	}
	// Cascade delete: tickets first, then the project row.
	if _, err = tx.ExecContext(ctx, `DELETE FROM tickets WHERE project_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}
