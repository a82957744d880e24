package model

import "time"

// Status identifies the board column a ticket currently lives in.  The set
// of columns is closed: a ticket is always in exactly one of the four
// statuses below, and the pair (ProjectID, Status) is the partition within
// which ticket ordering is meaningful.
type Status string

// The four board columns, in their canonical left-to-right display order.
const (
	StatusBacklog    Status = "backlog"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists every valid column in display order.  Handlers use it to
// build complete board responses even when a column holds no tickets.
var Statuses = []Status{StatusBacklog, StatusTodo, StatusInProgress, StatusDone}

// ValidStatus reports whether s is one of the known board columns.
func ValidStatus(s Status) bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Ticket represents a row in the `tickets` table.  Position is a sparse
// numeric rank: sorting a partition's tickets by (Position, ID) ascending
// yields the column order shown to users.  Position values are not
// contiguous; the gaps are what make a single-ticket move a one-row write.
//
// Fields:
//
//	ID          – primary key identifier.
//	ProjectID   – owning project (partition key, together with Status).
//	Status      – board column (partition key, together with ProjectID).
//	Title       – short summary shown on the card.
//	Description – free-form body text.
//	AssigneeID  – user the ticket is assigned to (nil when unassigned).
//	Position    – sparse ordering rank within the (project, status) partition.
//	CreatedAt   – timestamp when the row was created.
//	UpdatedAt   – timestamp of last update.
type Ticket struct {
	ID          uint64    `json:"id"`          // tickets.id
	ProjectID   uint64    `json:"project_id"`  // tickets.project_id
	Status      Status    `json:"status"`      // tickets.status
	Title       string    `json:"title"`       // tickets.title
	Description string    `json:"description"` // tickets.description
	AssigneeID  *uint64   `json:"assignee_id"` // tickets.assignee_id (nullable)
	Position    int64     `json:"position"`    // tickets.position
	CreatedAt   time.Time `json:"created_at"`  // tickets.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // tickets.updated_at
}
