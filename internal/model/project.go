package model

import "time"

// Project represents a board that groups tickets.  Each project belongs to
// one owner and carries one ticket partition per status column.  This struct
// corresponds to a row in the `projects` table.
//
// Fields:
//
//	ID        – primary key identifier.
//	OwnerID   – user ID of the project owner.
//	Name      – unique project name per owner.
//	CreatedAt – timestamp when the project was created.
//	UpdatedAt – timestamp of last update.
type Project struct {
	ID        uint64    `json:"id"`         // projects.id
	OwnerID   uint64    `json:"owner_id"`   // projects.owner_id
	Name      string    `json:"name"`       // projects.name
	CreatedAt time.Time `json:"created_at"` // projects.created_at
	UpdatedAt time.Time `json:"updated_at"` // projects.updated_at
}
