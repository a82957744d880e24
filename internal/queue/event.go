// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/iliyamo/task-board/internal/model"

// TicketMovedEvent is published when a ticket move is successfully
// persisted. It feeds the activity log consumer; downstream consumers get
// enough information to log or trigger analytics without querying the
// primary database. This pipeline is separate from the Redis change
// notifier: the notifier tells live clients to refetch, this event records
// what happened.
type TicketMovedEvent struct {
	TicketID    uint64       `json:"ticket_id"`
	ProjectID   uint64       `json:"project_id"`
	ProjectName string       `json:"project_name"`
	ActorID     uint64       `json:"actor_id"`
	Title       string       `json:"title"`
	FromStatus  model.Status `json:"from_status"`
	ToStatus    model.Status `json:"to_status"`
	Position    int64        `json:"position"`
	MovedAt     string       `json:"moved_at"`
}
