// Package service holds the board's write-path logic: the move coordinator,
// the partition rebalancer and the change notifier that fans ticket
// mutations out to connected clients.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/task-board/internal/model"
)

// EventType classifies a ticket change event.
type EventType string

// The fixed set of event types published on a project's channel.
const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
	EventMoved   EventType = "moved"
)

// Event is the minimal diff summary broadcast after a ticket mutation.
// Consumers treat it as an invalidation signal and refetch the board; they
// must not rely on it carrying the full ticket. Delivery is best-effort,
// at-most-once, unordered, with no replay.
type Event struct {
	ID         string       `json:"id"`                    // correlation id, one per publish
	Type       EventType    `json:"type"`                  // created | updated | deleted | moved
	TicketID   uint64       `json:"ticket_id"`             // ticket that changed
	ProjectID  uint64       `json:"project_id"`            // owning project
	ActorID    uint64       `json:"actor_id"`              // user who made the change
	FromStatus model.Status `json:"from_status,omitempty"` // column before a move
	ToStatus   model.Status `json:"to_status,omitempty"`   // column after a move
	Position   int64        `json:"position,omitempty"`    // new position after a move
	OccurredAt time.Time    `json:"occurred_at"`           // UTC publish time
}

// ProjectChannel names the pub/sub channel carrying ticket-level events for
// one project. Every client viewing the project's board subscribes here.
func ProjectChannel(projectID uint64) string {
	return fmt.Sprintf("project:%d:tickets", projectID)
}

// TicketChannel names the per-ticket channel used for comment and
// attachment events. It shares the notifier mechanism but is populated by
// the comment subsystem, not by this package.
func TicketChannel(ticketID uint64) string {
	return fmt.Sprintf("ticket:%d:comments", ticketID)
}

// EventSink receives change events after successful writes. The move
// coordinator publishes through this interface so tests can capture events
// without a broker.
type EventSink interface {
	Publish(ctx context.Context, channel string, ev Event)
}

// Notifier broadcasts change events over Redis pub/sub. A nil Redis client
// disables it: Publish becomes a no-op so the write path keeps working when
// Redis is not configured, and Subscribe reports the missing transport.
type Notifier struct {
	rdb *redis.Client // may be nil when Redis is unavailable
}

// NewNotifier returns a Notifier over the given Redis client. Passing nil
// is allowed and yields a disabled notifier.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends one event on the given channel. It never blocks the caller
// beyond the Redis round trip and never fails the write path: marshal or
// transport errors are logged and dropped. A missed notification is
// compensated for by the subscriber's next refetch or page load.
func (n *Notifier) Publish(ctx context.Context, channel string, ev Event) {
	if n == nil || n.rdb == nil {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("notifier: marshal event failed: %v", err)
		return
	}
	if err := n.rdb.Publish(ctx, channel, body).Err(); err != nil {
		log.Printf("notifier: publish on %s failed: %v", channel, err)
	}
}

// Subscribe opens a stream of events for one channel. The returned cancel
// function closes the subscription and the channel. Messages that fail to
// decode are logged and skipped so one malformed payload cannot wedge a
// subscriber.
func (n *Notifier) Subscribe(ctx context.Context, channel string) (<-chan Event, func(), error) {
	if n == nil || n.rdb == nil {
		return nil, nil, fmt.Errorf("notifier: transport not configured")
	}
	ps := n.rdb.Subscribe(ctx, channel)
	// Force the subscription to be established before returning so callers
	// don't miss events published right after Subscribe.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("notifier: decode event on %s failed: %v", channel, err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	cancel := func() { _ = ps.Close() }
	return out, cancel, nil
}
