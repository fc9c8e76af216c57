// Package feed notifies interested parties when a room's participants or
// transactions change. Subscribers re-read the room and recompute balances;
// events carry no payload beyond what changed.
package feed

import (
	"context"
	"fmt"
)

// EventType identifies what changed in a room.
type EventType string

const (
	EventParticipantJoined EventType = "participant_joined"
	EventTransactionAdded  EventType = "transaction_added"
)

// Event announces a change in a room.
type Event struct {
	Type     EventType `json:"type"`
	RoomCode string    `json:"room_code"`
	// ID of the affected record: the participant UID or transaction ID.
	ID string `json:"id,omitempty"`
	// At is the Unix time in milliseconds when the change was recorded.
	At int64 `json:"at"`
}

// Validate checks the event can be routed.
func (e Event) Validate() error {
	if e.RoomCode == "" {
		return fmt.Errorf("event %q: room code required", e.Type)
	}
	switch e.Type {
	case EventParticipantJoined, EventTransactionAdded:
		return nil
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
}

// Handler receives events. It is called synchronously from the publishing
// goroutine and must not block.
type Handler func(Event)

// Feed is a push-model change notification channel, keyed by room code.
type Feed interface {
	// Publish delivers the event to every subscriber of event.RoomCode.
	Publish(ctx context.Context, event Event) error

	// Subscribe registers h for events in roomCode. The returned function
	// removes the subscription and is safe to call more than once.
	Subscribe(roomCode string, h Handler) (unsubscribe func())

	// Close releases any resources held by the feed.
	Close() error
}
