package events

import (
	"context"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TOPICS_REBUILT").
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

// Publisher sends events to whatever bus is configured.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Envelope is the wire form of an event.
func Envelope(e Event) BaseEvent {
	return BaseEvent{Type: e.EventType(), Data: e.Payload(), OccurredAt: e.Timestamp()}
}
