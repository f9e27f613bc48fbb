package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event types
const (
	SessionUpdated = "session_updated"
	SessionDeleted = "session_deleted"
)

// Event represents a message published for one session.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SessionChannel is the Pub/Sub channel for a session.
func SessionChannel(sessionID string) string {
	return fmt.Sprintf("channel:session:%s", sessionID)
}

//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks ctchen222/tictactoe-timetravel/internal/events Publisher

// Publisher sends session events to every subscriber of the session.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, event Event) error
}

// Subscriber delivers events for a session until the returned cancel func is
// called or ctx ends. The channel is closed afterwards.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan Event, func())
}

// Bus is both ends of the event stream.
type Bus interface {
	Publisher
	Subscriber
}
