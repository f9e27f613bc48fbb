package proto

import "ctchen222/tictactoe-timetravel/internal/session"

// Client message types
const (
	TypeMove = "move"
	TypeJump = "jump"
)

// Server message types
const (
	TypeState    = "state"
	TypeRejected = "rejected"
	TypeDeleted  = "deleted"
	TypeError    = "error"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type string `json:"type" validate:"required,oneof=move jump"`
	Cell *int   `json:"cell,omitempty" validate:"required_if=Type move"`
	Step *int   `json:"step,omitempty" validate:"required_if=Type jump"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type    string        `json:"type" validate:"required"`
	Reason  string        `json:"reason,omitempty"`
	Session *session.View `json:"session,omitempty"`
}
