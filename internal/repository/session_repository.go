package repository

import (
	"context"
	"ctchen222/tictactoe-timetravel/internal/game"
	"errors"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("repository.session")

// ErrSessionNotFound is returned when a session id is unknown or has expired.
var ErrSessionNotFound = errors.New("session not found")

// ErrMissingState is returned when a stored session carries no game history.
var ErrMissingState = errors.New("session has no game state")

// Session is one game owned by one player.
type Session struct {
	ID      string     `json:"-"`
	OwnerID string     `json:"owner_id"`
	State   game.State `json:"state"`
}

// UpdateFunc transforms a loaded session. Returning an error aborts the update
// and nothing is written.
type UpdateFunc func(s *Session) error

//go:generate mockgen -destination=mocks/mock_session_repository.go -package=mocks ctchen222/tictactoe-timetravel/internal/repository SessionRepository

// SessionRepository defines the interface for session storage.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	FindByID(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*Session, error)
	Delete(ctx context.Context, id string) error
}
