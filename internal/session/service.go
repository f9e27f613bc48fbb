package session

import (
	"context"
	"ctchen222/tictactoe-timetravel/internal/events"
	"ctchen222/tictactoe-timetravel/internal/game"
	"ctchen222/tictactoe-timetravel/internal/repository"
	"ctchen222/tictactoe-timetravel/internal/telemetry"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("session")

// ErrForbidden is returned when a player touches a session they do not own.
var ErrForbidden = errors.New("session belongs to another player")

// SessionService defines the game operations available to a player.
type SessionService interface {
	Create(ctx context.Context, ownerID string) (*View, error)
	Get(ctx context.Context, ownerID, id string) (*View, error)
	Move(ctx context.Context, ownerID, id string, cell int) (*View, error)
	Jump(ctx context.Context, ownerID, id string, step int) (*View, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type sessionService struct {
	repo      repository.SessionRepository
	publisher events.Publisher
	metrics   *telemetry.GameMetrics
	newID     func() string
}

// NewService creates a SessionService. Accepted transitions are announced on publisher.
func NewService(repo repository.SessionRepository, publisher events.Publisher, metrics *telemetry.GameMetrics) SessionService {
	return &sessionService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		newID:     func() string { return uuid.New().String() },
	}
}

// Create starts a new game owned by ownerID.
func (s *sessionService) Create(ctx context.Context, ownerID string) (*View, error) {
	ctx, span := tracer.Start(ctx, "session.Create", trace.WithAttributes(
		attribute.String("player.id", ownerID),
	))
	defer span.End()

	sess := &repository.Session{ID: s.newID(), OwnerID: ownerID, State: game.New()}
	if err := s.repo.Create(ctx, sess); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create session")
		return nil, err
	}
	span.SetAttributes(attribute.String("session.id", sess.ID))
	s.metrics.SessionCreated(ctx)
	slog.InfoContext(ctx, "Session created", "session.id", sess.ID, "player.id", ownerID)

	return NewView(sess), nil
}

// Get returns the current view of a session.
func (s *sessionService) Get(ctx context.Context, ownerID, id string) (*View, error) {
	ctx, span := tracer.Start(ctx, "session.Get", trace.WithAttributes(
		attribute.String("player.id", ownerID),
		attribute.String("session.id", id),
	))
	defer span.End()

	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not find session")
		return nil, err
	}
	if sess.OwnerID != ownerID {
		span.SetStatus(codes.Error, "Player does not own session")
		return nil, ErrForbidden
	}
	return NewView(sess), nil
}

// Move places the next mark on cell.
func (s *sessionService) Move(ctx context.Context, ownerID, id string, cell int) (*View, error) {
	ctx, span := tracer.Start(ctx, "session.Move", trace.WithAttributes(
		attribute.String("player.id", ownerID),
		attribute.String("session.id", id),
		attribute.Int("move.cell", cell),
	))
	defer span.End()

	sess, err := s.transition(ctx, ownerID, id, "move", func(st game.State) (game.State, error) {
		return st.ApplyMove(cell)
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Move not applied")
		return nil, err
	}
	span.SetAttributes(attribute.Bool("move.valid", true))
	s.metrics.MoveAccepted(ctx)

	if w := game.Winner(sess.State.CurrentBoard()); w != game.None {
		s.metrics.GameWon(ctx, string(w))
		slog.InfoContext(ctx, "Game won", "session.id", id, "winner", w, "step", sess.State.Step())
	}

	view := NewView(sess)
	s.publish(ctx, view)
	return view, nil
}

// Jump moves the session's cursor to step.
func (s *sessionService) Jump(ctx context.Context, ownerID, id string, step int) (*View, error) {
	ctx, span := tracer.Start(ctx, "session.Jump", trace.WithAttributes(
		attribute.String("player.id", ownerID),
		attribute.String("session.id", id),
		attribute.Int("jump.step", step),
	))
	defer span.End()

	sess, err := s.transition(ctx, ownerID, id, "jump", func(st game.State) (game.State, error) {
		return st.JumpTo(step)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Jump not applied")
		return nil, err
	}
	s.metrics.Jumped(ctx)

	view := NewView(sess)
	s.publish(ctx, view)
	return view, nil
}

// Delete discards a session.
func (s *sessionService) Delete(ctx context.Context, ownerID, id string) error {
	ctx, span := tracer.Start(ctx, "session.Delete", trace.WithAttributes(
		attribute.String("player.id", ownerID),
		attribute.String("session.id", id),
	))
	defer span.End()

	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not find session")
		return err
	}
	if sess.OwnerID != ownerID {
		span.SetStatus(codes.Error, "Player does not own session")
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete session")
		return err
	}

	if err := s.publisher.Publish(ctx, id, events.Event{Type: events.SessionDeleted}); err != nil {
		slog.ErrorContext(ctx, "failed to publish session_deleted event", "session.id", id, "error", err)
	}
	slog.InfoContext(ctx, "Session deleted", "session.id", id)
	return nil
}

// transition loads the session, applies fn and stores the result in one repository update.
// A rejected transition stores nothing.
func (s *sessionService) transition(ctx context.Context, ownerID, id, op string, fn func(game.State) (game.State, error)) (*repository.Session, error) {
	sess, err := s.repo.Update(ctx, id, func(sess *repository.Session) error {
		if sess.OwnerID != ownerID {
			return ErrForbidden
		}
		next, err := fn(sess.State)
		if err != nil {
			return err
		}
		sess.State = next
		return nil
	})
	if err != nil {
		if errors.Is(err, game.ErrRejected) {
			s.metrics.Rejected(ctx, op, err)
			slog.WarnContext(ctx, "transition rejected", "session.id", id, "op", op, "error", err)
		}
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) publish(ctx context.Context, view *View) {
	payload, err := json.Marshal(view)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling view", "session.id", view.ID, "error", err)
		return
	}
	event := events.Event{Type: events.SessionUpdated, Payload: payload}
	if err := s.publisher.Publish(ctx, view.ID, event); err != nil {
		slog.ErrorContext(ctx, "failed to publish session update", "session.id", view.ID, "error", err)
	}
}
