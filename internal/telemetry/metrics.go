package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GameMetrics holds the counters recorded by the session service.
type GameMetrics struct {
	sessionsCreated metric.Int64Counter
	movesAccepted   metric.Int64Counter
	movesRejected   metric.Int64Counter
	jumps           metric.Int64Counter
	gamesWon        metric.Int64Counter
}

// NewGameMetrics registers the game counters on meter.
func NewGameMetrics(meter metric.Meter) (*GameMetrics, error) {
	var m GameMetrics
	var err, e error

	m.sessionsCreated, e = meter.Int64Counter("tictactoe.sessions.created",
		metric.WithDescription("Game sessions started"))
	err = errors.Join(err, e)
	m.movesAccepted, e = meter.Int64Counter("tictactoe.moves.accepted",
		metric.WithDescription("Moves applied to a board"))
	err = errors.Join(err, e)
	m.movesRejected, e = meter.Int64Counter("tictactoe.moves.rejected",
		metric.WithDescription("Moves and jumps refused by the game"))
	err = errors.Join(err, e)
	m.jumps, e = meter.Int64Counter("tictactoe.history.jumps",
		metric.WithDescription("Cursor moves through history"))
	err = errors.Join(err, e)
	m.gamesWon, e = meter.Int64Counter("tictactoe.games.won",
		metric.WithDescription("Moves that completed a line"))
	err = errors.Join(err, e)

	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *GameMetrics) SessionCreated(ctx context.Context) {
	m.sessionsCreated.Add(ctx, 1)
}

func (m *GameMetrics) MoveAccepted(ctx context.Context) {
	m.movesAccepted.Add(ctx, 1)
}

// Rejected records a refused transition; op is "move" or "jump".
func (m *GameMetrics) Rejected(ctx context.Context, op string, reason error) {
	m.movesRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("reason", reason.Error()),
	))
}

func (m *GameMetrics) Jumped(ctx context.Context) {
	m.jumps.Add(ctx, 1)
}

func (m *GameMetrics) GameWon(ctx context.Context, mark string) {
	m.gamesWon.Add(ctx, 1, metric.WithAttributes(attribute.String("mark", mark)))
}
