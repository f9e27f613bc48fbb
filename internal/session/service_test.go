package session

import (
	"context"
	"ctchen222/tictactoe-timetravel/internal/events"
	eventmocks "ctchen222/tictactoe-timetravel/internal/events/mocks"
	"ctchen222/tictactoe-timetravel/internal/game"
	"ctchen222/tictactoe-timetravel/internal/repository"
	repomocks "ctchen222/tictactoe-timetravel/internal/repository/mocks"
	"ctchen222/tictactoe-timetravel/internal/telemetry"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/mock/gomock"
)

func newMetrics(t *testing.T) *telemetry.GameMetrics {
	t.Helper()
	m, err := telemetry.NewGameMetrics(otel.Meter("test"))
	require.NoError(t, err)
	return m
}

func newTestService(t *testing.T) (*sessionService, *events.LocalBus) {
	t.Helper()
	bus := events.NewLocalBus()
	svc := NewService(repository.NewMemorySessionRepository(time.Hour), bus, newMetrics(t)).(*sessionService)
	return svc, bus
}

func TestService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	// Given: a new session
	created, err := svc.Create(ctx, "alice")
	require.NoError(t, err)

	// Then: it starts empty with X to move
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, make([]string, game.BoardSize), created.Board)
	assert.Equal(t, "Next player: X", created.Status)
	assert.Equal(t, game.PlayerX, created.Next)
	assert.Equal(t, 0, created.Step)
	assert.Equal(t, []game.Move{{Step: 0, Label: "Go to game start"}}, created.Moves)

	// When: the owner reads it back
	got, err := svc.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	// When: another player reads it
	_, err = svc.Get(ctx, "mallory", created.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// When: the id is unknown
	_, err = svc.Get(ctx, "alice", "missing")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestService_MoveAndJump(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	created, err := svc.Create(ctx, "alice")
	require.NoError(t, err)

	for _, cell := range []int{0, 3, 1, 4, 2} {
		_, err = svc.Move(ctx, "alice", created.ID, cell)
		require.NoError(t, err)
	}

	view, err := svc.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, game.PlayerX, view.Winner)
	assert.Equal(t, "Winner: X", view.Status)
	assert.Len(t, view.Moves, 6)

	t.Run("Move after a win is rejected", func(t *testing.T) {
		_, err := svc.Move(ctx, "alice", created.ID, 8)
		assert.ErrorIs(t, err, game.ErrGameOver)
		assert.ErrorIs(t, err, game.ErrRejected)
	})

	t.Run("Jump back and branch", func(t *testing.T) {
		view, err := svc.Jump(ctx, "alice", created.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, view.Step)
		assert.Equal(t, game.PlayerX, view.Next)
		assert.Len(t, view.Moves, 6, "jumping keeps history")

		view, err = svc.Move(ctx, "alice", created.ID, 8)
		require.NoError(t, err)
		assert.Equal(t, 3, view.Step)
		assert.Len(t, view.Moves, 4, "a move after a jump drops later history")
		assert.Equal(t, "X", view.Board[8])
	})

	t.Run("Jump out of range is rejected", func(t *testing.T) {
		_, err := svc.Jump(ctx, "alice", created.ID, 10)
		assert.ErrorIs(t, err, game.ErrStepOutOfRange)
	})

	t.Run("Foreign player cannot move", func(t *testing.T) {
		_, err := svc.Move(ctx, "mallory", created.ID, 5)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Occupied cell leaves the session unchanged", func(t *testing.T) {
		before, err := svc.Get(ctx, "alice", created.ID)
		require.NoError(t, err)

		_, err = svc.Move(ctx, "alice", created.ID, 8)
		assert.ErrorIs(t, err, game.ErrCellOccupied)

		after, err := svc.Get(ctx, "alice", created.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestService_PublishesUpdates(t *testing.T) {
	ctx := context.Background()
	svc, bus := newTestService(t)
	created, err := svc.Create(ctx, "alice")
	require.NoError(t, err)

	ch, cancel := bus.Subscribe(ctx, created.ID)
	defer cancel()

	_, err = svc.Move(ctx, "alice", created.ID, 4)
	require.NoError(t, err)

	select {
	case e := <-ch:
		assert.Equal(t, events.SessionUpdated, e.Type)
		var view View
		require.NoError(t, json.Unmarshal(e.Payload, &view))
		assert.Equal(t, "X", view.Board[4])
		assert.Equal(t, 1, view.Step)
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}

	// a rejected move publishes nothing
	_, err = svc.Move(ctx, "alice", created.ID, 4)
	require.Error(t, err)
	select {
	case e := <-ch:
		t.Errorf("unexpected event after rejection: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, svc.Delete(ctx, "alice", created.ID))
	select {
	case e := <-ch:
		assert.Equal(t, events.SessionDeleted, e.Type)
	case <-time.After(time.Second):
		t.Fatal("no delete published")
	}
}

func TestService_WithMocks(t *testing.T) {
	ctx := context.Background()

	t.Run("Repository failure on create", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := repomocks.NewMockSessionRepository(ctrl)
		pub := eventmocks.NewMockPublisher(ctrl)
		svc := NewService(repo, pub, newMetrics(t))

		boom := errors.New("redis down")
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(boom)

		_, err := svc.Create(ctx, "alice")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Publish failure does not fail the move", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := repomocks.NewMockSessionRepository(ctrl)
		pub := eventmocks.NewMockPublisher(ctrl)
		svc := NewService(repo, pub, newMetrics(t))

		repo.EXPECT().Update(gomock.Any(), "s1", gomock.Any()).DoAndReturn(
			func(ctx context.Context, id string, fn repository.UpdateFunc) (*repository.Session, error) {
				s := &repository.Session{ID: id, OwnerID: "alice", State: game.New()}
				if err := fn(s); err != nil {
					return nil, err
				}
				return s, nil
			})
		pub.EXPECT().Publish(gomock.Any(), "s1", gomock.Any()).Return(errors.New("publish failed"))

		view, err := svc.Move(ctx, "alice", "s1", 0)
		require.NoError(t, err)
		assert.Equal(t, "X", view.Board[0])
	})

	t.Run("Rejected move is not published", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := repomocks.NewMockSessionRepository(ctrl)
		pub := eventmocks.NewMockPublisher(ctrl)
		svc := NewService(repo, pub, newMetrics(t))

		repo.EXPECT().Update(gomock.Any(), "s1", gomock.Any()).DoAndReturn(
			func(ctx context.Context, id string, fn repository.UpdateFunc) (*repository.Session, error) {
				s := &repository.Session{ID: id, OwnerID: "alice", State: game.New()}
				return nil, fn(s)
			})
		pub.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Move(ctx, "alice", "s1", 9)
		assert.ErrorIs(t, err, game.ErrCellOutOfRange)
	})
}
