package repository

import (
	"context"
	"ctchen222/tictactoe-timetravel/internal/api/models"
	"ctchen222/tictactoe-timetravel/internal/db"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	DB, err := db.Connect(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { DB.Close() })
	require.NoError(t, db.InitializeDB(ctx, DB))
	repo := NewUserRepository(DB)

	t.Run("CreateUser assigns an id", func(t *testing.T) {
		user := &models.User{Username: "alice"}
		require.NoError(t, repo.CreateUser(ctx, user, "hunter22"))
		assert.NotZero(t, user.ID)
		assert.NotEqual(t, "hunter22", user.PasswordHash)
	})

	t.Run("CreateUser with a stored username", func(t *testing.T) {
		err := repo.CreateUser(ctx, &models.User{Username: "alice"}, "another1")
		assert.ErrorIs(t, err, ErrDuplicateUsername)
	})

	t.Run("GetUserByUsername", func(t *testing.T) {
		user, err := repo.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)

		missing, err := repo.GetUserByUsername(ctx, "bob")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}
