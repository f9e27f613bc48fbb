package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults from environment", func(t *testing.T) {
		// Given: only the required secret in the environment
		t.Setenv("JWT_SECRET", "secret")

		// When: loading without a file
		cfg, err := Load("")

		// Then: defaults are applied
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, StoreRedis, cfg.Store)
		assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.Equal(t, 72*time.Hour, cfg.Auth.TokenTTL)
	})

	t.Run("Environment overrides defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("SESSION_STORE", "memory")
		t.Setenv("SESSION_TTL", "30m")

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, StoreMemory, cfg.Store)
		assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	})

	t.Run("YAML file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		content := "http-addr: \":9090\"\nstore: memory\nauth:\n  jwt-secret: from-file\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.HTTPAddr)
		assert.Equal(t, StoreMemory, cfg.Store)
		assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	})

	t.Run("Missing secret is an error", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		_, err := Load("")

		assert.Error(t, err)
	})

	t.Run("Unknown store is an error", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("SESSION_STORE", "etcd")

		_, err := Load("")

		assert.Error(t, err)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("Returns the loaded config", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")

		cfg := MustLoad("")

		assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	})

	t.Run("Panics on an invalid config", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		assert.Panics(t, func() { MustLoad("") })
	})
}
