package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SESSION_TOKEN_SECRET", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "roster-console", cfg.TokenIssuer)
	assert.Equal(t, 7*24*time.Hour, cfg.RememberTTL)
	assert.Equal(t, time.Duration(0), cfg.EphemeralTTL)
	assert.Equal(t, BackendMemory, cfg.DurableBackend)
	assert.Equal(t, "session_store", cfg.MongoCollection)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("SESSION_TOKEN_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_Backend(t *testing.T) {
	t.Setenv("SESSION_TOKEN_SECRET", "test-secret")
	t.Setenv("SESSION_DURABLE_BACKEND", " Redis ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.DurableBackend)

	t.Setenv("SESSION_DURABLE_BACKEND", "etcd")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "durable backend")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.RememberTTL = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.EphemeralTTL = -time.Second
	assert.Error(t, cfg.Validate())
}
