package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BLOCKFROST_PROJECT_ID", "")
	t.Setenv("ALLOW_API_FALLBACK", "")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("FETCH_CONCURRENCY", "")

	cfg := Load()
	assert.False(t, cfg.HasLedgerProvider())
	assert.True(t, cfg.AllowAPIFallback)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, 8, cfg.FetchConcurrency)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BLOCKFROST_PROJECT_ID", "mainnetabc")
	t.Setenv("ALLOW_API_FALLBACK", "false")
	t.Setenv("FETCH_CONCURRENCY", "3")
	t.Setenv("POLL_INTERVAL", "15s")
	t.Setenv("DEV_MODE", "not-a-bool")

	cfg := Load()
	assert.True(t, cfg.HasLedgerProvider())
	assert.False(t, cfg.AllowAPIFallback)
	assert.Equal(t, 3, cfg.FetchConcurrency)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.False(t, cfg.DevMode, "invalid bools fall back to the default")
}

func TestValidate(t *testing.T) {
	t.Setenv("BLOCKFROST_PROJECT_ID", "")
	t.Setenv("ALLOW_API_FALLBACK", "false")
	t.Setenv("DEV_MODE", "true")

	cfg := Load()
	require.Error(t, cfg.Validate(), "no data source at all")

	cfg.AllowAPIFallback = true
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.ValidateAPI())

	cfg.DevMode = false
	cfg.APIKey = ""
	require.NoError(t, cfg.Validate(), "the indexer needs no api key")
	require.Error(t, cfg.ValidateAPI())

	cfg.APIKey = "secret"
	require.NoError(t, cfg.ValidateAPI())

	cfg.FetchConcurrency = 0
	require.Error(t, cfg.Validate())
	require.Error(t, cfg.ValidateAPI())
}
