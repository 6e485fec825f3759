package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/dex"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/flags"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestFlags(t *testing.T, env *testEnv) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 2})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	store, err := flags.NewStore(client)
	require.NoError(t, err)
	env.h.Flags = store
}

func TestFlags_NotConfigured(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/flags", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/v1/flags/dex.MuesliSwap.enabled", FlagUpdateRequest{Value: false})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlags_CRUD(t *testing.T) {
	env := newTestEnv(t)
	withTestFlags(t, env)

	key := flags.DexEnabledKey(dex.MuesliSwapIdentifier)

	rec := env.do(t, http.MethodGet, "/v1/flags/"+key, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/flags/bad%20key", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/v1/flags/"+key, FlagUpdateRequest{Value: true})
	require.Equal(t, http.StatusOK, rec.Code)
	var f flags.Flag
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, key, f.Key)
	assert.True(t, f.Value)

	rec = env.do(t, http.MethodGet, "/v1/flags", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list FlagsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)

	rec = env.do(t, http.MethodDelete, "/v1/flags/"+key, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/v1/flags/"+key, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPools_DisabledDex(t *testing.T) {
	env := newTestEnv(t)
	withTestFlags(t, env)
	env.seedPool(t)

	key := flags.DexEnabledKey(dex.MuesliSwapIdentifier)
	rec := env.do(t, http.MethodPut, "/v1/flags/"+key, FlagUpdateRequest{Value: false})
	require.Equal(t, http.StatusOK, rec.Code)

	// Switched off adapters drop out of the default selection
	rec = env.do(t, http.MethodGet, "/v1/pools", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PoolsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Items)

	rec = env.do(t, http.MethodGet, "/v1/pools?dex="+dex.MuesliSwapIdentifier, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/v1/flags/"+key, FlagUpdateRequest{Value: true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/pools", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 1)
}
