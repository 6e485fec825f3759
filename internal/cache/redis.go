package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/constants"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key is absent from the cache
var ErrNotFound = errors.New("not found in cache")

// RedisCache stores asset decimals and the latest pool snapshots
type RedisCache struct {
	client      redis.UniversalClient
	decimalsTTL time.Duration
	poolTTL     time.Duration
}

// NewRedisCache wraps an existing client; decimalsTTL of 0 keeps entries forever
func NewRedisCache(client redis.UniversalClient, decimalsTTL time.Duration) (*RedisCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisCache{client: client, decimalsTTL: decimalsTTL}, nil
}

// WithPoolTTL expires pool snapshots that are not refreshed within ttl.
// Pools that disappear from the ledger then drop out of ListPools.
func (r *RedisCache) WithPoolTTL(ttl time.Duration) *RedisCache {
	r.poolTTL = ttl
	return r
}

// GetDecimals returns the cached decimals for the given asset ids; misses are omitted
func (r *RedisCache) GetDecimals(ctx context.Context, ids []string) (map[string]int, error) {
	out := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, constants.RedisKeyDecimalsPrefix+id)
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget decimals: %w", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		d, err := strconv.Atoi(s)
		if err != nil {
			continue
		}
		out[ids[i]] = d
	}
	return out, nil
}

// SetDecimals caches decimals keyed by asset id
func (r *RedisCache) SetDecimals(ctx context.Context, decimals map[string]int) error {
	if len(decimals) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for id, d := range decimals {
		pipe.Set(ctx, constants.RedisKeyDecimalsPrefix+id, d, r.decimalsTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set decimals: %w", err)
	}
	return nil
}

// PutPools stores each pool under its UUID and indexes it
func (r *RedisCache) PutPools(ctx context.Context, pools []*models.LiquidityPool) error {
	if len(pools) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, pool := range pools {
		b, err := json.Marshal(pool)
		if err != nil {
			return fmt.Errorf("marshal pool: %w", err)
		}
		pipe.Set(ctx, constants.RedisKeyPoolPrefix+pool.UUID(), b, r.poolTTL)
		pipe.SAdd(ctx, constants.RedisKeyPoolIndex, pool.UUID())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put pools: %w", err)
	}
	return nil
}

func (r *RedisCache) GetPool(ctx context.Context, uuid string) (*models.LiquidityPool, error) {
	val, err := r.client.Get(ctx, constants.RedisKeyPoolPrefix+uuid).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pool: %w", err)
	}

	var pool models.LiquidityPool
	if err := json.Unmarshal([]byte(val), &pool); err != nil {
		return nil, fmt.Errorf("unmarshal pool: %w", err)
	}
	return &pool, nil
}

func (r *RedisCache) ListPools(ctx context.Context) ([]*models.LiquidityPool, error) {
	uuids, err := r.client.SMembers(ctx, constants.RedisKeyPoolIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("list pools index: %w", err)
	}
	if len(uuids) == 0 {
		return []*models.LiquidityPool{}, nil
	}

	keys := make([]string, 0, len(uuids))
	for _, id := range uuids {
		keys = append(keys, constants.RedisKeyPoolPrefix+id)
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget pools: %w", err)
	}

	out := make([]*models.LiquidityPool, 0, len(vals))
	var expired []any
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			expired = append(expired, uuids[i])
			continue
		}
		var pool models.LiquidityPool
		if err := json.Unmarshal([]byte(s), &pool); err != nil {
			continue
		}
		out = append(out, &pool)
	}

	if len(expired) > 0 {
		if err := r.client.SRem(ctx, constants.RedisKeyPoolIndex, expired...).Err(); err != nil {
			return nil, fmt.Errorf("prune pools index: %w", err)
		}
	}
	return out, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
