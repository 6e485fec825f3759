// Package flags stores runtime switches in a single Redis hash.
// The switches the services read are the per-adapter kill switches from DexEnabledKey.
package flags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/constants"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("flag not found")

var keyRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

// Flag is one stored switch
type Flag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps flags as JSON values of the constants.RedisKeyFlags hash
type Store struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client, now: time.Now}, nil
}

func ValidateKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("invalid flag key")
	}
	return nil
}

// DexEnabledKey is the switch for one adapter, e.g. "dex.MuesliSwap.enabled"
func DexEnabledKey(dex string) string {
	return "dex." + dex + ".enabled"
}

func (s *Store) Set(ctx context.Context, key string, value bool) (*Flag, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	flag := &Flag{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	b, err := json.Marshal(flag)
	if err != nil {
		return nil, fmt.Errorf("marshal flag: %w", err)
	}
	if err := s.client.HSet(ctx, constants.RedisKeyFlags, key, b).Err(); err != nil {
		return nil, fmt.Errorf("set flag: %w", err)
	}
	return flag, nil
}

func (s *Store) Get(ctx context.Context, key string) (*Flag, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	val, err := s.client.HGet(ctx, constants.RedisKeyFlags, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get flag: %w", err)
	}
	return decode(val)
}

// List returns every flag sorted by key; undecodable entries are skipped
func (s *Store) List(ctx context.Context) ([]*Flag, error) {
	vals, err := s.client.HGetAll(ctx, constants.RedisKeyFlags).Result()
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}

	out := make([]*Flag, 0, len(vals))
	for _, v := range vals {
		f, err := decode(v)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	n, err := s.client.HDel(ctx, constants.RedisKeyFlags, key).Result()
	if err != nil {
		return fmt.Errorf("delete flag: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SelectDexs splits names into enabled and disabled adapters, keeping order.
// An adapter without a switch is enabled.
func (s *Store) SelectDexs(ctx context.Context, names []string) (enabled, disabled []string, err error) {
	if len(names) == 0 {
		return nil, nil, nil
	}

	fields := make([]string, 0, len(names))
	for _, name := range names {
		fields = append(fields, DexEnabledKey(name))
	}
	vals, err := s.client.HMGet(ctx, constants.RedisKeyFlags, fields...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("read dex flags: %w", err)
	}

	for i, name := range names {
		on := true
		if raw, ok := vals[i].(string); ok {
			if f, err := decode(raw); err == nil {
				on = f.Value
			}
		}
		if on {
			enabled = append(enabled, name)
		} else {
			disabled = append(disabled, name)
		}
	}
	return enabled, disabled, nil
}

func decode(raw string) (*Flag, error) {
	var f Flag
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, fmt.Errorf("unmarshal flag: %w", err)
	}
	return &f, nil
}
