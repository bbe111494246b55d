package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/submission-portal/internal/config"
)

// RedisStore keeps one client's snapshot under a fixed key.
type RedisStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisStore returns a store for clientID. A ttl of 0 keeps the snapshot
// until it is cleared.
func NewRedisStore(rdb *redis.Client, clientID string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, key: config.CacheKey.MirrorKey(clientID), ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read mirror: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode mirror: %w", err)
	}
	return &snap, nil
}

func (r *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode mirror: %w", err)
	}
	return r.rdb.Set(ctx, r.key, data, r.ttl).Err()
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}
