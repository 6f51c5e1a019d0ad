package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	domcatalog "example.com/framed-prints/internal/domain/catalog"
)

var ErrCacheMiss = errors.New("cache miss")

const snapshotKey = "catalog:snapshot"

// SnapshotCache keeps the last fetched catalog in Redis.
type SnapshotCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SnapshotCache{
		client:  client,
		baseTTL: ttl,
	}
}

func (c *SnapshotCache) Get(ctx context.Context) (*domcatalog.Snapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snap domcatalog.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot failed: %w", err)
	}
	return &snap, nil
}

func (c *SnapshotCache) Set(ctx context.Context, snap *domcatalog.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	// Jitter spreads expiry across instances sharing one Redis.
	ttl := c.baseTTL + time.Duration(rand.Int63n(int64(c.baseTTL/5)+1))
	if err := c.client.Set(ctx, snapshotKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *SnapshotCache) Delete(ctx context.Context) error {
	if err := c.client.Del(ctx, snapshotKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
