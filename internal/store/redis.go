package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SeenCache is an optional Redis index of already-harvested IDs. It only
// accelerates the dedup check during a crawl; the RecordStore stays the
// source of truth, so a cold or flushed cache just means slower lookups.
type SeenCache struct {
	client *redis.Client
}

func NewSeenCache(addr string) *SeenCache {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &SeenCache{client: rdb}
}

func (c *SeenCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// MarkSeen records the ID. No TTL: postings never leave the store.
func (c *SeenCache) MarkSeen(ctx context.Context, id string) error {
	return c.client.Set(ctx, seenKey(id), "1", 0).Err()
}

// IsSeen checks the cache only; a miss means "ask the store".
func (c *SeenCache) IsSeen(ctx context.Context, id string) (bool, error) {
	val, err := c.client.Exists(ctx, seenKey(id)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

func seenKey(id string) string {
	return fmt.Sprintf("jobscreen:seen:%s", id)
}
