package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-swipe-client/users"
	"github.com/redis/go-redis/v9"
)

// Cache keeps the last locally edited profile of each user.
type Cache interface {
	Get(ctx context.Context, userID string) (users.Profile, bool, error)
	Put(ctx context.Context, userID string, p users.Profile) error
}

// MemoryCache is a thread-safe in-memory Cache.
type MemoryCache struct {
	mu       sync.RWMutex
	profiles map[string]users.Profile
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{profiles: make(map[string]users.Profile)}
}

func (c *MemoryCache) Get(_ context.Context, userID string) (users.Profile, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.profiles[userID]
	return p, ok, nil
}

func (c *MemoryCache) Put(_ context.Context, userID string, p users.Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[userID] = p
	return nil
}

// RedisCache keeps profiles in redis without expiry, like browser local storage.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(userID string) string {
	return c.prefix + "profile:" + userID
}

func (c *RedisCache) Get(ctx context.Context, userID string) (users.Profile, bool, error) {
	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	switch {
	case err == redis.Nil:
		return users.Profile{}, false, nil
	case err != nil:
		return users.Profile{}, false, fmt.Errorf("[RedisCache Get] %w", err)
	}

	var p users.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return users.Profile{}, false, fmt.Errorf("[RedisCache Get] decode: %w", err)
	}
	return p, true, nil
}

func (c *RedisCache) Put(ctx context.Context, userID string, p users.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID), raw, 0).Err()
}
