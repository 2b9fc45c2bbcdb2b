package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"screenguard/internal/screening/models"
)

// Redis key prefixes. Names are lowercased in keys so lookups are
// case-insensitive without a second round trip.
const (
	resultKeyPrefix    = "screen:result:"
	whitelistKeyPrefix = "screen:wl:"
	customKeyPrefix    = "screen:cwl:"
)

// RedisCache is the Redis-backed screening cache. This is the
// production-recommended implementation for deployments where multiple
// instances share screening state. All writes are TTL-bounded upserts;
// concurrent writers converge on the same value.
type RedisCache struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed screening cache.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func resultKey(name string, entityType models.EntityType) string {
	return resultKeyPrefix + string(entityType) + ":" + strings.ToLower(name)
}

func whitelistKey(entityID, entityType string) string {
	return whitelistKeyPrefix + entityType + ":" + entityID
}

func customKey(name, entityType string) string {
	return customKeyPrefix + entityType + ":" + strings.ToLower(name)
}

// GetResult returns the cached result for a name/type pair, or nil on miss.
func (c *RedisCache) GetResult(ctx context.Context, name string, entityType models.EntityType) (*models.ScreeningResult, error) {
	payload, err := c.client.Get(ctx, resultKey(name, entityType)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached result: %w", err)
	}

	var result models.ScreeningResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	result.ScreeningProvider = models.ProviderCache
	return &result, nil
}

// PutResult caches a result with TTL. Uses SET-with-expiry so the entry
// self-evicts; there is no explicit invalidation on watchlist ingestion.
func (c *RedisCache) PutResult(ctx context.Context, name string, entityType models.EntityType, result models.ScreeningResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.client.Set(ctx, resultKey(name, entityType), payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache result: %w", err)
	}
	return nil
}

// IsWhitelisted reports cached whitelist membership. Key existence is what
// matters; the stored value is the entity name for debugging.
func (c *RedisCache) IsWhitelisted(ctx context.Context, entityID, entityType string) (bool, error) {
	_, err := c.client.Get(ctx, whitelistKey(entityID, entityType)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check cached whitelist: %w", err)
	}
	return true, nil
}

func (c *RedisCache) CacheWhitelistEntry(ctx context.Context, entityID, name, entityType string, ttl time.Duration) error {
	if err := c.client.Set(ctx, whitelistKey(entityID, entityType), name, ttl).Err(); err != nil {
		return fmt.Errorf("cache whitelist entry: %w", err)
	}
	return nil
}

func (c *RedisCache) RemoveWhitelistEntry(ctx context.Context, entityID, entityType string) error {
	if err := c.client.Del(ctx, whitelistKey(entityID, entityType)).Err(); err != nil {
		return fmt.Errorf("remove cached whitelist entry: %w", err)
	}
	return nil
}

// IsOnCustomWatchlist returns cached custom-watchlist membership. Membership
// is tri-state: a missing key means unknown, a present key carries the
// cached positive or negative answer.
func (c *RedisCache) IsOnCustomWatchlist(ctx context.Context, name, entityType string) (member, known bool, err error) {
	value, err := c.client.Get(ctx, customKey(name, entityType)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("check cached custom watchlist: %w", err)
	}
	return value == "1", true, nil
}

func (c *RedisCache) CacheCustomWatchlistEntry(ctx context.Context, name, entityType string, member bool, ttl time.Duration) error {
	value := "0"
	if member {
		value = "1"
	}
	if err := c.client.Set(ctx, customKey(name, entityType), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache custom watchlist entry: %w", err)
	}
	return nil
}
