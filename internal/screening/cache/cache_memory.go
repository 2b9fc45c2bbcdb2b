package cache

import (
	"context"
	"sync"
	"time"

	"screenguard/internal/screening/models"
)

// Clock abstracts time for cache expiry tests.
type Clock func() time.Time

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(now)
}

// InMemoryCache is a TTL map cache for tests and cacheless single-node runs.
// Expiry is lazy: entries are dropped when read past their deadline.
type InMemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   Clock
}

// InMemoryOption configures an InMemoryCache.
type InMemoryOption func(*InMemoryCache)

// WithClock injects a clock for expiry tests.
func WithClock(clock Clock) InMemoryOption {
	return func(c *InMemoryCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewInMemory constructs an empty in-memory screening cache.
func NewInMemory(opts ...InMemoryOption) *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]memoryEntry),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *InMemoryCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if entry.expired(c.clock()) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *InMemoryCache) put(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = c.clock().Add(ttl)
	}
	c.entries[key] = entry
}

func (c *InMemoryCache) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *InMemoryCache) GetResult(_ context.Context, name string, entityType models.EntityType) (*models.ScreeningResult, error) {
	value, ok := c.get(resultKey(name, entityType))
	if !ok {
		return nil, nil
	}
	result, ok := value.(models.ScreeningResult)
	if !ok {
		return nil, nil
	}
	result.ScreeningProvider = models.ProviderCache
	return &result, nil
}

func (c *InMemoryCache) PutResult(_ context.Context, name string, entityType models.EntityType, result models.ScreeningResult, ttl time.Duration) error {
	c.put(resultKey(name, entityType), result, ttl)
	return nil
}

func (c *InMemoryCache) IsWhitelisted(_ context.Context, entityID, entityType string) (bool, error) {
	_, ok := c.get(whitelistKey(entityID, entityType))
	return ok, nil
}

func (c *InMemoryCache) CacheWhitelistEntry(_ context.Context, entityID, name, entityType string, ttl time.Duration) error {
	c.put(whitelistKey(entityID, entityType), name, ttl)
	return nil
}

func (c *InMemoryCache) RemoveWhitelistEntry(_ context.Context, entityID, entityType string) error {
	c.delete(whitelistKey(entityID, entityType))
	return nil
}

func (c *InMemoryCache) IsOnCustomWatchlist(_ context.Context, name, entityType string) (member, known bool, err error) {
	value, ok := c.get(customKey(name, entityType))
	if !ok {
		return false, false, nil
	}
	member, _ = value.(bool)
	return member, true, nil
}

func (c *InMemoryCache) CacheCustomWatchlistEntry(_ context.Context, name, entityType string, member bool, ttl time.Duration) error {
	c.put(customKey(name, entityType), member, ttl)
	return nil
}
