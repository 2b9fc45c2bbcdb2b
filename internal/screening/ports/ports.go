// Package ports defines shared interfaces for the screening module.
// Interfaces live here when consumed by multiple services so store and cache
// implementations can be swapped without touching the engine.
package ports

import (
	"context"
	"time"

	"screenguard/internal/screening/models"
)

// Encoder produces the primary and alternate phonetic index keys for a name.
// Empty codes mean the name is unencodable and yields no candidates.
type Encoder interface {
	Encode(name string) (primary, alternate string)
}

// Scorer computes a normalized similarity in [0,1] between a query name and
// a candidate name.
type Scorer interface {
	Score(queryName, candidateName string) float64
}

// WatchlistStore is the indexed, read-only view of ingested watchlist
// entities. The phonetic code is the only access path; implementations must
// not scan the full list per query.
type WatchlistStore interface {
	// FindByPhoneticCode returns all entities whose primary or alternate
	// phonetic code equals code, optionally filtered by entity type
	// (empty filter matches both).
	FindByPhoneticCode(ctx context.Context, code string, entityType models.EntityType) ([]models.WatchlistEntity, error)

	// CountByList returns entity counts grouped by source list name.
	CountByList(ctx context.Context) (map[string]int, error)
}

// ScreeningCache short-circuits repeat lookups. All entries are TTL-bounded
// idempotent upserts; a cache fault is never fatal to screening.
type ScreeningCache interface {
	// GetResult returns a cached result for the name/type pair, or nil on miss.
	GetResult(ctx context.Context, name string, entityType models.EntityType) (*models.ScreeningResult, error)

	// PutResult caches a result. Callers only store CLEAR results so a
	// growing watchlist can never be masked by a stale hit.
	PutResult(ctx context.Context, name string, entityType models.EntityType, result models.ScreeningResult, ttl time.Duration) error

	// IsWhitelisted reports cached whitelist membership for an entity.
	IsWhitelisted(ctx context.Context, entityID, entityType string) (bool, error)

	// CacheWhitelistEntry records whitelist membership for fast lookups.
	CacheWhitelistEntry(ctx context.Context, entityID, name, entityType string, ttl time.Duration) error

	// RemoveWhitelistEntry drops a cached whitelist membership.
	RemoveWhitelistEntry(ctx context.Context, entityID, entityType string) error

	// IsOnCustomWatchlist returns cached custom-watchlist membership.
	// known is false on a cache miss; membership is tri-state because
	// negative results are cached too.
	IsOnCustomWatchlist(ctx context.Context, name, entityType string) (member, known bool, err error)

	// CacheCustomWatchlistEntry records custom-watchlist membership
	// (positive or negative) for the name/type pair.
	CacheCustomWatchlistEntry(ctx context.Context, name, entityType string, member bool, ttl time.Duration) error
}

// HistoryStore persists screening outcomes for coverage reporting.
type HistoryStore interface {
	Record(ctx context.Context, result models.ScreeningResult) error
	CountByStatusSince(ctx context.Context, since time.Time) (map[models.ScreeningStatus]int, error)
}
