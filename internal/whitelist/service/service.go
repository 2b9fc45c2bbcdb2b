// Package service implements whitelist management: override entries that
// suppress screening matches for confirmed false positives.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	dErrors "screenguard/pkg/errors"

	"screenguard/internal/screening/ports"
	"screenguard/internal/whitelist/models"
)

// Store is the authoritative whitelist persistence the cache mirrors.
type Store interface {
	FindByEntity(ctx context.Context, entityID, entityType string) (*models.Entry, error)
	Upsert(ctx context.Context, entry *models.Entry) error
	DeactivateExpired(ctx context.Context, entityID, entityType string, now time.Time) (bool, error)
	Deactivate(ctx context.Context, entityID, entityType string, now time.Time) error
	ListActive(ctx context.Context, entityType string) ([]*models.Entry, error)
}

// Service answers whitelist membership with a cache-first, store-fallback
// read path and keeps cache and store in step on writes.
type Service struct {
	store    Store
	cache    ports.ScreeningCache
	logger   *slog.Logger
	cacheTTL time.Duration
	clock    func() time.Time
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithCache attaches the shared screening cache for fast membership lookups.
func WithCache(cache ports.ScreeningCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs the whitelist service.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("whitelist store is required")
	}
	s := &Service{
		store:    store,
		logger:   slog.Default(),
		cacheTTL: 24 * time.Hour,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IsWhitelisted reports whether the entity has a live whitelist entry.
// Cache first; on a store hit that turned out to be expired, the entry is
// deactivated in place via the store's conditional update and false is
// returned. Store faults degrade to false so screening still runs.
func (s *Service) IsWhitelisted(ctx context.Context, entityID, entityType string) bool {
	if entityID == "" {
		return false
	}

	if s.cache != nil {
		hit, err := s.cache.IsWhitelisted(ctx, entityID, entityType)
		if err != nil {
			s.logger.WarnContext(ctx, "whitelist cache lookup failed", "entity_id", entityID, "error", err)
		} else if hit {
			return true
		}
	}

	entry, err := s.store.FindByEntity(ctx, entityID, entityType)
	if err != nil {
		s.logger.ErrorContext(ctx, "whitelist store lookup failed, treating as not whitelisted",
			"entity_id", entityID, "entity_type", entityType, "error", err)
		return false
	}
	if entry == nil || !entry.Active {
		return false
	}

	now := s.clock()
	if entry.Expired(now) {
		flipped, err := s.store.DeactivateExpired(ctx, entityID, entityType, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "whitelist expiry deactivation failed",
				"entity_id", entityID, "error", err)
		} else if flipped {
			s.logger.InfoContext(ctx, "whitelist entry expired and deactivated",
				"entity_id", entityID, "entity_type", entityType)
		}
		return false
	}

	if ttl := s.cacheTTLFor(entry.ExpiresAt, now); s.cache != nil && ttl > 0 {
		if err := s.cache.CacheWhitelistEntry(ctx, entityID, entityID, entityType, ttl); err != nil {
			s.logger.WarnContext(ctx, "whitelist cache write failed", "entity_id", entityID, "error", err)
		}
	}
	return true
}

// cacheTTLFor caps the configured cache TTL at the entry's own expiry so a
// cached hit can never outlive the entry it stands for.
func (s *Service) cacheTTLFor(expiresAt *time.Time, now time.Time) time.Duration {
	ttl := s.cacheTTL
	if expiresAt != nil {
		if remaining := expiresAt.Sub(now); remaining < ttl {
			ttl = remaining
		}
	}
	return ttl
}

// Add creates (or reactivates) a whitelist entry and writes it through to
// the cache.
func (s *Service) Add(ctx context.Context, entityID, entityType, reason string, createdBy uuid.UUID, expiresAt *time.Time) (*models.Entry, error) {
	if entityID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "entity_id is required")
	}
	if entityType == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "entity_type is required")
	}

	now := s.clock()
	entry := &models.Entry{
		ID:         uuid.New(),
		EntityID:   entityID,
		EntityType: entityType,
		Reason:     reason,
		CreatedBy:  createdBy,
		ExpiresAt:  expiresAt,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	existing, err := s.store.FindByEntity(ctx, entityID, entityType)
	if err != nil {
		s.logger.WarnContext(ctx, "whitelist lookup before add failed, inserting as new",
			"entity_id", entityID, "entity_type", entityType, "error", err)
	} else if existing != nil {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	}

	if err := s.store.Upsert(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add whitelist entry")
	}

	if ttl := s.cacheTTLFor(expiresAt, now); s.cache != nil && ttl > 0 {
		if err := s.cache.CacheWhitelistEntry(ctx, entityID, entityID, entityType, ttl); err != nil {
			s.logger.WarnContext(ctx, "whitelist cache write failed", "entity_id", entityID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "entity whitelisted",
		"entity_id", entityID, "entity_type", entityType, "reason", reason, "created_by", createdBy)
	return entry, nil
}

// Remove deactivates a whitelist entry and drops it from the cache.
func (s *Service) Remove(ctx context.Context, entityID, entityType string) error {
	if entityID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "entity_id is required")
	}

	if err := s.store.Deactivate(ctx, entityID, entityType, s.clock()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove whitelist entry")
	}
	if s.cache != nil {
		if err := s.cache.RemoveWhitelistEntry(ctx, entityID, entityType); err != nil {
			s.logger.WarnContext(ctx, "whitelist cache removal failed", "entity_id", entityID, "error", err)
		}
	}
	s.logger.InfoContext(ctx, "entity removed from whitelist", "entity_id", entityID, "entity_type", entityType)
	return nil
}

// ListActive returns live entries, optionally filtered by entity type.
func (s *Service) ListActive(ctx context.Context, entityType string) ([]*models.Entry, error) {
	entries, err := s.store.ListActive(ctx, entityType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list whitelist entries")
	}
	return entries, nil
}
