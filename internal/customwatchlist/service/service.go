package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"screenguard/internal/customwatchlist/models"
	screening "screenguard/internal/screening/models"
	"screenguard/internal/screening/ports"
	dErrors "screenguard/pkg/errors"
)

// Store abstracts custom watchlist persistence.
type Store interface {
	CreateWatchlist(ctx context.Context, watchlist *models.Watchlist) error
	GetWatchlist(ctx context.Context, id uuid.UUID) (*models.Watchlist, error)
	FindWatchlistByName(ctx context.Context, name string) (*models.Watchlist, error)
	UpdateWatchlist(ctx context.Context, watchlist *models.Watchlist) error
	ListWatchlists(ctx context.Context) ([]*models.Watchlist, error)
	AddEntry(ctx context.Context, entry *models.Entry) error
	GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	RemoveEntry(ctx context.Context, id uuid.UUID) error
	ListEntries(ctx context.Context, watchlistID uuid.UUID) ([]*models.Entry, error)
	SearchActiveEntries(ctx context.Context, name string) ([]*models.Entry, error)
}

// Service manages institution-specific watchlists. Membership checks use
// case-insensitive name containment against entries of ACTIVE lists; no
// phonetic encoding or similarity scoring is involved.
type Service struct {
	store    Store
	cache    ports.ScreeningCache
	logger   *slog.Logger
	cacheTTL time.Duration
	clock    func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithCache(cache ports.ScreeningCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   slog.Default(),
		cacheTTL: time.Hour,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateWatchlist registers a new named list. Names are unique.
func (s *Service) CreateWatchlist(ctx context.Context, name, description, listType string, createdBy uuid.UUID) (*models.Watchlist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "watchlist name is required")
	}

	existing, err := s.store.FindWatchlistByName(ctx, name)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check watchlist name")
	}
	if existing != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "watchlist with this name already exists")
	}

	now := s.clock().UTC()
	watchlist := &models.Watchlist{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		ListType:    listType,
		Status:      models.StatusActive,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateWatchlist(ctx, watchlist); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create watchlist")
	}
	return watchlist, nil
}

// UpdateWatchlist changes the description or status of an existing list.
func (s *Service) UpdateWatchlist(ctx context.Context, id uuid.UUID, description, status string) (*models.Watchlist, error) {
	if status != models.StatusActive && status != models.StatusInactive {
		return nil, dErrors.New(dErrors.CodeBadRequest, "status must be ACTIVE or INACTIVE")
	}

	watchlist, err := s.store.GetWatchlist(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load watchlist")
	}
	if watchlist == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "watchlist not found")
	}

	watchlist.Description = description
	watchlist.Status = status
	watchlist.UpdatedAt = s.clock().UTC()
	if err := s.store.UpdateWatchlist(ctx, watchlist); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update watchlist")
	}
	return watchlist, nil
}

func (s *Service) GetWatchlist(ctx context.Context, id uuid.UUID) (*models.Watchlist, error) {
	watchlist, err := s.store.GetWatchlist(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load watchlist")
	}
	if watchlist == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "watchlist not found")
	}
	return watchlist, nil
}

func (s *Service) ListWatchlists(ctx context.Context) ([]*models.Watchlist, error) {
	watchlists, err := s.store.ListWatchlists(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list watchlists")
	}
	return watchlists, nil
}

// AddEntry adds an entity name to a list. Membership for the name is cached
// as positive so realtime checks pick it up immediately.
func (s *Service) AddEntry(ctx context.Context, watchlistID uuid.UUID, entityName string, entityType screening.EntityType, matchReason, riskLevel string, addedBy uuid.UUID) (*models.Entry, error) {
	if strings.TrimSpace(entityName) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "entity name is required")
	}
	if !entityType.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid entity type")
	}

	watchlist, err := s.store.GetWatchlist(ctx, watchlistID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load watchlist")
	}
	if watchlist == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "watchlist not found")
	}

	existing, err := s.store.ListEntries(ctx, watchlistID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list watchlist entries")
	}
	for _, e := range existing {
		if strings.EqualFold(e.EntityName, entityName) && e.EntityType == entityType {
			return nil, dErrors.New(dErrors.CodeConflict, "entry already exists on this watchlist")
		}
	}

	entry := &models.Entry{
		ID:          uuid.New(),
		WatchlistID: watchlistID,
		EntityName:  entityName,
		EntityType:  entityType,
		MatchReason: matchReason,
		RiskLevel:   riskLevel,
		AddedBy:     addedBy,
		AddedAt:     s.clock().UTC(),
	}
	if err := s.store.AddEntry(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add watchlist entry")
	}

	if s.cache != nil {
		if err := s.cache.CacheCustomWatchlistEntry(ctx, entityName, string(entityType), true, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache custom watchlist membership", "name", entityName, "error", err)
		}
	}
	return entry, nil
}

// RemoveEntry deletes a list entry and records a negative membership for its
// name so stale positives do not linger in the cache.
func (s *Service) RemoveEntry(ctx context.Context, entryID uuid.UUID) error {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load watchlist entry")
	}
	if entry == nil {
		return dErrors.New(dErrors.CodeNotFound, "watchlist entry not found")
	}

	if err := s.store.RemoveEntry(ctx, entryID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove watchlist entry")
	}

	if s.cache != nil {
		if err := s.cache.CacheCustomWatchlistEntry(ctx, entry.EntityName, string(entry.EntityType), false, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache custom watchlist removal", "name", entry.EntityName, "error", err)
		}
	}
	return nil
}

func (s *Service) ListEntries(ctx context.Context, watchlistID uuid.UUID) ([]*models.Entry, error) {
	entries, err := s.store.ListEntries(ctx, watchlistID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list watchlist entries")
	}
	return entries, nil
}

// IsEntityOnCustomWatchlist reports whether the name appears on any ACTIVE
// custom list. A store failure is treated as not listed so screening keeps
// flowing; realtime decisioning layers its own blocking on top of this.
func (s *Service) IsEntityOnCustomWatchlist(ctx context.Context, name string, entityType screening.EntityType) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}

	if s.cache != nil {
		member, known, err := s.cache.IsOnCustomWatchlist(ctx, name, string(entityType))
		if err != nil {
			s.logger.Warn("custom watchlist cache lookup failed", "name", name, "error", err)
		} else if known {
			return member
		}
	}

	entries, err := s.store.SearchActiveEntries(ctx, name)
	if err != nil {
		s.logger.Error("custom watchlist search failed, treating entity as not listed",
			"name", name, "error", err)
		return false
	}

	member := false
	for _, e := range entries {
		if e.EntityType == entityType {
			member = true
			break
		}
	}

	if s.cache != nil {
		if err := s.cache.CacheCustomWatchlistEntry(ctx, name, string(entityType), member, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache custom watchlist membership", "name", name, "error", err)
		}
	}
	return member
}
