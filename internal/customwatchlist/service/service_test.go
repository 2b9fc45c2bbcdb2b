package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"screenguard/internal/customwatchlist/models"
	"screenguard/internal/customwatchlist/store"
	"screenguard/internal/screening/cache"
	screening "screenguard/internal/screening/models"
	dErrors "screenguard/pkg/errors"
)

type CustomWatchlistSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemoryStore
	cache   *cache.InMemoryCache
	service *Service
	now     time.Time
	admin   uuid.UUID
}

func (s *CustomWatchlistSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.cache = cache.NewInMemory(cache.WithClock(func() time.Time { return s.now }))
	s.admin = uuid.New()
	s.service = New(s.store,
		WithCache(s.cache),
		WithClock(func() time.Time { return s.now }),
	)
}

func TestCustomWatchlistSuite(t *testing.T) {
	suite.Run(t, new(CustomWatchlistSuite))
}

func (s *CustomWatchlistSuite) newList(name string) *models.Watchlist {
	watchlist, err := s.service.CreateWatchlist(s.ctx, name, "internal blocklist", "FRAUD", s.admin)
	s.Require().NoError(err)
	return watchlist
}

func (s *CustomWatchlistSuite) TestCreateWatchlist() {
	s.Run("creates an active list", func() {
		watchlist := s.newList("high-risk-counterparties")
		s.Equal(models.StatusActive, watchlist.Status)
		s.Equal("high-risk-counterparties", watchlist.Name)
	})

	s.Run("rejects empty name", func() {
		_, err := s.service.CreateWatchlist(s.ctx, "  ", "", "FRAUD", s.admin)
		s.Require().Error(err)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("rejects duplicate name", func() {
		s.newList("dupes")
		_, err := s.service.CreateWatchlist(s.ctx, "dupes", "", "FRAUD", s.admin)
		s.Require().Error(err)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})
}

func (s *CustomWatchlistSuite) TestUpdateWatchlist() {
	watchlist := s.newList("to-update")

	updated, err := s.service.UpdateWatchlist(s.ctx, watchlist.ID, "revised", models.StatusInactive)
	s.Require().NoError(err)
	s.Equal(models.StatusInactive, updated.Status)
	s.Equal("revised", updated.Description)

	_, err = s.service.UpdateWatchlist(s.ctx, watchlist.ID, "", "BOGUS")
	s.Require().Error(err)
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))

	_, err = s.service.UpdateWatchlist(s.ctx, uuid.New(), "", models.StatusActive)
	s.Require().Error(err)
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func (s *CustomWatchlistSuite) TestEntryLifecycle() {
	watchlist := s.newList("fraud-ring")

	entry, err := s.service.AddEntry(s.ctx, watchlist.ID, "Acme Corp", screening.EntityTypeOrganization, "chargeback fraud", "HIGH", s.admin)
	s.Require().NoError(err)
	s.Equal("Acme Corp", entry.EntityName)

	s.Run("duplicate entry is rejected case-insensitively", func() {
		_, err := s.service.AddEntry(s.ctx, watchlist.ID, "ACME CORP", screening.EntityTypeOrganization, "", "", s.admin)
		s.Require().Error(err)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("listing returns the entry", func() {
		entries, err := s.service.ListEntries(s.ctx, watchlist.ID)
		s.Require().NoError(err)
		s.Len(entries, 1)
	})

	s.Run("removal deletes and unknown id is not found", func() {
		s.Require().NoError(s.service.RemoveEntry(s.ctx, entry.ID))

		entries, err := s.service.ListEntries(s.ctx, watchlist.ID)
		s.Require().NoError(err)
		s.Empty(entries)

		err = s.service.RemoveEntry(s.ctx, uuid.New())
		s.Require().Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func (s *CustomWatchlistSuite) TestMembershipRequiresNoSimilarity() {
	watchlist := s.newList("fraud-ring")
	_, err := s.service.AddEntry(s.ctx, watchlist.ID, "Acme Corp", screening.EntityTypeOrganization, "", "", s.admin)
	s.Require().NoError(err)

	s.Run("exact name in any case is a member", func() {
		s.True(s.service.IsEntityOnCustomWatchlist(s.ctx, "Acme Corp", screening.EntityTypeOrganization))
		s.True(s.service.IsEntityOnCustomWatchlist(s.ctx, "acme corp", screening.EntityTypeOrganization))
	})

	s.Run("entity type must agree", func() {
		s.False(s.service.IsEntityOnCustomWatchlist(s.ctx, "Acme Corp", screening.EntityTypePerson))
	})

	s.Run("unrelated name is not a member", func() {
		s.False(s.service.IsEntityOnCustomWatchlist(s.ctx, "Beta LLC", screening.EntityTypeOrganization))
	})
}

func (s *CustomWatchlistSuite) TestInactiveListNeverMatches() {
	watchlist := s.newList("paused")
	_, err := s.service.AddEntry(s.ctx, watchlist.ID, "Acme Corp", screening.EntityTypeOrganization, "", "", s.admin)
	s.Require().NoError(err)

	_, err = s.service.UpdateWatchlist(s.ctx, watchlist.ID, "", models.StatusInactive)
	s.Require().NoError(err)

	// The positive membership cached at add time must not mask the
	// deactivation forever; clear it the way TTL expiry would.
	s.now = s.now.Add(2 * time.Hour)
	s.False(s.service.IsEntityOnCustomWatchlist(s.ctx, "Acme Corp", screening.EntityTypeOrganization))
}

func (s *CustomWatchlistSuite) TestMembershipUsesCache() {
	watchlist := s.newList("fraud-ring")
	_, err := s.service.AddEntry(s.ctx, watchlist.ID, "Acme Corp", screening.EntityTypeOrganization, "", "", s.admin)
	s.Require().NoError(err)

	// First check primes the cache (add already did); membership then holds
	// even if the store goes away.
	s.True(s.service.IsEntityOnCustomWatchlist(s.ctx, "Acme Corp", screening.EntityTypeOrganization))

	detached := New(failingSearchStore{}, WithCache(s.cache), WithClock(func() time.Time { return s.now }))
	s.True(detached.IsEntityOnCustomWatchlist(s.ctx, "Acme Corp", screening.EntityTypeOrganization))
}

func (s *CustomWatchlistSuite) TestStoreFaultFailsClosed() {
	svc := New(failingSearchStore{})
	s.False(svc.IsEntityOnCustomWatchlist(s.ctx, "Acme Corp", screening.EntityTypeOrganization))
}

type failingSearchStore struct{}

var errDown = errors.New("connection refused")

func (failingSearchStore) CreateWatchlist(context.Context, *models.Watchlist) error { return errDown }

func (failingSearchStore) GetWatchlist(context.Context, uuid.UUID) (*models.Watchlist, error) {
	return nil, errDown
}

func (failingSearchStore) FindWatchlistByName(context.Context, string) (*models.Watchlist, error) {
	return nil, errDown
}

func (failingSearchStore) UpdateWatchlist(context.Context, *models.Watchlist) error { return errDown }

func (failingSearchStore) ListWatchlists(context.Context) ([]*models.Watchlist, error) {
	return nil, errDown
}

func (failingSearchStore) AddEntry(context.Context, *models.Entry) error { return errDown }

func (failingSearchStore) GetEntry(context.Context, uuid.UUID) (*models.Entry, error) {
	return nil, errDown
}

func (failingSearchStore) RemoveEntry(context.Context, uuid.UUID) error { return errDown }

func (failingSearchStore) ListEntries(context.Context, uuid.UUID) ([]*models.Entry, error) {
	return nil, errDown
}

func (failingSearchStore) SearchActiveEntries(context.Context, string) ([]*models.Entry, error) {
	return nil, errDown
}
