package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"screenguard/internal/customwatchlist/models"
)

// InMemoryStore is a map-backed custom watchlist store for tests and local runs.
type InMemoryStore struct {
	mu         sync.RWMutex
	watchlists map[uuid.UUID]models.Watchlist
	entries    map[uuid.UUID]models.Entry
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		watchlists: make(map[uuid.UUID]models.Watchlist),
		entries:    make(map[uuid.UUID]models.Entry),
	}
}

func (s *InMemoryStore) CreateWatchlist(_ context.Context, watchlist *models.Watchlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchlists[watchlist.ID] = *watchlist
	return nil
}

func (s *InMemoryStore) GetWatchlist(_ context.Context, id uuid.UUID) (*models.Watchlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.watchlists[id]
	if !ok {
		return nil, nil
	}
	copied := w
	return &copied, nil
}

func (s *InMemoryStore) FindWatchlistByName(_ context.Context, name string) (*models.Watchlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.watchlists {
		if w.Name == name {
			copied := w
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) UpdateWatchlist(_ context.Context, watchlist *models.Watchlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.watchlists[watchlist.ID]; ok {
		existing.Description = watchlist.Description
		existing.Status = watchlist.Status
		existing.UpdatedAt = watchlist.UpdatedAt
		s.watchlists[watchlist.ID] = existing
	}
	return nil
}

func (s *InMemoryStore) ListWatchlists(_ context.Context) ([]*models.Watchlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	watchlists := make([]*models.Watchlist, 0, len(s.watchlists))
	for _, w := range s.watchlists {
		copied := w
		watchlists = append(watchlists, &copied)
	}
	sort.Slice(watchlists, func(i, j int) bool {
		return watchlists[i].CreatedAt.Before(watchlists[j].CreatedAt)
	})
	return watchlists, nil
}

func (s *InMemoryStore) AddEntry(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = *entry
	return nil
}

func (s *InMemoryStore) GetEntry(_ context.Context, id uuid.UUID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	copied := e
	return &copied, nil
}

func (s *InMemoryStore) RemoveEntry(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *InMemoryStore) ListEntries(_ context.Context, watchlistID uuid.UUID) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []*models.Entry
	for _, e := range s.entries {
		if e.WatchlistID == watchlistID {
			copied := e
			entries = append(entries, &copied)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AddedAt.Before(entries[j].AddedAt)
	})
	return entries, nil
}

func (s *InMemoryStore) SearchActiveEntries(_ context.Context, name string) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(name)
	var entries []*models.Entry
	for _, e := range s.entries {
		w, ok := s.watchlists[e.WatchlistID]
		if !ok || w.Status != models.StatusActive {
			continue
		}
		if strings.Contains(strings.ToLower(e.EntityName), needle) {
			copied := e
			entries = append(entries, &copied)
		}
	}
	return entries, nil
}
