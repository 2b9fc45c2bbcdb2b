package history

import (
	"context"
	"sync"
	"time"

	"screenguard/internal/screening/models"
)

// InMemoryStore keeps screening outcomes in memory for tests and
// single-node deployments without a history database.
type InMemoryStore struct {
	mu      sync.RWMutex
	results []models.ScreeningResult
}

// NewInMemory constructs an empty in-memory history store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Record(_ context.Context, result models.ScreeningResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *InMemoryStore) CountByStatusSince(_ context.Context, since time.Time) (map[models.ScreeningStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.ScreeningStatus]int)
	for _, result := range s.results {
		if result.ScreenedAt.Before(since) {
			continue
		}
		counts[result.Status]++
	}
	return counts, nil
}
