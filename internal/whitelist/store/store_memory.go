package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"screenguard/internal/whitelist/models"
)

// InMemoryStore keeps whitelist entries in a map, keyed by entity id + type.
// DeactivateExpired performs the same check-and-flip under one lock that the
// Postgres store performs in one conditional UPDATE.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*models.Entry
}

// NewInMemory constructs an empty in-memory whitelist store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*models.Entry)}
}

func key(entityID, entityType string) string {
	return entityType + ":" + entityID
}

func (s *InMemoryStore) FindByEntity(_ context.Context, entityID, entityType string) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key(entityID, entityType)]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, entry *models.Entry) error {
	if entry == nil {
		return fmt.Errorf("whitelist entry is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *entry
	s.entries[key(entry.EntityID, entry.EntityType)] = &copied
	return nil
}

func (s *InMemoryStore) DeactivateExpired(_ context.Context, entityID, entityType string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key(entityID, entityType)]
	if !ok || !entry.Active || !entry.Expired(now) {
		return false, nil
	}
	entry.Active = false
	entry.UpdatedAt = now
	return true, nil
}

func (s *InMemoryStore) Deactivate(_ context.Context, entityID, entityType string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key(entityID, entityType)]; ok && entry.Active {
		entry.Active = false
		entry.UpdatedAt = now
	}
	return nil
}

func (s *InMemoryStore) ListActive(_ context.Context, entityType string) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*models.Entry
	for _, entry := range s.entries {
		if !entry.Active {
			continue
		}
		if entityType != "" && entry.EntityType != entityType {
			continue
		}
		copied := *entry
		entries = append(entries, &copied)
	}
	return entries, nil
}
