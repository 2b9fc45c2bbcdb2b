package watchlist

import (
	"context"
	"sync"

	"screenguard/internal/screening/models"
)

// InMemoryStore indexes watchlist entities by phonetic code. It mirrors the
// Postgres store's access path: lookups go through the code index only,
// never a scan of all entities.
type InMemoryStore struct {
	mu       sync.RWMutex
	entities map[string]models.WatchlistEntity
	byCode   map[string][]string
}

// NewInMemory constructs an empty in-memory watchlist store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		entities: make(map[string]models.WatchlistEntity),
		byCode:   make(map[string][]string),
	}
}

func (s *InMemoryStore) FindByPhoneticCode(_ context.Context, code string, entityType models.EntityType) ([]models.WatchlistEntity, error) {
	if code == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byCode[code]
	if len(ids) == 0 {
		return nil, nil
	}

	entities := make([]models.WatchlistEntity, 0, len(ids))
	for _, id := range ids {
		entity, ok := s.entities[id]
		if !ok {
			continue
		}
		if entityType != "" && entity.EntityType != entityType {
			continue
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (s *InMemoryStore) CountByList(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, entity := range s.entities {
		counts[entity.ListName]++
	}
	return counts, nil
}

// Upsert stores an entity and registers it under both phonetic codes.
func (s *InMemoryStore) Upsert(_ context.Context, entity models.WatchlistEntity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entities[entity.ID]; ok {
		s.unindex(old)
	}
	s.entities[entity.ID] = entity
	s.index(entity)
	return nil
}

func (s *InMemoryStore) index(entity models.WatchlistEntity) {
	if entity.PhoneticCode != "" {
		s.byCode[entity.PhoneticCode] = append(s.byCode[entity.PhoneticCode], entity.ID)
	}
	if entity.PhoneticCodeAlt != "" && entity.PhoneticCodeAlt != entity.PhoneticCode {
		s.byCode[entity.PhoneticCodeAlt] = append(s.byCode[entity.PhoneticCodeAlt], entity.ID)
	}
}

func (s *InMemoryStore) unindex(entity models.WatchlistEntity) {
	for _, code := range []string{entity.PhoneticCode, entity.PhoneticCodeAlt} {
		if code == "" {
			continue
		}
		ids := s.byCode[code]
		for i, id := range ids {
			if id == entity.ID {
				s.byCode[code] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
}
