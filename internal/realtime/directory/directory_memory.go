// Package directory provides merchant name resolution for transaction
// screening. Production deployments resolve against the merchant onboarding
// system; this in-memory directory backs tests and local runs.
package directory

import (
	"context"
	"sync"

	"screenguard/internal/realtime/models"
)

type InMemoryDirectory struct {
	mu        sync.RWMutex
	merchants map[string]models.Merchant
}

func NewInMemory() *InMemoryDirectory {
	return &InMemoryDirectory{merchants: make(map[string]models.Merchant)}
}

func (d *InMemoryDirectory) Put(merchant models.Merchant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.merchants[merchant.ID] = merchant
}

func (d *InMemoryDirectory) Lookup(_ context.Context, merchantID string) (*models.Merchant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.merchants[merchantID]
	if !ok {
		return nil, nil
	}
	copied := m
	return &copied, nil
}
