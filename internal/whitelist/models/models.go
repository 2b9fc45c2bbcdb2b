// Package models holds whitelist entry values. A whitelist entry marks an
// entity as a confirmed false positive so screening matches against it are
// suppressed.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one whitelist record. An entry is live while Active is true and
// ExpiresAt (when set) is in the future; expiry is enforced lazily on read
// via an atomic conditional deactivation.
type Entry struct {
	ID         uuid.UUID  `json:"id"`
	EntityID   string     `json:"entityId"`
	EntityType string     `json:"entityType"`
	Reason     string     `json:"reason"`
	CreatedBy  uuid.UUID  `json:"createdBy"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Expired reports whether the entry's expiry has passed as of now.
func (e *Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}
