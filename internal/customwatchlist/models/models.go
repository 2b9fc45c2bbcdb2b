// Package models holds custom watchlist values: organization-curated
// blocklists matched unconditionally, independent of government sanctions
// sources.
package models

import (
	"time"

	"github.com/google/uuid"

	screening "screenguard/internal/screening/models"
)

// Watchlist status values.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Watchlist is a named, curated list of entries.
type Watchlist struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ListType    string    `json:"listType"`
	Status      string    `json:"status"`
	CreatedBy   uuid.UUID `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Entry is one curated name on a watchlist. Entries match by
// case-insensitive containment; no similarity threshold applies because
// every entry was placed deliberately.
type Entry struct {
	ID          uuid.UUID            `json:"id"`
	WatchlistID uuid.UUID            `json:"watchlistId"`
	EntityName  string               `json:"entityName"`
	EntityType  screening.EntityType `json:"entityType"`
	MatchReason string               `json:"matchReason,omitempty"`
	RiskLevel   string               `json:"riskLevel,omitempty"`
	AddedBy     uuid.UUID            `json:"addedBy"`
	AddedAt     time.Time            `json:"addedAt"`
}
