// Package models holds the screening domain values shared across the engine,
// stores, cache, and transport layers. All types are plain value structs;
// persistence concerns stay in the store packages.
package models

import (
	"time"
)

// EntityType distinguishes people from organizations on watchlists and in
// screening requests.
type EntityType string

const (
	EntityTypePerson       EntityType = "PERSON"
	EntityTypeOrganization EntityType = "ORGANIZATION"
)

// IsValid reports whether the entity type is one of the known values.
func (t EntityType) IsValid() bool {
	return t == EntityTypePerson || t == EntityTypeOrganization
}

// ScreeningStatus is the outcome class of a screening run.
type ScreeningStatus string

const (
	StatusClear          ScreeningStatus = "CLEAR"
	StatusPotentialMatch ScreeningStatus = "POTENTIAL_MATCH"
	StatusMatch          ScreeningStatus = "MATCH"
)

// MatchType records how a candidate was matched.
type MatchType string

const (
	MatchTypePhonetic     MatchType = "PHONETIC_MATCH"
	MatchTypeDOBConfirmed MatchType = "DOB_CONFIRMED"
)

// Screening provider tags surfaced on results for operational traceability.
const (
	ProviderWatchlistStore = "WATCHLIST_STORE"
	ProviderCache          = "CACHE"
	ProviderDegraded       = "DEGRADED"
)

// WatchlistEntity is one record on a sanctions/PEP/custom source list.
// Entities are immutable once ingested; ingestion happens outside this
// service, which only reads them through the phonetic-code index.
type WatchlistEntity struct {
	ID              string
	FullName        string
	Aliases         []string
	EntityType      EntityType
	ListName        string
	DateOfBirth     *time.Time
	Nationality     []string
	SanctionType    string
	Programs        []string
	PhoneticCode    string
	PhoneticCodeAlt string
}

// Match is one watchlist candidate that survived similarity filtering.
type Match struct {
	EntityID        string     `json:"entityId"`
	MatchedName     string     `json:"matchedName"`
	Aliases         []string   `json:"aliases,omitempty"`
	SimilarityScore float64    `json:"similarityScore"`
	ListName        string     `json:"listName"`
	EntityType      EntityType `json:"entityType"`
	MatchType       MatchType  `json:"matchType"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	Nationality     []string   `json:"nationality,omitempty"`
	SanctionType    string     `json:"sanctionType,omitempty"`
	Programs        []string   `json:"programs,omitempty"`
}

// ScreeningResult is the outcome of screening one name (or a merged merchant
// pair) against the watchlist store.
type ScreeningResult struct {
	ScreenedName      string          `json:"screenedName"`
	EntityType        EntityType      `json:"entityType"`
	Status            ScreeningStatus `json:"status"`
	MatchCount        int             `json:"matchCount"`
	HighestMatchScore float64         `json:"highestMatchScore"`
	Matches           []Match         `json:"matches"`
	ScreenedAt        time.Time       `json:"screenedAt"`
	ScreeningProvider string          `json:"screeningProvider"`
}

// HasMatches reports whether any candidate survived filtering.
func (r *ScreeningResult) HasMatches() bool {
	return len(r.Matches) > 0
}

// NewResult assembles a ScreeningResult from a candidate match list,
// enforcing the structural invariants: MatchCount mirrors len(Matches),
// HighestMatchScore is the max score (0.0 when empty), and Status derives
// from the confidence threshold.
func NewResult(name string, entityType EntityType, matches []Match, confidenceThreshold float64, provider string, now time.Time) ScreeningResult {
	if matches == nil {
		matches = []Match{}
	}
	return ScreeningResult{
		ScreenedName:      name,
		EntityType:        entityType,
		Status:            StatusOf(matches, confidenceThreshold),
		MatchCount:        len(matches),
		HighestMatchScore: HighestScore(matches),
		Matches:           matches,
		ScreenedAt:        now,
		ScreeningProvider: provider,
	}
}

// StatusOf derives the result status from a match list: MATCH when any score
// reaches the confidence threshold, POTENTIAL_MATCH when matches exist, CLEAR
// otherwise.
func StatusOf(matches []Match, confidenceThreshold float64) ScreeningStatus {
	if len(matches) == 0 {
		return StatusClear
	}
	for _, m := range matches {
		if m.SimilarityScore >= confidenceThreshold {
			return StatusMatch
		}
	}
	return StatusPotentialMatch
}

// HighestScore returns the maximum similarity score in the list, 0.0 when
// empty.
func HighestScore(matches []Match) float64 {
	highest := 0.0
	for _, m := range matches {
		if m.SimilarityScore > highest {
			highest = m.SimilarityScore
		}
	}
	return highest
}
