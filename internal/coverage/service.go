// Package coverage aggregates read-only operational statistics over the
// watchlist store and screening history for compliance reporting.
package coverage

import (
	"context"
	"time"

	"screenguard/internal/screening/models"
	"screenguard/internal/screening/ports"
	dErrors "screenguard/pkg/errors"
)

// Report summarizes watchlist coverage and recent screening activity.
type Report struct {
	GeneratedAt     time.Time                          `json:"generatedAt"`
	TotalEntities   int                                `json:"totalEntities"`
	EntitiesByList  map[string]int                     `json:"entitiesByList"`
	ScreeningsSince time.Time                          `json:"screeningsSince"`
	CountsByStatus  map[models.ScreeningStatus]int     `json:"countsByStatus"`
}

// Service builds coverage reports. Both collaborators are the same stores the
// screening path uses; nothing here mutates state.
type Service struct {
	store   ports.WatchlistStore
	history ports.HistoryStore
	clock   func() time.Time
}

func New(store ports.WatchlistStore, history ports.HistoryStore) *Service {
	return &Service{store: store, history: history, clock: time.Now}
}

// Report aggregates entity counts per source list and screening outcomes
// over the given window.
func (s *Service) Report(ctx context.Context, window time.Duration) (*Report, error) {
	byList, err := s.store.CountByList(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count watchlist entities")
	}

	now := s.clock().UTC()
	since := now.Add(-window)
	byStatus, err := s.history.CountByStatusSince(ctx, since)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count screening history")
	}

	total := 0
	for _, n := range byList {
		total += n
	}
	return &Report{
		GeneratedAt:     now,
		TotalEntities:   total,
		EntitiesByList:  byList,
		ScreeningsSince: since,
		CountsByStatus:  byStatus,
	}, nil
}
