// Package engine orchestrates name screening: phonetic encoding, indexed
// candidate lookup, similarity scoring, result assembly, and the cache
// write-through policy.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"screenguard/internal/screening/metrics"
	"screenguard/internal/screening/models"
	"screenguard/internal/screening/phonetic"
	"screenguard/internal/screening/ports"
)

// Config carries the engine's matching thresholds and cache policy.
type Config struct {
	// SimilarityThreshold filters candidates: sub-threshold scores are
	// discarded and never surface on a result.
	SimilarityThreshold float64

	// ConfidenceThreshold separates MATCH from POTENTIAL_MATCH.
	ConfidenceThreshold float64

	CacheEnabled bool
	CacheTTL     time.Duration

	// StoreTimeout bounds each watchlist query so a slow index degrades to
	// zero candidates instead of stalling the transaction path.
	StoreTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.8,
		ConfidenceThreshold: 0.95,
		CacheEnabled:        true,
		CacheTTL:            24 * time.Hour,
		StoreTimeout:        2 * time.Second,
	}
}

// Engine screens names against the watchlist store.
//
// The engine is deliberately fail-open: store and cache faults degrade to
// "no candidates for that query" so infrastructure trouble never halts
// payment processing. Every degraded path is logged and counted; see the
// DegradedResults metric before trusting a quiet day.
type Engine struct {
	encoder ports.Encoder
	scorer  ports.Scorer
	store   ports.WatchlistStore
	cache   ports.ScreeningCache
	history ports.HistoryStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	cfg     Config
	clock   func() time.Time
	flight  singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCache attaches the screening cache. Without one the engine always
// queries the store.
func WithCache(cache ports.ScreeningCache) Option {
	return func(e *Engine) { e.cache = cache }
}

// WithHistory attaches a history store; outcomes are recorded best-effort.
func WithHistory(history ports.HistoryStore) Option {
	return func(e *Engine) { e.history = history }
}

// WithClock injects a clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// New constructs an Engine. Encoder, scorer, and store are required; a
// missing one is a configuration error surfaced at startup, not swallowed.
func New(encoder ports.Encoder, scorer ports.Scorer, store ports.WatchlistStore, cfg Config, opts ...Option) (*Engine, error) {
	if encoder == nil {
		return nil, fmt.Errorf("phonetic encoder is required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("similarity scorer is required")
	}
	if store == nil {
		return nil, fmt.Errorf("watchlist store is required")
	}
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("similarity threshold %v out of range (0,1]", cfg.SimilarityThreshold)
	}
	if cfg.ConfidenceThreshold < cfg.SimilarityThreshold || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("confidence threshold %v must be in [similarity threshold, 1]", cfg.ConfidenceThreshold)
	}

	e := &Engine{
		encoder: encoder,
		scorer:  scorer,
		store:   store,
		cfg:     cfg,
		logger:  slog.Default(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ScreenName screens a single name. It never returns an error: validation
// failures yield a trivial CLEAR, and an unexpected fault yields a CLEAR
// tagged DEGRADED. This fail-open stance is a deliberate product decision;
// harden to fail-closed only with regulatory sign-off.
func (e *Engine) ScreenName(ctx context.Context, name string, entityType models.EntityType) models.ScreeningResult {
	if strings.TrimSpace(name) == "" {
		return models.NewResult(name, entityType, nil, e.cfg.ConfidenceThreshold, models.ProviderWatchlistStore, e.clock())
	}

	start := e.clock()

	// Collapse concurrent identical lookups into one store round trip.
	key := string(entityType) + ":" + strings.ToLower(phonetic.Normalize(name))
	value, err, _ := e.flight.Do(key, func() (any, error) {
		return e.screen(ctx, name, entityType), nil
	})
	if err != nil {
		// singleflight itself cannot fail here; keep the branch explicit.
		e.logger.ErrorContext(ctx, "screening failed unexpectedly", "name", name, "error", err)
		if e.metrics != nil {
			e.metrics.IncDegradedResult()
		}
		return models.NewResult(name, entityType, nil, e.cfg.ConfidenceThreshold, models.ProviderDegraded, e.clock())
	}

	result := value.(models.ScreeningResult)
	if e.metrics != nil {
		e.metrics.ObserveScreening(string(result.Status), e.clock().Sub(start))
	}
	return result
}

func (e *Engine) screen(ctx context.Context, name string, entityType models.EntityType) models.ScreeningResult {
	// Cache hit short-circuits the store entirely. A cache fault is a miss.
	if e.cacheActive() {
		cached, err := e.cache.GetResult(ctx, name, entityType)
		if err != nil {
			e.logger.WarnContext(ctx, "cache lookup failed, proceeding as miss", "name", name, "error", err)
		} else if cached != nil {
			if e.metrics != nil {
				e.metrics.IncCacheHit()
			}
			return *cached
		}
		if e.metrics != nil {
			e.metrics.IncCacheMiss()
		}
	}

	primary, alternate := e.encoder.Encode(name)
	if primary == "" && alternate == "" {
		return models.NewResult(name, entityType, nil, e.cfg.ConfidenceThreshold, models.ProviderWatchlistStore, e.clock())
	}

	candidates := e.gatherCandidates(ctx, name, entityType, primary, alternate)
	matches := e.scoreCandidates(name, candidates)

	result := models.NewResult(name, entityType, matches, e.cfg.ConfidenceThreshold, models.ProviderWatchlistStore, e.clock())

	// Only CLEAR outcomes are cached: a cached MATCH would go stale the
	// moment an analyst clears it, and a cached miss of a newly ingested
	// listing is bounded by the TTL instead.
	if e.cacheActive() && result.Status == models.StatusClear {
		if err := e.cache.PutResult(ctx, name, entityType, result, e.cfg.CacheTTL); err != nil {
			e.logger.WarnContext(ctx, "cache write failed", "name", name, "error", err)
		}
	}

	if e.history != nil {
		if err := e.history.Record(ctx, result); err != nil {
			e.logger.WarnContext(ctx, "history write failed", "name", name, "error", err)
		}
	}

	if result.HasMatches() {
		e.logger.InfoContext(ctx, "screening found matches",
			"name", name,
			"entity_type", entityType,
			"status", result.Status,
			"match_count", result.MatchCount,
			"highest_score", result.HighestMatchScore,
		)
	}
	return result
}

// gatherCandidates queries the store once per distinct non-empty code, in
// parallel, de-duplicating by entity id. A failed query is logged and
// contributes zero candidates; screening continues with whatever the other
// query found.
func (e *Engine) gatherCandidates(ctx context.Context, name string, entityType models.EntityType, primary, alternate string) []models.WatchlistEntity {
	codes := []string{}
	if primary != "" {
		codes = append(codes, primary)
	}
	if alternate != "" && alternate != primary {
		codes = append(codes, alternate)
	}

	batches := make([][]models.WatchlistEntity, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	for i, code := range codes {
		g.Go(func() error {
			qctx := gctx
			if e.cfg.StoreTimeout > 0 {
				var cancel context.CancelFunc
				qctx, cancel = context.WithTimeout(gctx, e.cfg.StoreTimeout)
				defer cancel()
			}
			entities, err := e.store.FindByPhoneticCode(qctx, code, entityType)
			if err != nil {
				e.logger.ErrorContext(ctx, "watchlist query failed, treating as zero candidates",
					"name", name, "code", code, "error", err)
				if e.metrics != nil {
					e.metrics.IncStoreFault()
				}
				return nil
			}
			batches[i] = entities
			return nil
		})
	}
	// Errors are swallowed per-query above; Wait only propagates ctx cancellation.
	_ = g.Wait()

	seen := make(map[string]struct{})
	var candidates []models.WatchlistEntity
	for _, batch := range batches {
		for _, entity := range batch {
			if _, dup := seen[entity.ID]; dup {
				continue
			}
			seen[entity.ID] = struct{}{}
			candidates = append(candidates, entity)
		}
	}
	return candidates
}

func (e *Engine) scoreCandidates(name string, candidates []models.WatchlistEntity) []models.Match {
	var matches []models.Match
	for _, entity := range candidates {
		score := e.scorer.Score(name, entity.FullName)
		if score < e.cfg.SimilarityThreshold {
			continue
		}
		matches = append(matches, models.Match{
			EntityID:        entity.ID,
			MatchedName:     entity.FullName,
			Aliases:         entity.Aliases,
			SimilarityScore: score,
			ListName:        entity.ListName,
			EntityType:      entity.EntityType,
			MatchType:       models.MatchTypePhonetic,
			DateOfBirth:     entity.DateOfBirth,
			Nationality:     entity.Nationality,
			SanctionType:    entity.SanctionType,
			Programs:        entity.Programs,
		})
	}
	return matches
}

// ScreenMerchant screens a merchant's legal name and, when different, its
// trading name, unioning the matches and re-deriving the status over the
// union.
func (e *Engine) ScreenMerchant(ctx context.Context, legalName, tradingName string) models.ScreeningResult {
	result := e.ScreenName(ctx, legalName, models.EntityTypeOrganization)

	if tradingName == "" || tradingName == legalName {
		return result
	}

	tradingResult := e.ScreenName(ctx, tradingName, models.EntityTypeOrganization)
	if !tradingResult.HasMatches() {
		return result
	}

	// Copy before merging: singleflight may hand the same backing slice to
	// concurrent callers.
	seen := make(map[string]struct{}, len(result.Matches))
	merged := make([]models.Match, 0, len(result.Matches)+len(tradingResult.Matches))
	for _, m := range result.Matches {
		seen[m.EntityID] = struct{}{}
		merged = append(merged, m)
	}
	for _, m := range tradingResult.Matches {
		if _, dup := seen[m.EntityID]; dup {
			continue
		}
		merged = append(merged, m)
	}

	return models.NewResult(legalName, models.EntityTypeOrganization, merged, e.cfg.ConfidenceThreshold, result.ScreeningProvider, e.clock())
}

// ScreenBeneficialOwner screens a person and, when a date of birth is
// supplied, upgrades matches whose listed date of birth equals it to
// DOB_CONFIRMED.
func (e *Engine) ScreenBeneficialOwner(ctx context.Context, fullName string, dateOfBirth *time.Time) models.ScreeningResult {
	result := e.ScreenName(ctx, fullName, models.EntityTypePerson)

	if dateOfBirth == nil || !result.HasMatches() {
		return result
	}

	// Copy before upgrading match types; the slice may be shared with
	// concurrent singleflight callers.
	result.Matches = append([]models.Match(nil), result.Matches...)
	for i := range result.Matches {
		m := &result.Matches[i]
		if m.DateOfBirth != nil && sameDate(*m.DateOfBirth, *dateOfBirth) {
			m.MatchType = models.MatchTypeDOBConfirmed
			e.logger.WarnContext(ctx, "date of birth confirmed on watchlist match",
				"name", fullName, "matched_name", m.MatchedName, "list", m.ListName)
		}
	}
	return result
}

func (e *Engine) cacheActive() bool {
	return e.cfg.CacheEnabled && e.cache != nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
