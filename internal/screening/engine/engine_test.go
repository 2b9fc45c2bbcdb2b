package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"screenguard/internal/screening/cache"
	"screenguard/internal/screening/models"
	"screenguard/internal/screening/phonetic"
	"screenguard/internal/screening/similarity"
	historystore "screenguard/internal/screening/store/history"
	watchliststore "screenguard/internal/screening/store/watchlist"
)

type EngineSuite struct {
	suite.Suite
	ctx     context.Context
	encoder *phonetic.Encoder
	store   *watchliststore.InMemoryStore
	cache   *cache.InMemoryCache
	history *historystore.InMemoryStore
	engine  *Engine
	now     time.Time
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.encoder = phonetic.NewEncoder()
	s.store = watchliststore.NewInMemory()
	s.cache = cache.NewInMemory()
	s.history = historystore.NewInMemory()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	eng, err := New(s.encoder, similarity.NewScorer(), s.store, DefaultConfig(),
		WithCache(s.cache),
		WithHistory(s.history),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.engine = eng
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) addEntity(name string, entityType models.EntityType, listName string) models.WatchlistEntity {
	primary, alternate := s.encoder.Encode(name)
	entity := models.WatchlistEntity{
		ID:              uuid.NewString(),
		FullName:        name,
		EntityType:      entityType,
		ListName:        listName,
		SanctionType:    "SANCTION",
		Programs:        []string{"UKRAINE-EO13662"},
		PhoneticCode:    primary,
		PhoneticCodeAlt: alternate,
	}
	s.Require().NoError(s.store.Upsert(s.ctx, entity))
	return entity
}

func (s *EngineSuite) TestExactNameIsConfidentMatch() {
	entity := s.addEntity("Vladimir Putin", models.EntityTypePerson, "OFAC_SDN")

	result := s.engine.ScreenName(s.ctx, "Vladimir Putin", models.EntityTypePerson)

	s.Equal(models.StatusMatch, result.Status)
	s.GreaterOrEqual(result.HighestMatchScore, 0.95)
	s.Equal(models.ProviderWatchlistStore, result.ScreeningProvider)
	s.Require().Len(result.Matches, 1)
	s.Equal(entity.ID, result.Matches[0].EntityID)
	s.Equal(models.MatchTypePhonetic, result.Matches[0].MatchType)
	s.Equal("OFAC_SDN", result.Matches[0].ListName)
}

func (s *EngineSuite) TestUnlistedNameIsClear() {
	s.addEntity("Vladimir Putin", models.EntityTypePerson, "OFAC_SDN")

	result := s.engine.ScreenName(s.ctx, "John Smith", models.EntityTypePerson)

	s.Equal(models.StatusClear, result.Status)
	s.Empty(result.Matches)
	s.Zero(result.MatchCount)
	s.Zero(result.HighestMatchScore)
}

func (s *EngineSuite) TestResultInvariants() {
	s.addEntity("Vladimir Putin", models.EntityTypePerson, "OFAC_SDN")
	s.addEntity("Vladimir Putinov", models.EntityTypePerson, "EU_SANCTIONS")

	result := s.engine.ScreenName(s.ctx, "Vladimir Putin", models.EntityTypePerson)

	s.Equal(len(result.Matches), result.MatchCount)
	highest := 0.0
	for _, m := range result.Matches {
		s.GreaterOrEqual(m.SimilarityScore, s.engine.cfg.SimilarityThreshold)
		if m.SimilarityScore > highest {
			highest = m.SimilarityScore
		}
	}
	s.InDelta(highest, result.HighestMatchScore, 1e-9)
	s.Equal(s.now, result.ScreenedAt)
}

func (s *EngineSuite) TestSubThresholdCandidatesAreFiltered() {
	// Same index code as the query but a very different full name, so the
	// index surfaces it and the scorer must throw it out.
	primary, alternate := s.encoder.Encode("Smith")
	s.Require().NoError(s.store.Upsert(s.ctx, models.WatchlistEntity{
		ID:              uuid.NewString(),
		FullName:        "Sergey Mikhailovich Tretyakov",
		EntityType:      models.EntityTypePerson,
		ListName:        "OFAC_SDN",
		PhoneticCode:    primary,
		PhoneticCodeAlt: alternate,
	}))

	result := s.engine.ScreenName(s.ctx, "Smith", models.EntityTypePerson)

	s.Equal(models.StatusClear, result.Status)
	s.Empty(result.Matches)
}

func (s *EngineSuite) TestCloseVariantIsPotentialMatch() {
	s.addEntity("Smyth", models.EntityTypePerson, "OFAC_SDN")

	result := s.engine.ScreenName(s.ctx, "Smith", models.EntityTypePerson)

	s.Equal(models.StatusPotentialMatch, result.Status)
	s.Require().Len(result.Matches, 1)
	s.InDelta(0.8, result.Matches[0].SimilarityScore, 1e-9)
}

func (s *EngineSuite) TestEntityTypeFilter() {
	s.addEntity("Acme Holdings", models.EntityTypeOrganization, "OFAC_SDN")

	result := s.engine.ScreenName(s.ctx, "Acme Holdings", models.EntityTypePerson)

	s.Equal(models.StatusClear, result.Status)
}

func (s *EngineSuite) TestDualCodeCandidatesDeduplicated() {
	// One entity reachable through both the primary and the alternate code
	// must appear once on the result.
	entity := s.addEntity("Vladimir Putin", models.EntityTypePerson, "OFAC_SDN")

	result := s.engine.ScreenName(s.ctx, "Vladimir Putin", models.EntityTypePerson)

	s.Require().Len(result.Matches, 1)
	s.Equal(entity.ID, result.Matches[0].EntityID)
}

func (s *EngineSuite) TestOnlyClearResultsAreCached() {
	s.addEntity("Vladimir Putin", models.EntityTypePerson, "OFAC_SDN")

	match := s.engine.ScreenName(s.ctx, "Vladimir Putin", models.EntityTypePerson)
	s.Equal(models.StatusMatch, match.Status)
	cached, err := s.cache.GetResult(s.ctx, "Vladimir Putin", models.EntityTypePerson)
	s.Require().NoError(err)
	s.Nil(cached, "matches must never be served from cache")

	clear := s.engine.ScreenName(s.ctx, "John Smith", models.EntityTypePerson)
	s.Equal(models.StatusClear, clear.Status)
	cached, err = s.cache.GetResult(s.ctx, "John Smith", models.EntityTypePerson)
	s.Require().NoError(err)
	s.Require().NotNil(cached)

	second := s.engine.ScreenName(s.ctx, "John Smith", models.EntityTypePerson)
	s.Equal(models.StatusClear, second.Status)
	s.Equal(models.ProviderCache, second.ScreeningProvider)
}

func (s *EngineSuite) TestCacheDisabled() {
	cfg := DefaultConfig()
	cfg.CacheEnabled = false
	eng, err := New(s.encoder, similarity.NewScorer(), s.store, cfg,
		WithCache(s.cache),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)

	result := eng.ScreenName(s.ctx, "John Smith", models.EntityTypePerson)
	s.Equal(models.StatusClear, result.Status)

	cached, err := s.cache.GetResult(s.ctx, "John Smith", models.EntityTypePerson)
	s.Require().NoError(err)
	s.Nil(cached)
}

func (s *EngineSuite) TestScreeningIsIdempotent() {
	s.addEntity("Vladimir Putin", models.EntityTypePerson, "OFAC_SDN")

	first := s.engine.ScreenName(s.ctx, "Vladimir Putin", models.EntityTypePerson)
	second := s.engine.ScreenName(s.ctx, "Vladimir Putin", models.EntityTypePerson)

	s.Equal(first.Status, second.Status)
	s.Equal(first.MatchCount, second.MatchCount)
	s.InDelta(first.HighestMatchScore, second.HighestMatchScore, 1e-9)
}

func (s *EngineSuite) TestEmptyNameIsTrivialClear() {
	result := s.engine.ScreenName(s.ctx, "   ", models.EntityTypePerson)

	s.Equal(models.StatusClear, result.Status)
	s.Empty(result.Matches)

	counts, err := s.history.CountByStatusSince(s.ctx, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Zero(counts[models.StatusClear], "trivial results are not recorded")
}

func (s *EngineSuite) TestStoreFailureFailsOpen() {
	eng, err := New(s.encoder, similarity.NewScorer(), failingStore{}, DefaultConfig(),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)

	result := eng.ScreenName(s.ctx, "Vladimir Putin", models.EntityTypePerson)

	s.Equal(models.StatusClear, result.Status)
	s.Empty(result.Matches)
}

func (s *EngineSuite) TestHistoryRecorded() {
	s.addEntity("Vladimir Putin", models.EntityTypePerson, "OFAC_SDN")

	s.engine.ScreenName(s.ctx, "Vladimir Putin", models.EntityTypePerson)
	s.engine.ScreenName(s.ctx, "John Smith", models.EntityTypePerson)

	counts, err := s.history.CountByStatusSince(s.ctx, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(1, counts[models.StatusMatch])
	s.Equal(1, counts[models.StatusClear])
}

func (s *EngineSuite) TestScreenMerchantUnionsNames() {
	legal := s.addEntity("Acme Holdings Limited", models.EntityTypeOrganization, "OFAC_SDN")
	trading := s.addEntity("Acme Trading", models.EntityTypeOrganization, "EU_SANCTIONS")

	result := s.engine.ScreenMerchant(s.ctx, "Acme Holdings Limited", "Acme Trading")

	s.Require().Len(result.Matches, 2)
	ids := map[string]bool{}
	for _, m := range result.Matches {
		ids[m.EntityID] = true
	}
	s.True(ids[legal.ID])
	s.True(ids[trading.ID])
	s.Equal(len(result.Matches), result.MatchCount)
	s.Equal(models.StatusMatch, result.Status)
}

func (s *EngineSuite) TestScreenMerchantSkipsEqualTradingName() {
	s.addEntity("Acme Holdings Limited", models.EntityTypeOrganization, "OFAC_SDN")

	result := s.engine.ScreenMerchant(s.ctx, "Acme Holdings Limited", "Acme Holdings Limited")

	s.Len(result.Matches, 1)
}

func (s *EngineSuite) TestScreenBeneficialOwnerConfirmsDateOfBirth() {
	dob := time.Date(1952, 10, 7, 0, 0, 0, 0, time.UTC)
	entity := s.addEntity("Vladimir Putin", models.EntityTypePerson, "OFAC_SDN")
	entity.DateOfBirth = &dob
	s.Require().NoError(s.store.Upsert(s.ctx, entity))

	s.Run("matching date upgrades the match", func() {
		result := s.engine.ScreenBeneficialOwner(s.ctx, "Vladimir Putin", &dob)
		s.Require().Len(result.Matches, 1)
		s.Equal(models.MatchTypeDOBConfirmed, result.Matches[0].MatchType)
	})

	s.Run("different date stays phonetic", func() {
		other := time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)
		result := s.engine.ScreenBeneficialOwner(s.ctx, "Vladimir Putin", &other)
		s.Require().Len(result.Matches, 1)
		s.Equal(models.MatchTypePhonetic, result.Matches[0].MatchType)
	})

	s.Run("no date leaves matches untouched", func() {
		result := s.engine.ScreenBeneficialOwner(s.ctx, "Vladimir Putin", nil)
		s.Require().Len(result.Matches, 1)
		s.Equal(models.MatchTypePhonetic, result.Matches[0].MatchType)
	})
}

func (s *EngineSuite) TestConfigValidation() {
	scorer := similarity.NewScorer()

	_, err := New(nil, scorer, s.store, DefaultConfig())
	s.Error(err)

	_, err = New(s.encoder, nil, s.store, DefaultConfig())
	s.Error(err)

	_, err = New(s.encoder, scorer, nil, DefaultConfig())
	s.Error(err)

	bad := DefaultConfig()
	bad.SimilarityThreshold = 1.5
	_, err = New(s.encoder, scorer, s.store, bad)
	s.Error(err)

	bad = DefaultConfig()
	bad.ConfidenceThreshold = 0.5
	_, err = New(s.encoder, scorer, s.store, bad)
	s.Error(err)
}

// Concurrent identical lookups must collapse into one in-flight screening
// whose result every caller receives. The gated store holds the watchlist
// queries open so all callers arrive while the first flight is pending.
func (s *EngineSuite) TestConcurrentIdenticalLookupsCollapse() {
	s.addEntity("Vladimir Putin", models.EntityTypePerson, "OFAC_SDN")

	gated := &gatedStore{inner: s.store, release: make(chan struct{})}
	eng, err := New(s.encoder, similarity.NewScorer(), gated, DefaultConfig(),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)

	const callers = 16
	results := make([]models.ScreeningResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = eng.ScreenName(s.ctx, "Vladimir Putin", models.EntityTypePerson)
		}(i)
	}

	// Wait for the first flight's dual-code queries to reach the store,
	// give the remaining callers time to join the flight, then release.
	for gated.calls.Load() < 2 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	queriesBeforeRelease := gated.calls.Load()
	close(gated.release)
	wg.Wait()

	s.Equal(int32(2), queriesBeforeRelease)
	for _, result := range results {
		s.Equal(models.StatusMatch, result.Status)
		s.Equal(results[0], result)
	}
}

type gatedStore struct {
	inner   *watchliststore.InMemoryStore
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedStore) FindByPhoneticCode(ctx context.Context, code string, entityType models.EntityType) ([]models.WatchlistEntity, error) {
	g.calls.Add(1)
	<-g.release
	return g.inner.FindByPhoneticCode(ctx, code, entityType)
}

func (g *gatedStore) CountByList(ctx context.Context) (map[string]int, error) {
	return g.inner.CountByList(ctx)
}

type failingStore struct{}

func (failingStore) FindByPhoneticCode(context.Context, string, models.EntityType) ([]models.WatchlistEntity, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) CountByList(context.Context) (map[string]int, error) {
	return nil, errors.New("connection refused")
}
