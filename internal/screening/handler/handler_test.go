package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"screenguard/internal/coverage"
	"screenguard/internal/platform/logger"
	"screenguard/internal/screening/engine"
	"screenguard/internal/screening/models"
	"screenguard/internal/screening/phonetic"
	"screenguard/internal/screening/similarity"
	historystore "screenguard/internal/screening/store/history"
	watchliststore "screenguard/internal/screening/store/watchlist"
	"screenguard/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctx     context.Context
	encoder *phonetic.Encoder
	store   *watchliststore.InMemoryStore
	router  chi.Router
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	s.encoder = phonetic.NewEncoder()
	s.store = watchliststore.NewInMemory()
	history := historystore.NewInMemory()

	eng, err := engine.New(s.encoder, similarity.NewScorer(), s.store, engine.DefaultConfig(),
		engine.WithHistory(history),
	)
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	New(eng, coverage.New(s.store, history), logger.New()).Register(s.router)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) listEntity(name string, entityType models.EntityType, dob *time.Time) {
	primary, alternate := s.encoder.Encode(name)
	s.Require().NoError(s.store.Upsert(s.ctx, models.WatchlistEntity{
		ID:              uuid.NewString(),
		FullName:        name,
		EntityType:      entityType,
		ListName:        "OFAC_SDN",
		DateOfBirth:     dob,
		PhoneticCode:    primary,
		PhoneticCodeAlt: alternate,
	}))
}

func (s *HandlerSuite) TestScreenName() {
	s.listEntity("Vladimir Putin", models.EntityTypePerson, nil)

	s.Run("listed name returns a match", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/screening/name", map[string]string{
			"name":       "Vladimir Putin",
			"entityType": "PERSON",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		result := testutil.UnmarshalResponse[models.ScreeningResult](s.T(), rr)
		s.Equal(models.StatusMatch, result.Status)
		s.NotEmpty(result.Matches)
	})

	s.Run("unlisted name is clear", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/screening/name", map[string]string{
			"name":       "John Smith",
			"entityType": "PERSON",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		result := testutil.UnmarshalResponse[models.ScreeningResult](s.T(), rr)
		s.Equal(models.StatusClear, result.Status)
	})

	s.Run("invalid entity type is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/screening/name", map[string]string{
			"name":       "John Smith",
			"entityType": "ROBOT",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("malformed body is rejected", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/screening/name", "{not json")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *HandlerSuite) TestScreenMerchant() {
	s.listEntity("Acme Holdings Limited", models.EntityTypeOrganization, nil)

	s.Run("legal and trading names are both screened", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/screening/merchant", map[string]string{
			"legalName":   "Clean Name Ltd",
			"tradingName": "Acme Holdings Limited",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		result := testutil.UnmarshalResponse[models.ScreeningResult](s.T(), rr)
		s.Equal(models.StatusMatch, result.Status)
	})

	s.Run("missing legal name is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/screening/merchant", map[string]string{})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *HandlerSuite) TestScreenBeneficialOwner() {
	dob := time.Date(1952, 10, 7, 0, 0, 0, 0, time.UTC)
	s.listEntity("Vladimir Putin", models.EntityTypePerson, &dob)

	s.Run("matching date of birth upgrades the match", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/screening/beneficial-owner", map[string]string{
			"fullName":    "Vladimir Putin",
			"dateOfBirth": "1952-10-07",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		result := testutil.UnmarshalResponse[models.ScreeningResult](s.T(), rr)
		s.Require().NotEmpty(result.Matches)
		s.Equal(models.MatchTypeDOBConfirmed, result.Matches[0].MatchType)
	})

	s.Run("bad date format is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/screening/beneficial-owner", map[string]string{
			"fullName":    "Vladimir Putin",
			"dateOfBirth": "07/10/1952",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *HandlerSuite) TestCoverage() {
	s.listEntity("Vladimir Putin", models.EntityTypePerson, nil)

	// Produce some history.
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/screening/name", map[string]string{
		"name":       "Vladimir Putin",
		"entityType": "PERSON",
	})
	testutil.DoRequest(s.router, req)

	s.Run("report aggregates entities and outcomes", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/screening/coverage"))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		report := testutil.UnmarshalResponse[coverage.Report](s.T(), rr)
		s.Equal(1, report.TotalEntities)
		s.Equal(1, report.EntitiesByList["OFAC_SDN"])
		s.Equal(1, report.CountsByStatus[models.StatusMatch])
	})

	s.Run("invalid window is rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/screening/coverage?window=-1h"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}
