//go:build integration

package watchlist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"screenguard/internal/screening/models"
	"screenguard/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx      context.Context
	postgres *containers.PostgresContainer
	store    *PostgresStore
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx))
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) seed(entity models.WatchlistEntity) {
	s.Require().NoError(s.store.Upsert(s.ctx, entity))
}

func (s *PostgresStoreSuite) TestFindByPhoneticCode() {
	dob := time.Date(1952, 10, 7, 0, 0, 0, 0, time.UTC)
	s.seed(models.WatchlistEntity{
		ID:              "ofac-1",
		FullName:        "Vladimir Putin",
		Aliases:         []string{"Vladimir Vladimirovich Putin"},
		EntityType:      models.EntityTypePerson,
		ListName:        "OFAC_SDN",
		DateOfBirth:     &dob,
		Nationality:     []string{"RU"},
		SanctionType:    "SDN",
		Programs:        []string{"RUSSIA-EO14024"},
		PhoneticCode:    "FLTMRPTN",
		PhoneticCodeAlt: "V4356P35",
	})
	s.seed(models.WatchlistEntity{
		ID:              "ofac-2",
		FullName:        "Acme Front Corp",
		EntityType:      models.EntityTypeOrganization,
		ListName:        "EU_CONSOLIDATED",
		PhoneticCode:    "AKMFRNTKRP",
		PhoneticCodeAlt: "A25163K61",
	})

	s.Run("primary code hits", func() {
		entities, err := s.store.FindByPhoneticCode(s.ctx, "FLTMRPTN", models.EntityTypePerson)
		s.Require().NoError(err)
		s.Require().Len(entities, 1)

		entity := entities[0]
		s.Equal("ofac-1", entity.ID)
		s.Equal("Vladimir Putin", entity.FullName)
		s.Equal([]string{"Vladimir Vladimirovich Putin"}, entity.Aliases)
		s.Equal([]string{"RUSSIA-EO14024"}, entity.Programs)
		s.Require().NotNil(entity.DateOfBirth)
		s.True(entity.DateOfBirth.Equal(dob))
	})

	s.Run("alternate code hits", func() {
		entities, err := s.store.FindByPhoneticCode(s.ctx, "V4356P35", models.EntityTypePerson)
		s.Require().NoError(err)
		s.Len(entities, 1)
	})

	s.Run("entity type filters", func() {
		entities, err := s.store.FindByPhoneticCode(s.ctx, "FLTMRPTN", models.EntityTypeOrganization)
		s.Require().NoError(err)
		s.Empty(entities)
	})

	s.Run("unknown code returns nothing", func() {
		entities, err := s.store.FindByPhoneticCode(s.ctx, "XXXX", models.EntityTypePerson)
		s.Require().NoError(err)
		s.Empty(entities)
	})

	s.Run("empty code short-circuits", func() {
		entities, err := s.store.FindByPhoneticCode(s.ctx, "", models.EntityTypePerson)
		s.Require().NoError(err)
		s.Empty(entities)
	})
}

func (s *PostgresStoreSuite) TestUpsertReplacesExisting() {
	s.seed(models.WatchlistEntity{
		ID:           "ofac-1",
		FullName:     "Vladimir Putin",
		EntityType:   models.EntityTypePerson,
		ListName:     "OFAC_SDN",
		PhoneticCode: "FLTMRPTN",
	})
	s.seed(models.WatchlistEntity{
		ID:           "ofac-1",
		FullName:     "Vladimir V. Putin",
		EntityType:   models.EntityTypePerson,
		ListName:     "OFAC_SDN",
		PhoneticCode: "FLTMRPTN",
		Programs:     []string{"RUSSIA-EO14024"},
	})

	entities, err := s.store.FindByPhoneticCode(s.ctx, "FLTMRPTN", models.EntityTypePerson)
	s.Require().NoError(err)
	s.Require().Len(entities, 1)
	s.Equal("Vladimir V. Putin", entities[0].FullName)
	s.Equal([]string{"RUSSIA-EO14024"}, entities[0].Programs)
}

func (s *PostgresStoreSuite) TestCountByList() {
	s.seed(models.WatchlistEntity{ID: "a", FullName: "A", EntityType: models.EntityTypePerson, ListName: "OFAC_SDN", PhoneticCode: "A"})
	s.seed(models.WatchlistEntity{ID: "b", FullName: "B", EntityType: models.EntityTypePerson, ListName: "OFAC_SDN", PhoneticCode: "B"})
	s.seed(models.WatchlistEntity{ID: "c", FullName: "C", EntityType: models.EntityTypeOrganization, ListName: "EU_CONSOLIDATED", PhoneticCode: "C"})

	counts, err := s.store.CountByList(s.ctx)
	s.Require().NoError(err)
	s.Equal(map[string]int{"OFAC_SDN": 2, "EU_CONSOLIDATED": 1}, counts)
}
