//go:build integration

package claim_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"warranty/internal/warranty/models"
	"warranty/internal/warranty/store/claim"
	"warranty/internal/warranty/store/serial"
	id "warranty/pkg/domain"
	"warranty/pkg/platform/sentinel"
	"warranty/pkg/testutil/containers"
)

type PostgresClaimStoreSuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	store   *claim.PostgresStore
	serials *serial.PostgresStore
	ctx     context.Context
}

func TestPostgresClaimStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresClaimStoreSuite))
}

func (s *PostgresClaimStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = claim.NewPostgres(s.pg.DB)
	s.serials = serial.NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresClaimStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *PostgresClaimStoreSuite) seedSerial(code string) id.SerialID {
	rec, err := models.NewSerialRecord(id.NewSerialID(), id.ProductID(uuid.New()), code, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.serials.Create(s.ctx, rec))
	return rec.ID
}

func (s *PostgresClaimStoreSuite) newClaim(serialID id.SerialID, evidence ...string) *models.ClaimRecord {
	expected := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	c, err := models.NewClaimRecord(id.NewClaimID(), serialID, models.ComplaintFields{
		ComplaintTitle:         "No power",
		ComplaintDate:          time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC),
		IssueType:              models.IssueHardwareMalfunction,
		ExpectedResolutionDate: &expected,
		Description:            "Unit does not turn on",
	}, evidence, time.Now().UTC())
	s.Require().NoError(err)
	return c
}

func (s *PostgresClaimStoreSuite) TestCreateAndFind() {
	c := s.newClaim(s.seedSerial("SN-C-1"), "https://objects.local/a.png", "https://objects.local/b.png")
	s.Require().NoError(s.store.Create(s.ctx, c))

	got, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.SerialID, got.SerialID)
	s.Equal(models.IssueHardwareMalfunction, got.IssueType)
	s.Equal(c.EvidenceImageURLs, got.EvidenceImageURLs)
	s.Require().NotNil(got.ExpectedResolutionDate)
	s.True(c.ExpectedResolutionDate.Equal(*got.ExpectedResolutionDate))
	s.Empty(got.CustomerNote)

	_, err = s.store.FindByID(s.ctx, id.NewClaimID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresClaimStoreSuite) TestConstraints() {
	s.Run("claim needs an existing serial", func() {
		s.Error(s.store.Create(s.ctx, s.newClaim(id.NewSerialID())))
	})

	s.Run("evidence is capped at four images", func() {
		c := s.newClaim(s.seedSerial("SN-C-2"))
		c.EvidenceImageURLs = []string{"1", "2", "3", "4", "5"}
		s.Error(s.store.Create(s.ctx, c))
	})

	s.Run("no evidence reads back as an empty list", func() {
		c := s.newClaim(s.seedSerial("SN-C-3"))
		s.Require().NoError(s.store.Create(s.ctx, c))
		got, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.NotNil(got.EvidenceImageURLs)
		s.Empty(got.EvidenceImageURLs)
	})
}

func (s *PostgresClaimStoreSuite) TestListingAndDeletion() {
	first := s.seedSerial("SN-C-4")
	second := s.seedSerial("SN-C-5")
	a := s.newClaim(first)
	b := s.newClaim(second)
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	s.Run("lists by serial ids", func() {
		got, err := s.store.ListBySerialIDs(s.ctx, []id.SerialID{first})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(a.ID, got[0].ID)

		got, err = s.store.ListBySerialIDs(s.ctx, nil)
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("lists everything", func() {
		got, err := s.store.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("deletes by serial", func() {
		s.Require().NoError(s.store.DeleteBySerial(s.ctx, first))
		_, err := s.store.FindByID(s.ctx, a.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByID(s.ctx, b.ID)
		s.NoError(err)
	})

	s.Run("deleting a serial cascades to its claims", func() {
		s.Require().NoError(s.serials.Delete(s.ctx, second, []models.Status{models.StatusAvailable}))
		_, err := s.store.FindByID(s.ctx, b.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}
