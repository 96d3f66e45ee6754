package service

import (
	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
)

func (s *ServiceSuite) TestLedgerCreateRequiresRegisteredSerial() {
	serial := s.seedInStatus(models.StatusAvailable)

	_, err := s.ledger.Create(s.ctx, serial.ID, s.complaint(), nil)
	s.True(dErrors.HasCode(err, dErrors.CodeNotClaimable))

	_, err = s.ledger.Create(s.ctx, id.NewSerialID(), s.complaint(), nil)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestLedgerListForCaller() {
	aliceSerial := s.seedInStatus(models.StatusRegistered)
	aliceClaim := s.fileClaim(aliceSerial.ID, s.alice)

	s.createSerial("SN-BOB")
	bobSerial := s.registerSerial("SN-BOB", s.bob)
	bobClaim := s.fileClaim(bobSerial.ID, s.bob)

	s.Run("admin sees every claim", func() {
		views, err := s.ledger.ListForCaller(s.ctx, s.admin)
		s.Require().NoError(err)
		s.Len(views, 2)
	})

	s.Run("end user sees only claims on owned serials", func() {
		views, err := s.ledger.ListForCaller(s.ctx, s.alice)
		s.Require().NoError(err)
		s.Require().Len(views, 1)
		s.Equal(aliceClaim.Claim.ID, views[0].Claim.ID)
		s.True(views[0].Serial.IsOwnedBy(s.alice.UserID))

		views, err = s.ledger.ListForCaller(s.ctx, s.bob)
		s.Require().NoError(err)
		s.Require().Len(views, 1)
		s.Equal(bobClaim.Claim.ID, views[0].Claim.ID)
	})

	s.Run("caller without serials sees nothing", func() {
		stranger := s.alice
		stranger.UserID = id.UserID(id.NewClaimID())
		views, err := s.ledger.ListForCaller(s.ctx, stranger)
		s.Require().NoError(err)
		s.Empty(views)
	})

	s.Run("anonymous end user is unauthorized", func() {
		anon := s.alice
		anon.UserID = id.UserID{}
		_, err := s.ledger.ListForCaller(s.ctx, anon)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestLedgerGetForCaller() {
	serial := s.seedInStatus(models.StatusRegistered)
	claim := s.fileClaim(serial.ID, s.alice)

	view, err := s.ledger.GetForCaller(s.ctx, s.alice, claim.Claim.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusClaimed, view.Serial.Status)

	view, err = s.ledger.GetForCaller(s.ctx, s.admin, claim.Claim.ID)
	s.Require().NoError(err)
	s.Equal(claim.Claim.ID, view.Claim.ID)

	_, err = s.ledger.GetForCaller(s.ctx, s.bob, claim.Claim.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.ledger.GetForCaller(s.ctx, s.alice, id.NewClaimID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
