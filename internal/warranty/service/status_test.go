package service

import (
	identity "warranty/internal/identity/models"
	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/audit"
)

func (s *ServiceSuite) TestStatusUpdateRequiresAdmin() {
	serial := s.seedInStatus(models.StatusClaimed)

	_, err := s.status.UpdateStatus(s.as(s.alice), s.alice.Role, serial.ID, models.StatusApproved)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	got, _ := s.registry.GetByID(s.ctx, serial.ID)
	s.Equal(models.StatusClaimed, got.Status)

	denied := s.events.ListByAction(s.ctx, audit.EventAccessDenied)
	s.Require().Len(denied, 1)
	s.Equal(s.alice.UserID, denied[0].UserID)
}

func (s *ServiceSuite) TestStatusUpdateTriage() {
	serial := s.seedInStatus(models.StatusClaimed)
	ctx := s.as(s.admin)

	for _, step := range []models.Status{
		models.StatusInReview,
		models.StatusRequireMoreInfo,
		models.StatusInReview,
		models.StatusApproved,
	} {
		rec, err := s.status.UpdateStatus(ctx, s.admin.Role, serial.ID, step)
		s.Require().NoError(err, "to %s", step)
		s.Equal(step, rec.Status)
		s.Equal(serial.ClaimRequestID, rec.ClaimRequestID)
		s.Equal(serial.OwnerID, rec.OwnerID)
		s.Equal(serial.CustomerEmail, rec.CustomerEmail)
	}

	updates := s.events.ListByAction(s.ctx, audit.EventClaimStatusUpdated)
	s.Require().Len(updates, 4)
	s.Equal(s.alice.UserID, updates[0].UserID)
	s.Equal(s.admin.UserID.String(), updates[0].ActorID)
}

func (s *ServiceSuite) TestStatusUpdateRejectsIllegalMoves() {
	cases := []struct {
		name string
		from models.Status
		to   models.Status
		code dErrors.Code
	}{
		{"terminal approved", models.StatusApproved, models.StatusRejected, dErrors.CodeInvalidTransition},
		{"terminal rejected", models.StatusRejected, models.StatusInReview, dErrors.CodeInvalidTransition},
		{"registered is not admin managed", models.StatusRegistered, models.StatusApproved, dErrors.CodeInvalidTransition},
		{"available is not admin managed", models.StatusAvailable, models.StatusInReview, dErrors.CodeInvalidTransition},
		{"claimed has no admin source", models.StatusInReview, models.StatusClaimed, dErrors.CodeInvalidTransition},
		{"registered is not an admin target", models.StatusClaimed, models.StatusRegistered, dErrors.CodeInvalidTransition},
		{"unknown status", models.StatusClaimed, models.Status("closed"), dErrors.CodeValidation},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			serial := s.seedInStatus(tc.from)
			_, err := s.status.UpdateStatus(s.as(s.admin), s.admin.Role, serial.ID, tc.to)
			s.True(dErrors.HasCode(err, tc.code), "got %v", err)

			got, _ := s.registry.GetByID(s.ctx, serial.ID)
			s.Equal(tc.from, got.Status)
		})
	}
}

func (s *ServiceSuite) TestStatusUpdateUnknownSerial() {
	_, err := s.status.UpdateStatus(s.as(s.admin), s.admin.Role, id.NewSerialID(), models.StatusApproved)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdateClaimStatus() {
	serial := s.seedInStatus(models.StatusRegistered)
	view := s.fileClaim(serial.ID, s.alice)

	s.Run("end user is refused", func() {
		_, err := s.status.UpdateClaimStatus(s.as(s.alice), identity.RoleEndUser, view.Claim.ID, models.StatusApproved)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin moves the serial behind the claim", func() {
		got, err := s.status.UpdateClaimStatus(s.as(s.admin), s.admin.Role, view.Claim.ID, models.StatusRejected)
		s.Require().NoError(err)
		s.Equal(view.Claim.ID, got.Claim.ID)
		s.Equal(models.StatusRejected, got.Serial.Status)
	})

	s.Run("unknown claim", func() {
		_, err := s.status.UpdateClaimStatus(s.as(s.admin), s.admin.Role, id.NewClaimID(), models.StatusRejected)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
