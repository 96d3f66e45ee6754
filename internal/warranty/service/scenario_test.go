package service

import (
	"github.com/prometheus/client_golang/prometheus/testutil"

	"warranty/internal/warranty/models"
	dErrors "warranty/pkg/domain-errors"
)

// A serial is seeded, registered by its buyer, claimed, approved, and can
// never be registered again.
func (s *ServiceSuite) TestWarrantyLifecycle() {
	s.createSerial("SN-001")

	eligibility, err := s.registration.Validate(s.as(s.alice), "SN-001")
	s.Require().NoError(err)
	s.True(eligibility.Eligible)

	registered, err := s.registration.Register(s.as(s.alice), "SN-001", s.alice.UserID, s.registrationFields("Alice", "a@x.com"))
	s.Require().NoError(err)
	s.Equal(models.StatusRegistered, registered.Status)

	view, err := s.filing.File(s.as(s.alice), s.alice, registered.ID, s.complaint(), []models.Upload{jpeg("crack.jpg")})
	s.Require().NoError(err)
	s.Equal(models.StatusClaimed, view.Serial.Status)

	mine, err := s.ledger.ListForCaller(s.as(s.alice), s.alice)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(view.Claim.ID, mine[0].Claim.ID)

	approved, err := s.status.UpdateStatus(s.as(s.admin), s.admin.Role, registered.ID, models.StatusApproved)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
	s.Equal(view.Claim.ID, *approved.ClaimRequestID)

	_, err = s.registration.Register(s.as(s.bob), "SN-001", s.bob.UserID, s.registrationFields("Bob", "b@x.com"))
	s.Require().True(dErrors.HasCode(err, dErrors.CodeAlreadyRegistered))
	de, _ := dErrors.As(err)
	s.Equal("approved", de.Details["status"])

	final, err := s.registry.GetByCode(s.ctx, "SN-001")
	s.Require().NoError(err)
	s.NoError(final.CheckInvariants())
	s.True(final.IsOwnedBy(s.alice.UserID))

	found, err := s.reconciler.Scan(s.ctx)
	s.Require().NoError(err)
	s.Empty(found)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Registrations.WithLabelValues("registered")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Registrations.WithLabelValues("already_registered")))
}
