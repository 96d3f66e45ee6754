package service

import (
	"strings"

	"github.com/google/uuid"

	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/audit"
)

func (s *ServiceSuite) TestRegistryCreate() {
	s.Run("new serials start available and unowned", func() {
		rec := s.createSerial("SN-001")
		s.Equal(models.StatusAvailable, rec.Status)
		s.Nil(rec.OwnerID)
		s.Nil(rec.ClaimRequestID)
		s.Equal(s.product, rec.ProductID)
	})

	s.Run("duplicate code fails and leaves the registry unchanged", func() {
		before, err := s.registry.List(s.ctx, models.SerialFilter{})
		s.Require().NoError(err)

		_, err = s.registry.Create(s.ctx, s.product, "SN-001")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateSerial))

		after, err := s.registry.List(s.ctx, models.SerialFilter{})
		s.Require().NoError(err)
		s.Len(after, len(before))
	})

	s.Run("codes differing only in case are distinct", func() {
		_, err := s.registry.Create(s.ctx, s.product, "sn-001")
		s.NoError(err)
	})

	s.Run("blank code is a validation error", func() {
		_, err := s.registry.Create(s.ctx, s.product, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing product is a validation error", func() {
		_, err := s.registry.Create(s.ctx, id.ProductID{}, "SN-XYZ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Len(s.events.ListByAction(s.ctx, audit.EventSerialCreated), 2)
}

func (s *ServiceSuite) TestRegistryGetByCode() {
	rec := s.createSerial("SN-002")

	got, err := s.registry.GetByCode(s.ctx, "SN-002")
	s.Require().NoError(err)
	s.Equal(rec.ID, got.ID)

	_, err = s.registry.GetByCode(s.ctx, "SN-404")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.registry.GetByCode(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// Every (from, to) pair the state machine does not define is rejected, and
// every defined pair succeeds when from matches the current status.
func (s *ServiceSuite) TestRegistryTransitionLegality() {
	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			rec := s.seedInStatus(from)
			updated, err := s.registry.Transition(s.ctx, rec.ID, []models.Status{from}, to, changesFor(to))
			if from.CanTransitionTo(to) {
				s.Require().NoError(err, "%s -> %s", from, to)
				s.Equal(to, updated.Status)
			} else {
				s.Require().Error(err, "%s -> %s", from, to)
				s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "%s -> %s: %v", from, to, err)
				current, _ := s.registry.GetByID(s.ctx, rec.ID)
				s.Equal(from, current.Status, "failed transition must not write")
			}
		}
	}
}

func (s *ServiceSuite) TestRegistryTransitionIsCompareAndSwap() {
	rec := s.createSerial("SN-003")

	_, err := s.registry.Transition(s.ctx, rec.ID, []models.Status{models.StatusRegistered}, models.StatusClaimed, models.SerialChanges{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "current status available is not in from")

	_, err = s.registry.Transition(s.ctx, id.NewSerialID(), []models.Status{models.StatusAvailable}, models.StatusRegistered, models.SerialChanges{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestRegistryDeletePolicy() {
	s.Run("available serials can be deleted", func() {
		rec := s.createSerial("SN-DEL-1")
		s.Require().NoError(s.registry.Delete(s.as(s.admin), rec.ID))
		_, err := s.registry.GetByID(s.ctx, rec.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("registered and open-claim serials conflict", func() {
		registered := s.seedInStatus(models.StatusRegistered)
		err := s.registry.Delete(s.ctx, registered.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		inReview := s.seedInStatus(models.StatusInReview)
		err = s.registry.Delete(s.ctx, inReview.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("terminal serials are deleted with their claim", func() {
		rec := s.seedInStatus(models.StatusApproved)
		claimID := *rec.ClaimRequestID
		s.Require().NoError(s.registry.Delete(s.ctx, rec.ID))

		_, err := s.ledger.GetByID(s.ctx, claimID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown serial is not found", func() {
		err := s.registry.Delete(s.ctx, id.NewSerialID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Len(s.events.ListByAction(s.ctx, audit.EventSerialDeleted), 2)
}

func (s *ServiceSuite) TestRegistryListing() {
	s.createSerial("SN-L1")
	s.createSerial("SN-L2")
	owned := s.seedInStatus(models.StatusRegistered)

	available, err := s.registry.ListAvailable(s.ctx)
	s.Require().NoError(err)
	s.Len(available, 2)

	owner := *owned.OwnerID
	mine, err := s.registry.List(s.ctx, models.SerialFilter{OwnerID: &owner})
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(owned.ID, mine[0].ID)
}

// seedInStatus drives a fresh serial to status through the protocols.
func (s *ServiceSuite) seedInStatus(status models.Status) *models.SerialRecord {
	code := "SEED-" + strings.ToUpper(id.NewSerialID().String()[:8])
	rec := s.createSerial(code)
	if status == models.StatusAvailable {
		return rec
	}
	rec = s.registerSerial(code, s.alice)
	if status == models.StatusRegistered {
		return rec
	}
	view := s.fileClaim(rec.ID, s.alice)
	rec = view.Serial
	switch status {
	case models.StatusClaimed:
		return rec
	case models.StatusInReview, models.StatusApproved, models.StatusRejected, models.StatusRequireMoreInfo:
		updated, err := s.status.UpdateStatus(s.ctx, s.admin.Role, rec.ID, status)
		s.Require().NoError(err)
		return updated
	}
	s.FailNow("unhandled status " + status.String())
	return nil
}

// changesFor supplies the field writes that keep invariants intact for to.
func changesFor(to models.Status) models.SerialChanges {
	var c models.SerialChanges
	if to == models.StatusRegistered {
		owner := id.UserID(uuid.New())
		c.OwnerID = &owner
	}
	if to == models.StatusClaimed {
		claim := id.NewClaimID()
		c.ClaimRequestID = &claim
	}
	return c
}
