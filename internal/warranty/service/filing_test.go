package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"warranty/internal/warranty/models"
	claimstore "warranty/internal/warranty/store/claim"
	serialstore "warranty/internal/warranty/store/serial"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/audit"
	"warranty/pkg/platform/sentinel"
)

// failingTransitions lets the claim insert succeed and then fails the
// registered -> claimed write, leaving an orphaned claim behind.
type failingTransitions struct {
	*serialstore.InMemory
	err error
}

func (f *failingTransitions) Transition(ctx context.Context, serialID id.SerialID, from []models.Status, to models.Status, changes models.SerialChanges, now time.Time) (*models.SerialRecord, error) {
	if to == models.StatusClaimed {
		return nil, f.err
	}
	return f.InMemory.Transition(ctx, serialID, from, to, changes, now)
}

// rolledBackClaims behaves like a store whose transaction was rolled back:
// writes succeed but are never visible afterwards.
type rolledBackClaims struct {
	*claimstore.InMemory
}

func (r *rolledBackClaims) FindByID(context.Context, id.ClaimID) (*models.ClaimRecord, error) {
	return nil, sentinel.ErrNotFound
}

// cancellingTransitions cancels the request while the serial is being
// moved to claimed.
type cancellingTransitions struct {
	*serialstore.InMemory
	cancel context.CancelFunc
}

func (c *cancellingTransitions) Transition(ctx context.Context, serialID id.SerialID, from []models.Status, to models.Status, changes models.SerialChanges, now time.Time) (*models.SerialRecord, error) {
	if to == models.StatusClaimed {
		c.cancel()
		return nil, context.Canceled
	}
	return c.InMemory.Transition(ctx, serialID, from, to, changes, now)
}

// ctxClaims refuses reads on a done context, as database/sql does.
type ctxClaims struct {
	*claimstore.InMemory
}

func (c *ctxClaims) FindByID(ctx context.Context, claimID id.ClaimID) (*models.ClaimRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.InMemory.FindByID(ctx, claimID)
}

// rollbackTx drops claims inserted by a failed section.
type rollbackTx struct {
	claims *claimstore.InMemory
}

func (t *rollbackTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	bg := context.Background()
	before, _ := t.claims.ListAll(bg)
	kept := make(map[id.ClaimID]bool, len(before))
	for _, c := range before {
		kept[c.ID] = true
	}
	err := fn(ctx)
	if err != nil {
		after, _ := t.claims.ListAll(bg)
		for _, c := range after {
			if !kept[c.ID] {
				_ = t.claims.DeleteBySerial(bg, c.SerialID)
			}
		}
	}
	return err
}

// unreachableClaims accepts writes but cannot answer reads.
type unreachableClaims struct {
	*claimstore.InMemory
}

func (u *unreachableClaims) FindByID(context.Context, id.ClaimID) (*models.ClaimRecord, error) {
	return nil, errors.New("connection refused")
}

func (s *ServiceSuite) TestFilingHappyPath() {
	serial := s.registerSerial(s.createSerial("SN-F1").SerialNumber, s.alice)

	view, err := s.filing.File(s.as(s.alice), s.alice, serial.ID, s.complaint(),
		[]models.Upload{jpeg("front.jpg"), jpeg("back.jpg")})
	s.Require().NoError(err)

	s.Equal(models.StatusClaimed, view.Serial.Status)
	s.Require().NotNil(view.Serial.ClaimRequestID)
	s.Equal(view.Claim.ID, *view.Serial.ClaimRequestID)
	s.Equal(serial.ID, view.Claim.SerialID)
	s.Equal("Screen cracked", view.Claim.ComplaintTitle)
	s.Len(view.Claim.EvidenceImageURLs, 2)
	s.NotEqual(view.Claim.EvidenceImageURLs[0], view.Claim.EvidenceImageURLs[1])
	s.Equal(2, s.objects.Len())

	stored, err := s.ledger.GetByID(s.ctx, view.Claim.ID)
	s.Require().NoError(err)
	s.Equal(view.Claim.ID, stored.ID)
	s.Len(s.events.ListByAction(s.ctx, audit.EventClaimFiled), 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ClaimsFiled))
}

// A non-owner is refused whatever state the serial is in, before any
// status or input check can leak information.
func (s *ServiceSuite) TestFilingRejectsNonOwnerInEveryStatus() {
	for _, status := range models.AllStatuses {
		s.Run(status.String(), func() {
			serial := s.seedInStatus(status)
			claimsBefore, _ := s.claims.ListAll(s.ctx)

			_, err := s.filing.File(s.as(s.bob), s.bob, serial.ID, models.ComplaintFields{}, nil)
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "got %v", err)

			claimsAfter, _ := s.claims.ListAll(s.ctx)
			s.Len(claimsAfter, len(claimsBefore))
			got, _ := s.registry.GetByID(s.ctx, serial.ID)
			s.Equal(status, got.Status)
		})
	}
	s.NotEmpty(s.events.ListByAction(s.ctx, audit.EventAccessDenied))
}

func (s *ServiceSuite) TestFilingRequiresRegisteredStatus() {
	for _, status := range []models.Status{
		models.StatusClaimed, models.StatusInReview, models.StatusApproved,
		models.StatusRejected, models.StatusRequireMoreInfo,
	} {
		s.Run(status.String(), func() {
			serial := s.seedInStatus(status)
			_, err := s.filing.File(s.as(s.alice), s.alice, serial.ID, s.complaint(), nil)
			s.Require().True(dErrors.HasCode(err, dErrors.CodeNotClaimable), "got %v", err)
			de, _ := dErrors.As(err)
			s.Equal(status.String(), de.Details["status"])
		})
	}

	s.Run("available serial has no owner so only an admin reaches the status check", func() {
		serial := s.seedInStatus(models.StatusAvailable)
		_, err := s.filing.File(s.as(s.admin), s.admin, serial.ID, s.complaint(), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeNotClaimable))
	})
}

func (s *ServiceSuite) TestFilingAdminOnBehalfOfOwner() {
	serial := s.seedInStatus(models.StatusRegistered)

	view, err := s.filing.File(s.as(s.admin), s.admin, serial.ID, s.complaint(), nil)
	s.Require().NoError(err)
	s.Equal(models.StatusClaimed, view.Serial.Status)
	s.True(view.Serial.IsOwnedBy(s.alice.UserID))

	events := s.events.ListByAction(s.ctx, audit.EventClaimFiled)
	s.Require().Len(events, 1)
	s.Equal(s.alice.UserID, events[0].UserID)
}

func (s *ServiceSuite) TestFilingValidation() {
	serial := s.seedInStatus(models.StatusRegistered)

	cases := []struct {
		name   string
		fields func() models.ComplaintFields
		images []models.Upload
		field  string
	}{
		{
			name:   "short title",
			fields: func() models.ComplaintFields { f := s.complaint(); f.ComplaintTitle = "bad"; return f },
			field:  "complaint_title",
		},
		{
			name:   "unknown issue type",
			fields: func() models.ComplaintFields { f := s.complaint(); f.IssueType = "Gremlins"; return f },
			field:  "issue_type",
		},
		{
			name:   "future complaint date",
			fields: func() models.ComplaintFields { f := s.complaint(); f.ComplaintDate = s.now.Add(48 * time.Hour); return f },
			field:  "complaint_date",
		},
		{
			name:   "too many images",
			fields: s.complaint,
			images: []models.Upload{jpeg("1.jpg"), jpeg("2.jpg"), jpeg("3.jpg"), jpeg("4.jpg"), jpeg("5.jpg")},
			field:  "evidence_images",
		},
		{
			name:   "non-image evidence",
			fields: s.complaint,
			images: []models.Upload{{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("hi")}},
			field:  "evidence_images",
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.filing.File(s.as(s.alice), s.alice, serial.ID, tc.fields(), tc.images)
			s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
			de, _ := dErrors.As(err)
			s.Equal(tc.field, de.Field)
		})
	}

	got, _ := s.registry.GetByID(s.ctx, serial.ID)
	s.Equal(models.StatusRegistered, got.Status)
	s.Zero(s.objects.Len())
}

func (s *ServiceSuite) TestFilingFourImagesIsTheLimit() {
	serial := s.seedInStatus(models.StatusRegistered)
	images := []models.Upload{jpeg("1.jpg"), jpeg("2.jpg"), jpeg("3.jpg"), jpeg("4.jpg")}

	view, err := s.filing.File(s.as(s.alice), s.alice, serial.ID, s.complaint(), images)
	s.Require().NoError(err)
	s.Len(view.Claim.EvidenceImageURLs, models.MaxEvidenceImages)
}

func (s *ServiceSuite) TestFilingUploadFailureLeavesNothingBehind() {
	serial := s.seedInStatus(models.StatusRegistered)
	s.objects.FailWith(errors.New("s3: slow down"))
	defer s.objects.FailWith(nil)

	_, err := s.filing.File(s.as(s.alice), s.alice, serial.ID, s.complaint(), []models.Upload{jpeg("front.jpg")})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeUploadFailed), "got %v", err)
	de, _ := dErrors.As(err)
	s.Equal("evidence_images", de.Field)

	claims, _ := s.claims.ListAll(s.ctx)
	s.Empty(claims)
	got, _ := s.registry.GetByID(s.ctx, serial.ID)
	s.Equal(models.StatusRegistered, got.Status)
}

func (s *ServiceSuite) TestFilingSecondClaimOnSameSerial() {
	serial := s.seedInStatus(models.StatusRegistered)
	first := s.fileClaim(serial.ID, s.alice)

	_, err := s.filing.File(s.as(s.alice), s.alice, serial.ID, s.complaint(), nil)
	s.True(dErrors.HasCode(err, dErrors.CodeNotClaimable))

	got, _ := s.registry.GetByID(s.ctx, serial.ID)
	s.Equal(first.Claim.ID, *got.ClaimRequestID)
}

func (s *ServiceSuite) TestFilingInconsistencyWhenTransitionFails() {
	serial := s.seedInStatus(models.StatusRegistered)
	s.wire(&failingTransitions{InMemory: s.serials, err: fmt.Errorf("connection reset")}, s.claims)

	_, err := s.filing.File(s.as(s.alice), s.alice, serial.ID, s.complaint(), nil)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInconsistency), "got %v", err)
	de, _ := dErrors.As(err)
	s.Equal(serial.ID.String(), de.Details["serial_id"])
	s.NotEmpty(de.Details["claim_id"])

	claimID, parseErr := id.ParseClaimID(de.Details["claim_id"])
	s.Require().NoError(parseErr)
	orphan, lookupErr := s.claims.FindByID(s.ctx, claimID)
	s.Require().NoError(lookupErr)
	s.Equal(serial.ID, orphan.SerialID)

	got, _ := s.serials.FindByID(s.ctx, serial.ID)
	s.Equal(models.StatusRegistered, got.Status)
	s.Nil(got.ClaimRequestID)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Inconsistencies))
	s.Len(s.events.ListByAction(s.ctx, audit.EventInconsistencyFound), 1)
	s.Empty(s.events.ListByAction(s.ctx, audit.EventClaimFiled))

	discrepancies, err := s.reconciler.Scan(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(discrepancies, 1)
	s.Equal(claimID, discrepancies[0].ClaimID)
}

func (s *ServiceSuite) TestFilingRolledBackTransactionReportsCause() {
	serial := s.seedInStatus(models.StatusRegistered)
	s.wire(&failingTransitions{InMemory: s.serials, err: sentinel.ErrInvalidState}, &rolledBackClaims{InMemory: s.claims})

	_, err := s.filing.File(s.as(s.alice), s.alice, serial.ID, s.complaint(), nil)
	s.True(dErrors.HasCode(err, dErrors.CodeNotClaimable), "got %v", err)
	s.Zero(testutil.ToFloat64(s.metrics.Inconsistencies))
	s.Empty(s.events.ListByAction(s.ctx, audit.EventInconsistencyFound))
}

func (s *ServiceSuite) TestFilingCancelledMidTransactionIsNotAnInconsistency() {
	serial := s.seedInStatus(models.StatusRegistered)
	ctx, cancel := context.WithCancel(s.as(s.alice))
	defer cancel()
	s.wire(&cancellingTransitions{InMemory: s.serials, cancel: cancel}, &ctxClaims{InMemory: s.claims},
		WithTx(&rollbackTx{claims: s.claims}))

	_, err := s.filing.File(ctx, s.alice, serial.ID, s.complaint(), nil)
	s.Require().Error(err)
	s.False(dErrors.HasCode(err, dErrors.CodeInconsistency), "got %v", err)
	s.True(errors.Is(err, context.Canceled), "got %v", err)

	claims, _ := s.claims.ListAll(s.ctx)
	s.Empty(claims)
	got, _ := s.serials.FindByID(s.ctx, serial.ID)
	s.Equal(models.StatusRegistered, got.Status)
	s.Zero(testutil.ToFloat64(s.metrics.Inconsistencies))
	s.Empty(s.events.ListByAction(s.ctx, audit.EventInconsistencyFound))
}

func (s *ServiceSuite) TestFilingUnknownLookupOutcomeIsInternal() {
	serial := s.seedInStatus(models.StatusRegistered)
	s.wire(&failingTransitions{InMemory: s.serials, err: fmt.Errorf("connection reset")}, &unreachableClaims{InMemory: s.claims})

	_, err := s.filing.File(s.as(s.alice), s.alice, serial.ID, s.complaint(), nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal), "got %v", err)
	s.Zero(testutil.ToFloat64(s.metrics.Inconsistencies))
}

func (s *ServiceSuite) TestFilingUnknownSerial() {
	_, err := s.filing.File(s.as(s.alice), s.alice, id.NewSerialID(), s.complaint(), nil)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
