package service

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"warranty/internal/warranty/models"
	serialstore "warranty/internal/warranty/store/serial"
	id "warranty/pkg/domain"
)

// pausingTransitions runs during just before the serial moves to claimed.
type pausingTransitions struct {
	*serialstore.InMemory
	during func()
}

func (p *pausingTransitions) Transition(ctx context.Context, serialID id.SerialID, from []models.Status, to models.Status, changes models.SerialChanges, now time.Time) (*models.SerialRecord, error) {
	if to == models.StatusClaimed && p.during != nil {
		p.during()
	}
	return p.InMemory.Transition(ctx, serialID, from, to, changes, now)
}

type scanResult struct {
	found []models.Discrepancy
	err   error
}

func (s *ServiceSuite) TestReconcilerWaitsForFilingInFlight() {
	serial := s.seedInStatus(models.StatusRegistered)
	paused := &pausingTransitions{InMemory: s.serials}
	s.wire(paused, s.claims)

	results := make(chan scanResult, 1)
	paused.during = func() {
		go func() {
			found, err := s.reconciler.Scan(s.ctx)
			results <- scanResult{found: found, err: err}
		}()
		time.Sleep(20 * time.Millisecond)
	}
	s.fileClaim(serial.ID, s.alice)

	select {
	case res := <-results:
		s.Require().NoError(res.err)
		s.Empty(res.found)
	case <-time.After(time.Second):
		s.Fail("scan did not finish")
	}
	s.Zero(testutil.ToFloat64(s.metrics.OrphanedClaims))
}

func (s *ServiceSuite) TestReconcilerCleanLedger() {
	serial := s.seedInStatus(models.StatusRegistered)
	s.fileClaim(serial.ID, s.alice)
	s.seedInStatus(models.StatusApproved)

	found, err := s.reconciler.Scan(s.ctx)
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *ServiceSuite) TestReconcilerReportsDisagreements() {
	orphanSerial := s.seedInStatus(models.StatusRegistered)
	orphan, err := models.NewClaimRecord(id.NewClaimID(), orphanSerial.ID, s.complaint(), nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.claims.Create(s.ctx, orphan))

	ghost, err := models.NewClaimRecord(id.NewClaimID(), id.NewSerialID(), s.complaint(), nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.claims.Create(s.ctx, ghost))

	dangling := s.seedInStatus(models.StatusInReview)
	s.Require().NoError(s.claims.DeleteBySerial(s.ctx, dangling.ID))

	found, err := s.reconciler.Scan(s.ctx)
	s.Require().NoError(err)

	reasons := map[id.ClaimID]string{}
	for _, d := range found {
		reasons[d.ClaimID] = d.Reason
	}
	s.Len(found, 3)
	s.Equal("serial does not reference claim", reasons[orphan.ID])
	s.Equal("serial missing", reasons[ghost.ID])
	s.Equal("claim missing", reasons[*dangling.ClaimRequestID])
}

func (s *ServiceSuite) TestReconcilerRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		s.reconciler.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("reconciler did not stop")
	}
}
