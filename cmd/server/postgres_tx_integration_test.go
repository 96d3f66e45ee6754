//go:build integration

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	identity "warranty/internal/identity/models"
	"warranty/internal/objectstore"
	"warranty/internal/warranty/metrics"
	"warranty/internal/warranty/models"
	"warranty/internal/warranty/service"
	claimstore "warranty/internal/warranty/store/claim"
	serialstore "warranty/internal/warranty/store/serial"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/audit/publisher"
	auditpostgres "warranty/pkg/platform/audit/store/postgres"
	"warranty/pkg/platform/sentinel"
	"warranty/pkg/requestcontext"
	"warranty/pkg/testutil/containers"
)

// brokenClaimTransition fails the registered -> claimed write after the
// claim row has been inserted in the same transaction.
type brokenClaimTransition struct {
	*serialstore.PostgresStore
}

func (b *brokenClaimTransition) Transition(ctx context.Context, serialID id.SerialID, from []models.Status, to models.Status, c models.SerialChanges, now time.Time) (*models.SerialRecord, error) {
	if to == models.StatusClaimed {
		return nil, errors.New("connection reset by peer")
	}
	return b.PostgresStore.Transition(ctx, serialID, from, to, c, now)
}

type PostgresTxSuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	tx      *postgresStoreTx
	serials *serialstore.PostgresStore
	claims  *claimstore.PostgresStore
	ctx     context.Context

	admin identity.Caller
	alice identity.Caller
}

func TestPostgresTxSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTxSuite))
}

func (s *PostgresTxSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.tx = newPostgresStoreTx(s.pg.DB)
	s.serials = serialstore.NewPostgres(s.pg.DB)
	s.claims = claimstore.NewPostgres(s.pg.DB)
	s.admin = identity.Caller{UserID: id.UserID(uuid.New()), Role: identity.RoleAdmin}
	s.alice = identity.Caller{UserID: id.UserID(uuid.New()), Role: identity.RoleEndUser}
}

func (s *PostgresTxSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Now().UTC())
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *PostgresTxSuite) as(caller identity.Caller) context.Context {
	ctx := requestcontext.WithUserID(s.ctx, caller.UserID)
	return requestcontext.WithRole(ctx, caller.Role.String())
}

func (s *PostgresTxSuite) options() []service.Option {
	return []service.Option{
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithAuditPublisher(publisher.NewPublisher(auditpostgres.New(s.pg.DB))),
		service.WithMetrics(metrics.New(prometheus.NewRegistry())),
		service.WithTx(s.tx),
	}
}

func (s *PostgresTxSuite) newSerial(code string) *models.SerialRecord {
	rec, err := models.NewSerialRecord(id.NewSerialID(), id.ProductID(uuid.New()), code, time.Now().UTC())
	s.Require().NoError(err)
	return rec
}

func (s *PostgresTxSuite) TestCommitAndRollback() {
	s.Run("commits writes made through the context", func() {
		rec := s.newSerial("SN-TX-1")
		err := s.tx.RunInTx(s.ctx, func(txCtx context.Context) error {
			return s.serials.Create(txCtx, rec)
		})
		s.Require().NoError(err)

		_, err = s.serials.FindByID(s.ctx, rec.ID)
		s.NoError(err)
	})

	s.Run("rolls back and returns the callback error unchanged", func() {
		rec := s.newSerial("SN-TX-2")
		boom := dErrors.New(dErrors.CodeValidation, "boom")
		err := s.tx.RunInTx(s.ctx, func(txCtx context.Context) error {
			s.Require().NoError(s.serials.Create(txCtx, rec))
			return boom
		})
		s.ErrorIs(err, boom)

		_, err = s.serials.FindByID(s.ctx, rec.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("deferred claim reference is checked at commit", func() {
		rec := s.newSerial("SN-TX-3")
		s.Require().NoError(s.serials.Create(s.ctx, rec))
		owner := s.alice.UserID
		dangling := id.NewClaimID()

		err := s.tx.RunInTx(s.ctx, func(txCtx context.Context) error {
			if _, err := s.serials.Transition(txCtx, rec.ID, []models.Status{models.StatusAvailable}, models.StatusRegistered,
				models.SerialChanges{OwnerID: &owner}, time.Now().UTC()); err != nil {
				return err
			}
			_, err := s.serials.Transition(txCtx, rec.ID, []models.Status{models.StatusRegistered}, models.StatusClaimed,
				models.SerialChanges{ClaimRequestID: &dangling}, time.Now().UTC())
			return err
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal), "got %v", err)

		got, err := s.serials.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusAvailable, got.Status)
	})
}

func (s *PostgresTxSuite) TestFilingOverPostgres() {
	opts := s.options()
	registry := service.NewRegistry(s.serials, s.claims, opts...)
	ledger := service.NewLedger(s.serials, s.claims, opts...)
	registration := service.NewRegistration(registry, objectstore.NewInMemory(""), opts...)
	filing := service.NewClaimFiling(registry, ledger, s.claims, objectstore.NewInMemory(""), opts...)

	rec, err := registry.Create(s.as(s.admin), id.ProductID(uuid.New()), "SN-TX-FILE")
	s.Require().NoError(err)
	_, err = registration.Register(s.as(s.alice), rec.SerialNumber, s.alice.UserID,
		models.RegistrationFields{CustomerName: "Alice", CustomerEmail: "alice@example.com"})
	s.Require().NoError(err)

	complaint := models.ComplaintFields{ComplaintTitle: "Fan noise", IssueType: models.IssueHardwareMalfunction}

	s.Run("a failed serial write leaves no orphaned claim", func() {
		broken := &brokenClaimTransition{PostgresStore: s.serials}
		brokenRegistry := service.NewRegistry(broken, s.claims, opts...)
		brokenFiling := service.NewClaimFiling(brokenRegistry, ledger, s.claims, objectstore.NewInMemory(""), opts...)

		_, err := brokenFiling.File(s.as(s.alice), s.alice, rec.ID, complaint, nil)
		s.Require().Error(err)
		s.False(dErrors.HasCode(err, dErrors.CodeInconsistency), "got %v", err)

		all, err := s.claims.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Empty(all)
		got, err := s.serials.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRegistered, got.Status)
	})

	s.Run("files atomically and writes the audit outbox row", func() {
		view, err := filing.File(s.as(s.alice), s.alice, rec.ID, complaint, nil)
		s.Require().NoError(err)
		s.Equal(models.StatusClaimed, view.Serial.Status)

		stored, err := s.claims.FindByID(s.ctx, view.Claim.ID)
		s.Require().NoError(err)
		s.Equal(rec.ID, stored.SerialID)

		var n int
		s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
			`SELECT count(*) FROM outbox WHERE event_type = 'claim_filed'`).Scan(&n))
		s.Equal(1, n)
	})
}
