package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	identity "warranty/internal/identity/models"
	"warranty/internal/warranty/metrics"
	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/audit"
	"warranty/pkg/requestcontext"
)

// StatusUpdate is the admin triage path over the claim status vocabulary.
type StatusUpdate struct {
	registry     *Registry
	ledger       *Ledger
	tx           StoreTx
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	auditEmitter *auditEmitter
}

func NewStatusUpdate(registry *Registry, ledger *Ledger, opts ...Option) *StatusUpdate {
	cfg := newConfig(opts)
	return &StatusUpdate{
		registry:     registry,
		ledger:       ledger,
		tx:           cfg.tx,
		logger:       cfg.logger,
		metrics:      cfg.metrics,
		tracer:       cfg.tracer,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
	}
}

// UpdateStatus moves a serial out of any admin-managed status into
// newStatus. Only status changes; no other field is written.
func (s *StatusUpdate) UpdateStatus(ctx context.Context, callerRole identity.Role, serialID id.SerialID, newStatus models.Status) (rec *models.SerialRecord, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "status.update",
		trace.WithAttributes(
			attribute.String("serial.id", serialID.String()),
			attribute.String("status.target", newStatus.String()),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		s.metrics.ObserveOperation("update_status", time.Since(start))
	}()

	if callerRole != identity.RoleAdmin {
		_ = s.auditEmitter.emit(ctx, auditRecord{
			action:   audit.EventAccessDenied,
			userID:   requestcontext.UserID(ctx),
			subject:  serialID.String(),
			decision: "denied",
			reason:   "status update requires admin",
		})
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	if !newStatus.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", newStatus).WithField("status")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err := s.registry.Transition(txCtx, serialID, models.AdminSources, newStatus, models.SerialChanges{})
		if err != nil {
			return err
		}
		if err := s.auditEmitter.emit(txCtx, auditRecord{
			action:   audit.EventClaimStatusUpdated,
			userID:   ownerOf(updated, requestcontext.UserID(txCtx)),
			subject:  updated.ID.String(),
			decision: newStatus.String(),
		}); err != nil {
			return err
		}
		rec = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateClaimStatus resolves the serial behind claimID and updates it.
func (s *StatusUpdate) UpdateClaimStatus(ctx context.Context, callerRole identity.Role, claimID id.ClaimID, newStatus models.Status) (*models.ClaimView, error) {
	if callerRole != identity.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	claim, err := s.ledger.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	serial, err := s.UpdateStatus(ctx, callerRole, claim.SerialID, newStatus)
	if err != nil {
		return nil, err
	}
	if serial.ClaimRequestID == nil || *serial.ClaimRequestID != claim.ID {
		s.logger.WarnContext(ctx, "claim status updated on a serial that references another claim",
			"claim_id", claim.ID.String(),
			"serial_id", serial.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return &models.ClaimView{Claim: claim, Serial: serial}, nil
}
