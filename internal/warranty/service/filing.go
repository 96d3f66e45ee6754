package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	identity "warranty/internal/identity/models"
	"warranty/internal/warranty/metrics"
	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/audit"
	"warranty/pkg/platform/sentinel"
	"warranty/pkg/requestcontext"
)

const claimLookupTimeout = 2 * time.Second

// ClaimFiling uploads evidence, creates the claim, and moves the serial to
// claimed. Claim insert and serial transition share one transaction.
type ClaimFiling struct {
	registry     *Registry
	ledger       *Ledger
	claims       ClaimStore
	objects      ObjectStore
	tx           StoreTx
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	auditEmitter *auditEmitter
}

func NewClaimFiling(registry *Registry, ledger *Ledger, claims ClaimStore, objects ObjectStore, opts ...Option) *ClaimFiling {
	cfg := newConfig(opts)
	return &ClaimFiling{
		registry:     registry,
		ledger:       ledger,
		claims:       claims,
		objects:      objects,
		tx:           cfg.tx,
		logger:       cfg.logger,
		metrics:      cfg.metrics,
		tracer:       cfg.tracer,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
	}
}

// File runs the claim filing protocol for serialID on behalf of caller.
//
// End users may only claim their own serials; admins may file on a user's
// behalf. Uploads happen before any ledger write, so an upload failure
// leaves nothing behind. If the claim is persisted but the serial
// transition is not, the claim is reported as an inconsistency and never
// retried.
func (f *ClaimFiling) File(ctx context.Context, caller identity.Caller, serialID id.SerialID, fields models.ComplaintFields, images []models.Upload) (view *models.ClaimView, err error) {
	start := time.Now()
	ctx, span := f.tracer.Start(ctx, "claim.file",
		trace.WithAttributes(
			attribute.String("serial.id", serialID.String()),
			attribute.Int("claim.evidence_count", len(images)),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		f.metrics.ObserveOperation("file_claim", time.Since(start))
	}()

	serial, err := f.registry.GetByID(ctx, serialID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !serial.IsOwnedBy(caller.UserID) {
		_ = f.auditEmitter.emit(ctx, auditRecord{
			action:   audit.EventAccessDenied,
			userID:   caller.UserID,
			subject:  serialID.String(),
			decision: "denied",
			reason:   "file claim on a serial owned by someone else",
		})
		return nil, dErrors.New(dErrors.CodeForbidden, "not your warranty")
	}
	if serial.Status != models.StatusRegistered {
		return nil, notClaimable(serial)
	}

	now := requestcontext.Now(ctx)
	fields.Normalize()
	if err := fields.Validate(images, now); err != nil {
		return nil, err
	}

	urls, err := f.uploadEvidence(ctx, serialID, images)
	if err != nil {
		return nil, err
	}

	var created *models.ClaimRecord
	err = f.tx.RunInTx(ctx, func(txCtx context.Context) error {
		claim, err := f.ledger.Create(txCtx, serialID, fields, urls)
		if err != nil {
			return err
		}
		created = claim

		claimID := claim.ID
		updated, err := f.registry.Transition(txCtx, serialID,
			[]models.Status{models.StatusRegistered}, models.StatusClaimed,
			models.SerialChanges{ClaimRequestID: &claimID})
		if err != nil {
			return err
		}
		if err := f.auditEmitter.emit(txCtx, auditRecord{
			action:  audit.EventClaimFiled,
			userID:  ownerOf(updated, caller.UserID),
			subject: claim.ID.String(),
		}); err != nil {
			return err
		}
		view = &models.ClaimView{Claim: claim, Serial: updated}
		return nil
	})
	if err != nil {
		if created != nil {
			return nil, f.resolvePartialFailure(ctx, serial, created, err)
		}
		if dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotClaimable, "serial is no longer registered")
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("claim.id", view.Claim.ID.String()))
	f.metrics.IncClaimFiled()
	return view, nil
}

// resolvePartialFailure decides whether a failed filing left a claim behind.
// A rolled-back transaction reports the original failure. A surviving claim
// whose serial was not moved is an inconsistency for manual review. The
// lookup outlives a cancelled request.
func (f *ClaimFiling) resolvePartialFailure(ctx context.Context, serial *models.SerialRecord, claim *models.ClaimRecord, cause error) error {
	lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), claimLookupTimeout)
	defer cancel()

	_, lookupErr := f.claims.FindByID(lookupCtx, claim.ID)
	switch {
	case errors.Is(lookupErr, sentinel.ErrNotFound):
		if dErrors.HasCode(cause, dErrors.CodeInvalidTransition) {
			return dErrors.Wrap(cause, dErrors.CodeNotClaimable, "serial is no longer registered")
		}
		return cause
	case lookupErr != nil:
		f.logger.ErrorContext(ctx, "claim filing failed and its outcome could not be checked",
			"serial_id", serial.ID.String(),
			"claim_id", claim.ID.String(),
			"error", cause,
			"lookup_error", lookupErr,
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.Wrap(cause, dErrors.CodeInternal, "claim filing failed").
			WithDetail("claim_id", claim.ID.String()).
			WithDetail("serial_id", serial.ID.String())
	}
	ctx = lookupCtx

	f.metrics.IncInconsistency()
	f.logger.ErrorContext(ctx, "claim created but serial transition failed",
		"serial_id", serial.ID.String(),
		"claim_id", claim.ID.String(),
		"from", models.StatusRegistered.String(),
		"to", models.StatusClaimed.String(),
		"error", cause,
		"request_id", requestcontext.RequestID(ctx),
	)
	_ = f.auditEmitter.emit(ctx, auditRecord{
		action:   audit.EventInconsistencyFound,
		userID:   ownerOf(serial, requestcontext.UserID(ctx)),
		subject:  claim.ID.String(),
		decision: "needs_manual_review",
		reason:   fmt.Sprintf("serial %s not moved %s->%s: %v", serial.ID, models.StatusRegistered, models.StatusClaimed, cause),
	})
	return dErrors.Wrap(cause, dErrors.CodeInconsistency, "claim recorded but warranty status not updated; flagged for manual review").
		WithDetail("claim_id", claim.ID.String()).
		WithDetail("serial_id", serial.ID.String())
}

// uploadEvidence stores images concurrently, preserving input order.
func (f *ClaimFiling) uploadEvidence(ctx context.Context, serialID id.SerialID, images []models.Upload) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if f.objects == nil {
		return nil, dErrors.New(dErrors.CodeUploadFailed, "evidence storage is not configured").WithField("evidence_images")
	}

	urls := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(models.MaxEvidenceImages)
	base := requestcontext.Now(ctx).UnixMilli()
	for i, img := range images {
		g.Go(func() error {
			hint := fmt.Sprintf("claims/%s/%d-%s", serialID, base+int64(i), img.Filename)
			start := time.Now()
			url, err := f.objects.Upload(gctx, img.Data, img.ContentType, hint)
			f.metrics.ObserveUpload("evidence", err, time.Since(start))
			if err != nil {
				return fmt.Errorf("upload %s: %w", img.Filename, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		f.logger.WarnContext(ctx, "evidence upload failed",
			"serial_id", serialID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUploadFailed, "failed to upload evidence images").WithField("evidence_images")
	}
	return urls, nil
}

func ownerOf(serial *models.SerialRecord, fallback id.UserID) id.UserID {
	if serial != nil && serial.OwnerID != nil {
		return *serial.OwnerID
	}
	return fallback
}
