package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
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

// Eligibility is the read-only answer to "can this code be registered".
type Eligibility struct {
	Record   *models.SerialRecord `json:"serial"`
	Eligible bool                 `json:"eligible"`
	Reason   string               `json:"reason,omitempty"`
}

// Registration runs the validate then register flow for end users.
type Registration struct {
	registry     *Registry
	objects      ObjectStore
	tx           StoreTx
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	auditEmitter *auditEmitter
}

func NewRegistration(registry *Registry, objects ObjectStore, opts ...Option) *Registration {
	cfg := newConfig(opts)
	return &Registration{
		registry:     registry,
		objects:      objects,
		tx:           cfg.tx,
		logger:       cfg.logger,
		metrics:      cfg.metrics,
		tracer:       cfg.tracer,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
	}
}

// Validate reports whether code can be registered. It never mutates state.
// Callers other than the owner or an admin see only the public view.
func (r *Registration) Validate(ctx context.Context, code string) (*Eligibility, error) {
	rec, err := r.registry.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if !canSeeDetails(ctx, rec) {
		rec = rec.PublicView()
	}
	if rec.Status != models.StatusAvailable {
		return &Eligibility{Record: rec, Eligible: false, Reason: "already registered"}, nil
	}
	return &Eligibility{Record: rec, Eligible: true}, nil
}

// Register stamps callerID as owner of the serial behind code. It re-reads
// the serial instead of trusting an earlier Validate, and the final write is
// a compare-and-swap from available, so concurrent callers see exactly one
// winner and AlreadyRegistered for everyone else.
func (r *Registration) Register(ctx context.Context, code string, callerID id.UserID, fields models.RegistrationFields) (rec *models.SerialRecord, err error) {
	start := time.Now()
	code = strings.TrimSpace(code)
	ctx, span := r.tracer.Start(ctx, "registration.register",
		trace.WithAttributes(attribute.String("serial.code", code)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		r.metrics.ObserveOperation("register", time.Since(start))
	}()

	if callerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	now := requestcontext.Now(ctx)
	fields.Normalize()
	if err := fields.Validate(now); err != nil {
		r.metrics.IncRegistration("rejected")
		return nil, err
	}

	current, err := r.registry.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("serial.id", current.ID.String()))
	if current.Status != models.StatusAvailable {
		return nil, r.alreadyRegistered(ctx, current, callerID)
	}

	receiptURL := ""
	if fields.Receipt != nil {
		receiptURL, err = r.uploadReceipt(ctx, current.ID, *fields.Receipt)
		if err != nil {
			return nil, err
		}
	}

	changes := models.SerialChanges{
		OwnerID:          &callerID,
		CustomerName:     &fields.CustomerName,
		CustomerEmail:    &fields.CustomerEmail,
		RegistrationDate: &now,
	}
	if fields.CustomerPhone != "" {
		changes.CustomerPhone = &fields.CustomerPhone
	}
	if fields.PurchaseSource != "" {
		changes.PurchaseSource = &fields.PurchaseSource
	}
	if fields.PurchaseDate != nil {
		changes.PurchaseDate = fields.PurchaseDate
	}
	if receiptURL != "" {
		changes.PurchaseReceiptURL = &receiptURL
	}

	err = r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err := r.registry.Transition(txCtx, current.ID, []models.Status{models.StatusAvailable}, models.StatusRegistered, changes)
		if err != nil {
			return err
		}
		if err := r.auditEmitter.emit(txCtx, auditRecord{
			action:  audit.EventWarrantyRegistered,
			userID:  callerID,
			subject: updated.ID.String(),
		}); err != nil {
			return err
		}
		rec = updated
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
			latest, readErr := r.registry.GetByID(ctx, current.ID)
			if readErr != nil {
				latest = current
			}
			return nil, r.alreadyRegistered(ctx, latest, callerID)
		}
		return nil, err
	}

	r.metrics.IncRegistration("registered")
	return rec, nil
}

func (r *Registration) alreadyRegistered(ctx context.Context, current *models.SerialRecord, callerID id.UserID) error {
	r.metrics.IncRegistration("already_registered")
	_ = r.auditEmitter.emit(ctx, auditRecord{
		action:   audit.EventRegistrationConflict,
		userID:   callerID,
		subject:  current.ID.String(),
		decision: current.Status.String(),
	})
	return dErrors.New(dErrors.CodeAlreadyRegistered, "already registered").
		WithField("serial_number").
		WithDetail("status", current.Status.String())
}

func (r *Registration) uploadReceipt(ctx context.Context, serialID id.SerialID, receipt models.Upload) (string, error) {
	if r.objects == nil {
		return "", dErrors.New(dErrors.CodeUploadFailed, "receipt storage is not configured").WithField("purchase_receipt")
	}
	hint := fmt.Sprintf("receipts/%s/%d-%s", serialID, requestcontext.Now(ctx).UnixMilli(), receipt.Filename)
	start := time.Now()
	url, err := r.objects.Upload(ctx, receipt.Data, receipt.ContentType, hint)
	r.metrics.ObserveUpload("receipt", err, time.Since(start))
	if err != nil {
		r.logger.WarnContext(ctx, "receipt upload failed",
			"serial_id", serialID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return "", dErrors.Wrap(err, dErrors.CodeUploadFailed, "failed to upload purchase receipt").WithField("purchase_receipt")
	}
	return url, nil
}

func canSeeDetails(ctx context.Context, rec *models.SerialRecord) bool {
	if requestcontext.Role(ctx) == identity.RoleAdmin.String() {
		return true
	}
	userID := requestcontext.UserID(ctx)
	return !userID.IsNil() && rec.IsOwnedBy(userID)
}
