package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"warranty/internal/warranty/metrics"
	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/audit"
	"warranty/pkg/requestcontext"
)

// Registry is the single source of truth for serial state and the only
// writer of status, owner, and claim reference.
type Registry struct {
	serials      SerialStore
	claims       ClaimStore
	tx           StoreTx
	logger       *slog.Logger
	metrics      *metrics.Metrics
	auditEmitter *auditEmitter
}

func NewRegistry(serials SerialStore, claims ClaimStore, opts ...Option) *Registry {
	cfg := newConfig(opts)
	return &Registry{
		serials:      serials,
		claims:       claims,
		tx:           cfg.tx,
		logger:       cfg.logger,
		metrics:      cfg.metrics,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
	}
}

// Create adds an available serial. Codes are unique and case-sensitive.
func (r *Registry) Create(ctx context.Context, productID id.ProductID, serialNumber string) (*models.SerialRecord, error) {
	rec, err := models.NewSerialRecord(id.NewSerialID(), productID, serialNumber, requestcontext.Now(ctx))
	if err != nil {
		if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
			return nil, dErrors.New(dErrors.CodeValidation, de.Message).WithField(de.Field)
		}
		return nil, err
	}
	if err := r.serials.Create(ctx, rec); err != nil {
		return nil, translateSerialErr(err, "failed to create serial")
	}
	_ = r.auditEmitter.emit(ctx, auditRecord{
		action:  audit.EventSerialCreated,
		userID:  requestcontext.UserID(ctx),
		subject: rec.ID.String(),
		reason:  rec.SerialNumber,
	})
	return rec, nil
}

// GetByCode looks a serial up by its human-entered code.
func (r *Registry) GetByCode(ctx context.Context, code string) (*models.SerialRecord, error) {
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "serial number is required").WithField("serial_number")
	}
	rec, err := r.serials.FindBySerialNumber(ctx, code)
	if err != nil {
		return nil, translateSerialErr(err, "failed to load serial")
	}
	return rec, nil
}

func (r *Registry) GetByID(ctx context.Context, serialID id.SerialID) (*models.SerialRecord, error) {
	rec, err := r.serials.FindByID(ctx, serialID)
	if err != nil {
		return nil, translateSerialErr(err, "failed to load serial")
	}
	return rec, nil
}

// Transition moves serialID to `to` if its current status is in from, writing
// changes in the same step. from is narrowed to the legal sources of `to`;
// an empty result fails without touching the store.
func (r *Registry) Transition(ctx context.Context, serialID id.SerialID, from []models.Status, to models.Status, changes models.SerialChanges) (*models.SerialRecord, error) {
	if !to.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", to).WithField("status")
	}
	expected := models.NarrowSources(from, to)
	if len(expected) == 0 {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "no legal transition to %s from %s", to, joinStatuses(from)).
			WithDetail("to", to.String())
	}

	rec, err := r.serials.Transition(ctx, serialID, expected, to, changes, requestcontext.Now(ctx))
	if err != nil {
		err = translateSerialErr(err, "failed to transition serial")
		if dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
			r.metrics.IncTransitionConflict(to.String())
			r.logger.InfoContext(ctx, "serial transition lost",
				"serial_id", serialID.String(),
				"expected", joinStatuses(expected),
				"to", to.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
			if de, ok := dErrors.As(err); ok {
				err = de.WithDetail("to", to.String())
			}
		}
		return nil, err
	}

	if err := rec.CheckInvariants(); err != nil {
		r.logger.ErrorContext(ctx, "serial invariant broken after transition",
			"serial_id", serialID.String(),
			"status", rec.Status.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	r.metrics.IncTransition(joinStatuses(expected), to.String())
	return rec, nil
}

// Delete removes a serial that is available or in a terminal status, along
// with its claims. Serials with an unresolved claim cannot be deleted.
func (r *Registry) Delete(ctx context.Context, serialID id.SerialID) error {
	var deletable []models.Status
	for _, s := range models.AllStatuses {
		if s.IsDeletable() {
			deletable = append(deletable, s)
		}
	}

	return r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := r.serials.Delete(txCtx, serialID, deletable); err != nil {
			err = translateSerialErr(err, "failed to delete serial")
			if dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
				return dErrors.New(dErrors.CodeConflict, "serial is registered or has an unresolved claim")
			}
			return err
		}
		if err := r.claims.DeleteBySerial(txCtx, serialID); err != nil {
			return translateClaimErr(err, "failed to delete claims")
		}
		return r.auditEmitter.emit(txCtx, auditRecord{
			action:  audit.EventSerialDeleted,
			userID:  requestcontext.UserID(txCtx),
			subject: serialID.String(),
		})
	})
}

// List returns serials matching filter. Callers acting for an end user
// must set filter.OwnerID.
func (r *Registry) List(ctx context.Context, filter models.SerialFilter) ([]*models.SerialRecord, error) {
	recs, err := r.serials.List(ctx, filter)
	if err != nil {
		return nil, translateSerialErr(err, "failed to list serials")
	}
	return recs, nil
}

// ListAvailable returns unowned serials still open for registration.
func (r *Registry) ListAvailable(ctx context.Context) ([]*models.SerialRecord, error) {
	status := models.StatusAvailable
	recs, err := r.List(ctx, models.SerialFilter{Status: &status})
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(recs, func(rec *models.SerialRecord) bool {
		return rec.OwnerID != nil
	}), nil
}

func joinStatuses(statuses []models.Status) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}
