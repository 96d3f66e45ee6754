package service

import (
	"context"
	"log/slog"

	id "warranty/pkg/domain"
	"warranty/pkg/platform/audit"
	"warranty/pkg/requestcontext"
)

// auditEmitter logs audit-relevant actions and forwards them to the publisher.
// Compliance events fail closed; everything else is best effort.
type auditEmitter struct {
	logger    *slog.Logger
	publisher AuditPublisher
}

func newAuditEmitter(logger *slog.Logger, publisher AuditPublisher) *auditEmitter {
	return &auditEmitter{logger: logger, publisher: publisher}
}

type auditRecord struct {
	action   audit.AuditEvent
	userID   id.UserID
	subject  string
	decision string
	reason   string
}

func (e *auditEmitter) emit(ctx context.Context, rec auditRecord) error {
	actor := requestcontext.UserID(ctx)
	if e.logger != nil {
		e.logger.InfoContext(ctx, string(rec.action),
			"event", string(rec.action),
			"log_type", "audit",
			"subject", rec.subject,
			"user_id", rec.userID.String(),
			"decision", rec.decision,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if e.publisher == nil {
		return nil
	}
	event := audit.Event{
		UserID:   rec.userID,
		Subject:  rec.subject,
		Action:   string(rec.action),
		Decision: rec.decision,
		Reason:   rec.reason,
	}
	if !actor.IsNil() && actor != rec.userID {
		event.ActorID = actor.String()
	}
	err := e.publisher.Emit(ctx, event)
	if err != nil && rec.action.Category() == audit.CategoryCompliance {
		return err
	}
	return nil
}
