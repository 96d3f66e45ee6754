package audit

import (
	"time"

	id "warranty/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so stores
// and sinks can apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers ownership and claim-resolution records that
	// must be persisted before the triggering operation reports success.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers access violations, role changes, and data
	// inconsistencies that need operator attention.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine catalog activity; best effort.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// UserID is the caller who performed the action.
	UserID id.UserID
	// Subject identifies the record acted upon (serial id, claim id, or code).
	Subject  string
	Action   string
	Decision string
	Reason   string
	// RequestID correlates the event with request logs.
	RequestID string
	// ActorID is set when an admin acts on another user's record.
	ActorID  string
	ClientIP string
}

type AuditEvent string

const (
	// Registry events
	EventSerialCreated  AuditEvent = "serial_created"
	EventSerialDeleted  AuditEvent = "serial_deleted"
	EventSerialImported AuditEvent = "serial_imported"

	// Lifecycle events
	EventWarrantyRegistered   AuditEvent = "warranty_registered"
	EventClaimFiled           AuditEvent = "claim_filed"
	EventClaimStatusUpdated   AuditEvent = "claim_status_updated"
	EventInconsistencyFound   AuditEvent = "claim_inconsistency_detected"
	EventRegistrationConflict AuditEvent = "registration_conflict"

	// Identity events
	EventRoleRefreshed AuditEvent = "role_refreshed"
	EventAccessDenied  AuditEvent = "access_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventSerialDeleted:      CategoryCompliance,
	EventWarrantyRegistered: CategoryCompliance,
	EventClaimFiled:         CategoryCompliance,
	EventClaimStatusUpdated: CategoryCompliance,

	EventInconsistencyFound:   CategorySecurity,
	EventRegistrationConflict: CategorySecurity,
	EventRoleRefreshed:        CategorySecurity,
	EventAccessDenied:         CategorySecurity,

	EventSerialCreated:  CategoryOperations,
	EventSerialImported: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
