package models

import (
	"strings"
	"time"

	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
)

// MaxSerialNumberLength bounds the human-entered code.
const MaxSerialNumberLength = 128

// SerialRecord is one physical unit eligible for warranty.
//
// Invariants:
//   - SerialNumber is unique across the registry, compared case-sensitively
//   - OwnerID is set iff Status is registered or later
//   - ClaimRequestID is set iff Status is claimed or later
//   - Status changes only through a registry transition
type SerialRecord struct {
	ID                 id.SerialID  `json:"id"`
	ProductID          id.ProductID `json:"product_id"`
	SerialNumber       string       `json:"serial_number"`
	Status             Status       `json:"status"`
	OwnerID            *id.UserID   `json:"owner_id,omitempty"`
	CustomerName       string       `json:"customer_name,omitempty"`
	CustomerEmail      string       `json:"customer_email,omitempty"`
	CustomerPhone      string       `json:"customer_phone,omitempty"`
	RegistrationDate   *time.Time   `json:"registration_date,omitempty"`
	PurchaseDate       *time.Time   `json:"purchase_date,omitempty"`
	PurchaseSource     string       `json:"purchase_source,omitempty"`
	PurchaseReceiptURL string       `json:"purchase_receipt_url,omitempty"`
	ClaimRequestID     *id.ClaimID  `json:"claim_request_id,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// NewSerialRecord builds an available, unowned serial.
func NewSerialRecord(serialID id.SerialID, productID id.ProductID, serialNumber string, now time.Time) (*SerialRecord, error) {
	if productID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "product_id is required").WithField("product_id")
	}
	if err := ValidateSerialNumber(serialNumber); err != nil {
		return nil, err
	}
	return &SerialRecord{
		ID:           serialID,
		ProductID:    productID,
		SerialNumber: serialNumber,
		Status:       StatusAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateSerialNumber checks the code shape. Case is preserved as entered.
func ValidateSerialNumber(serialNumber string) error {
	if strings.TrimSpace(serialNumber) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "serial_number is required").WithField("serial_number")
	}
	if serialNumber != strings.TrimSpace(serialNumber) {
		return dErrors.New(dErrors.CodeInvariantViolation, "serial_number must not have surrounding whitespace").WithField("serial_number")
	}
	if len(serialNumber) > MaxSerialNumberLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "serial_number is too long").WithField("serial_number")
	}
	return nil
}

// IsOwnedBy reports whether userID registered this serial.
func (r *SerialRecord) IsOwnedBy(userID id.UserID) bool {
	return r.OwnerID != nil && *r.OwnerID == userID
}

// PublicView keeps only what any caller may see: identity, product and
// status. Owner and customer details are dropped.
func (r *SerialRecord) PublicView() *SerialRecord {
	return &SerialRecord{
		ID:           r.ID,
		ProductID:    r.ProductID,
		SerialNumber: r.SerialNumber,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// CheckInvariants verifies the owner and claim linkage rules for the current status.
func (r *SerialRecord) CheckInvariants() error {
	if r.Status.IsOwned() != (r.OwnerID != nil) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "owner must be set iff status is registered or later (status %s)", r.Status)
	}
	if r.Status.IsClaimedOrLater() != (r.ClaimRequestID != nil) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "claim reference must be set iff status is claimed or later (status %s)", r.Status)
	}
	return nil
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (r *SerialRecord) Clone() *SerialRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.OwnerID != nil {
		v := *r.OwnerID
		cp.OwnerID = &v
	}
	if r.ClaimRequestID != nil {
		v := *r.ClaimRequestID
		cp.ClaimRequestID = &v
	}
	if r.RegistrationDate != nil {
		v := *r.RegistrationDate
		cp.RegistrationDate = &v
	}
	if r.PurchaseDate != nil {
		v := *r.PurchaseDate
		cp.PurchaseDate = &v
	}
	return &cp
}

// SerialChanges are the field writes that accompany a transition.
// Nil fields are left untouched.
type SerialChanges struct {
	OwnerID            *id.UserID
	CustomerName       *string
	CustomerEmail      *string
	CustomerPhone      *string
	RegistrationDate   *time.Time
	PurchaseDate       *time.Time
	PurchaseSource     *string
	PurchaseReceiptURL *string
	ClaimRequestID     *id.ClaimID
}

// ApplyTransition writes to and changes onto r. Callers verify the source
// status first; see store Transition implementations.
func (r *SerialRecord) ApplyTransition(to Status, c SerialChanges, now time.Time) {
	r.Status = to
	if c.OwnerID != nil {
		v := *c.OwnerID
		r.OwnerID = &v
	}
	if c.CustomerName != nil {
		r.CustomerName = *c.CustomerName
	}
	if c.CustomerEmail != nil {
		r.CustomerEmail = *c.CustomerEmail
	}
	if c.CustomerPhone != nil {
		r.CustomerPhone = *c.CustomerPhone
	}
	if c.RegistrationDate != nil {
		v := *c.RegistrationDate
		r.RegistrationDate = &v
	}
	if c.PurchaseDate != nil {
		v := *c.PurchaseDate
		r.PurchaseDate = &v
	}
	if c.PurchaseSource != nil {
		r.PurchaseSource = *c.PurchaseSource
	}
	if c.PurchaseReceiptURL != nil {
		r.PurchaseReceiptURL = *c.PurchaseReceiptURL
	}
	if c.ClaimRequestID != nil {
		v := *c.ClaimRequestID
		r.ClaimRequestID = &v
	}
	r.UpdatedAt = now
}

// SerialFilter narrows a registry listing. Nil fields match everything.
type SerialFilter struct {
	Status    *Status
	ProductID *id.ProductID
	OwnerID   *id.UserID
}

// Matches reports whether r satisfies every set criterion.
func (f SerialFilter) Matches(r *SerialRecord) bool {
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.ProductID != nil && r.ProductID != *f.ProductID {
		return false
	}
	if f.OwnerID != nil && !r.IsOwnedBy(*f.OwnerID) {
		return false
	}
	return true
}
