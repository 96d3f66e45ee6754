// Package domain holds typed identifiers shared across modules.
//
// Each ID is a distinct named type over uuid.UUID so a ClaimID can never be
// passed where a SerialID is expected. Parse* functions are the trust
// boundary: they reject empty, malformed, and nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "warranty/pkg/domain-errors"
)

type (
	UserID    uuid.UUID
	SerialID  uuid.UUID
	ClaimID   uuid.UUID
	ProductID uuid.UUID
)

const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", kind)
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is too long", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be nil", kind)
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user_id", s)
	return UserID(u), err
}

func ParseSerialID(s string) (SerialID, error) {
	u, err := parseUUID("serial_id", s)
	return SerialID(u), err
}

func ParseClaimID(s string) (ClaimID, error) {
	u, err := parseUUID("claim_id", s)
	return ClaimID(u), err
}

func ParseProductID(s string) (ProductID, error) {
	u, err := parseUUID("product_id", s)
	return ProductID(u), err
}

func NewSerialID() SerialID { return SerialID(uuid.New()) }
func NewClaimID() ClaimID   { return ClaimID(uuid.New()) }

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id SerialID) String() string  { return uuid.UUID(id).String() }
func (id ClaimID) String() string   { return uuid.UUID(id).String() }
func (id ProductID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SerialID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ClaimID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ProductID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id SerialID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id ClaimID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id ProductID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SerialID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ClaimID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ProductID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
