package models

import (
	"strings"

	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
)

// Role is the access level resolved for a caller on each request.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleEndUser Role = "end_user"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleEndUser
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts the stored or wire form of a role.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown role %q", raw).WithField("role")
	}
	return r, nil
}

// Caller is the resolved identity behind a request.
type Caller struct {
	UserID id.UserID `json:"user_id"`
	Role   Role      `json:"role"`
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
