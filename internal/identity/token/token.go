// Package token verifies bearer tokens issued by the external identity
// provider and extracts the subject as a user ID.
package token

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
)

// Verifier validates a raw bearer token and returns the caller's user ID.
type Verifier interface {
	Verify(ctx context.Context, raw string) (id.UserID, error)
}

var (
	errExpired = dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	errInvalid = dErrors.New(dErrors.CodeUnauthorized, "invalid token")
)

// translate maps parser failures onto the two unauthorized errors callers see.
func translate(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return errExpired
	}
	return errInvalid
}

// subjectOf reads the sub claim as a user ID.
func subjectOf(claims jwt.Claims) (id.UserID, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return id.UserID{}, errInvalid
	}
	userID, err := id.ParseUserID(sub)
	if err != nil {
		return id.UserID{}, errInvalid
	}
	return userID, nil
}
