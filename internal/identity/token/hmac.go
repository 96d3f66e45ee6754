package token

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "warranty/pkg/domain"
)

// HMACVerifier validates HS256 tokens signed with a shared key. Used for
// local development and tests; production deployments configure JWKS.
type HMACVerifier struct {
	signingKey []byte
	issuer     string
	leeway     time.Duration
}

func NewHMACVerifier(signingKey, issuer string) *HMACVerifier {
	return &HMACVerifier{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		leeway:     30 * time.Second,
	}
}

// Issue signs a token for userID. The identity provider owns issuance in
// production; this exists for the dev server and tests.
func (v *HMACVerifier) Issue(userID id.UserID, expiresIn time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		ID:        uuid.NewString(),
	})
	return tok.SignedString(v.signingKey)
}

func (v *HMACVerifier) Verify(_ context.Context, raw string) (id.UserID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	}, opts...)
	if err != nil {
		return id.UserID{}, translate(err)
	}
	if !parsed.Valid {
		return id.UserID{}, errInvalid
	}
	return subjectOf(claims)
}
