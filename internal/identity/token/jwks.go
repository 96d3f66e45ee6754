package token

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	id "warranty/pkg/domain"
)

const (
	jwksClientTimeout   = 10 * time.Second
	jwksRefreshInterval = 15 * time.Minute
	defaultJWKSLeeway   = 30 * time.Second
)

// JWKSVerifier validates RS256/ES256 tokens against the identity provider's
// published key set. Keys are refreshed in the background.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	issuer string
	leeway time.Duration
}

// NewJWKSVerifier starts even when the key endpoint is not reachable yet;
// verification fails until the first successful refresh.
func NewJWKSVerifier(ctx context.Context, jwksURL, issuer string, logger *slog.Logger) (*JWKSVerifier, error) {
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: jwksClientTimeout},
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           jwksRefreshInterval,
		RefreshErrorHandler: func(ctx context.Context, err error) {
			logger.ErrorContext(ctx, "jwks refresh failed",
				"error", err,
				"url", jwksURL,
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create jwks storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("create keyfunc: %w", err)
	}

	return &JWKSVerifier{jwks: k, issuer: issuer, leeway: defaultJWKSLeeway}, nil
}

func (v *JWKSVerifier) Verify(ctx context.Context, raw string) (id.UserID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, v.jwks.KeyfuncCtx(ctx), opts...)
	if err != nil {
		return id.UserID{}, translate(err)
	}
	if !parsed.Valid {
		return id.UserID{}, errInvalid
	}
	return subjectOf(claims)
}
