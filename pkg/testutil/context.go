package testutil

import (
	"net/http"

	id "warranty/pkg/domain"
	"warranty/pkg/requestcontext"
)

// WithCaller stores the identity the auth middleware would have resolved.
func WithCaller(req *http.Request, userID id.UserID, role string) *http.Request {
	ctx := requestcontext.WithRole(requestcontext.WithUserID(req.Context(), userID), role)
	return req.WithContext(ctx)
}
