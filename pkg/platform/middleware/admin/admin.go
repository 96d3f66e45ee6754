package admin

import (
	"log/slog"
	"net/http"

	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/httputil"
	"warranty/pkg/requestcontext"
)

// RequireRole rejects requests whose resolved role is not role.
// Must run after auth.RequireAuth.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Role(ctx) != role {
				logger.WarnContext(ctx, "role check failed",
					"required_role", role,
					"role", requestcontext.Role(ctx),
					"user_id", requestcontext.UserID(ctx).String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.Newf(dErrors.CodeForbidden, "%s role required", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
