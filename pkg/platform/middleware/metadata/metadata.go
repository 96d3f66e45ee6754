package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"warranty/pkg/requestcontext"
)

// ClientMetadata extracts client IP, User-Agent, and a coarse channel
// classification into the request context. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, Channel(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Channel classifies a User-Agent as "bot", "mobile", "desktop", or "api".
func Channel(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "api"
	}
	ua := useragent.New(userAgent)
	switch {
	case ua.Bot():
		return "bot"
	case ua.Mobile():
		return "mobile"
	case ua.OS() == "" && ua.Platform() == "":
		return "api"
	default:
		return "desktop"
	}
}

// ClientIPFromRequest extracts the real client IP, honoring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}
	return "unknown"
}
