package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/httputil"
	"warranty/pkg/requestcontext"
)

// Middleware applies a Policy over a Store.
type Middleware struct {
	store    Store
	policy   Policy
	logger   *slog.Logger
	metrics  *Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every check into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) { m.disabled = disabled }
}

func WithPolicy(policy Policy) Option {
	return func(m *Middleware) { m.policy = policy }
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Middleware) { m.metrics = metrics }
}

func New(store Store, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		policy: DefaultPolicy(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// PerIP limits by the client address recorded by the metadata middleware.
func (m *Middleware) PerIP(class Class) func(http.Handler) http.Handler {
	return m.limit(class, func(r *http.Request) string {
		return "ip:" + requestcontext.ClientIP(r.Context())
	})
}

// PerUser limits by the authenticated user, falling back to the client
// address for anonymous requests.
func (m *Middleware) PerUser(class Class) func(http.Handler) http.Handler {
	return m.limit(class, func(r *http.Request) string {
		if userID := requestcontext.UserID(r.Context()); !userID.IsNil() {
			return "user:" + userID.String()
		}
		return "ip:" + requestcontext.ClientIP(r.Context())
	})
}

func (m *Middleware) limit(class Class, subject func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		lim, ok := m.policy[class]
		if m.disabled || !ok {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			result, err := m.store.Allow(ctx, key(class, subject(r)), lim)
			if err != nil {
				// Fail open.
				m.metrics.IncCheck(class, "error")
				m.logger.ErrorContext(ctx, "rate limit check failed",
					"class", string(class),
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			writeHeaders(w, result)
			if !result.Allowed {
				m.metrics.IncCheck(class, "limited")
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter(time.Now())))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, try again later"))
				return
			}
			m.metrics.IncCheck(class, "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

func writeHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	if result.Degraded {
		w.Header().Set("X-RateLimit-Status", "degraded")
	}
}
