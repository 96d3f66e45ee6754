// Package requestcontext carries request-scoped values through
// context.Context. Middleware writes them; services and stores read them
// without importing net/http.
package requestcontext

import (
	"context"
	"time"

	id "warranty/pkg/domain"
)

type key int

const (
	userIDKey key = iota
	roleKey
	clientIPKey
	userAgentKey
	channelKey
	requestIDKey
	requestTimeKey
)

func value[T any](ctx context.Context, k key) T {
	v, _ := ctx.Value(k).(T)
	return v
}

// UserID is the authenticated caller, or the nil UUID for anonymous requests.
func UserID(ctx context.Context) id.UserID { return value[id.UserID](ctx, userIDKey) }

func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Role is the resolved role name, or "" before resolution. It is a plain
// string so this package does not depend on the identity module.
func Role(ctx context.Context) string { return value[string](ctx, roleKey) }

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

func ClientIP(ctx context.Context) string  { return value[string](ctx, clientIPKey) }
func UserAgent(ctx context.Context) string { return value[string](ctx, userAgentKey) }

// Channel is a coarse client class: mobile, desktop, bot or api.
func Channel(ctx context.Context) string { return value[string](ctx, channelKey) }

func WithClientMetadata(ctx context.Context, clientIP, userAgent, channel string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	ctx = context.WithValue(ctx, userAgentKey, userAgent)
	return context.WithValue(ctx, channelKey, channel)
}

func RequestID(ctx context.Context) string { return value[string](ctx, requestIDKey) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now is the time pinned for this request. Background workers without a
// pinned time get the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
