// Package identity resolves a bearer token to a Caller (user ID and role).
//
// Roles are re-resolved on every request. An optional cache holds a role
// for a short TTL and is dropped by Refresh, so promotions and demotions
// take effect no later than the TTL, or immediately after a refresh.
package identity

import (
	"context"
	"log/slog"

	"warranty/internal/identity/models"
	"warranty/internal/identity/token"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/audit"
	"warranty/pkg/requestcontext"
)

// RoleSource is the authority for role grants.
type RoleSource interface {
	RoleOf(ctx context.Context, userID id.UserID) (models.Role, error)
}

// RoleCache is a short-lived cache in front of RoleSource.
type RoleCache interface {
	Get(ctx context.Context, userID id.UserID) (models.Role, bool, error)
	Set(ctx context.Context, userID id.UserID, role models.Role) error
	Invalidate(ctx context.Context, userID id.UserID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Resolver implements the identity and role resolution boundary.
type Resolver struct {
	verifier token.Verifier
	roles    RoleSource
	cache    RoleCache
	auditor  AuditPublisher
	logger   *slog.Logger
}

type Option func(*Resolver)

func WithCache(cache RoleCache) Option {
	return func(r *Resolver) {
		r.cache = cache
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(r *Resolver) {
		r.auditor = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func NewResolver(verifier token.Verifier, roles RoleSource, opts ...Option) (*Resolver, error) {
	if verifier == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "token verifier is required")
	}
	if roles == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "role source is required")
	}
	r := &Resolver{
		verifier: verifier,
		roles:    roles,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve verifies raw and returns the caller with their current role.
func (r *Resolver) Resolve(ctx context.Context, raw string) (models.Caller, error) {
	userID, err := r.verifier.Verify(ctx, raw)
	if err != nil {
		return models.Caller{}, err
	}
	role, err := r.roleOf(ctx, userID)
	if err != nil {
		return models.Caller{}, err
	}
	return models.Caller{UserID: userID, Role: role}, nil
}

// Authenticate adapts Resolve to the auth middleware contract.
func (r *Resolver) Authenticate(ctx context.Context, raw string) (id.UserID, string, error) {
	caller, err := r.Resolve(ctx, raw)
	if err != nil {
		return id.UserID{}, "", err
	}
	return caller.UserID, caller.Role.String(), nil
}

// Refresh drops any cached role for userID and re-reads it from the source.
func (r *Resolver) Refresh(ctx context.Context, userID id.UserID) (models.Caller, error) {
	if r.cache != nil {
		if err := r.cache.Invalidate(ctx, userID); err != nil {
			r.logger.WarnContext(ctx, "role cache invalidate failed",
				"user_id", userID.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	role, err := r.roleOf(ctx, userID)
	if err != nil {
		return models.Caller{}, err
	}
	if r.auditor != nil {
		_ = r.auditor.Emit(ctx, audit.Event{
			UserID:   userID,
			Subject:  userID.String(),
			Action:   string(audit.EventRoleRefreshed),
			Decision: role.String(),
		})
	}
	return models.Caller{UserID: userID, Role: role}, nil
}

func (r *Resolver) roleOf(ctx context.Context, userID id.UserID) (models.Role, error) {
	if r.cache != nil {
		role, ok, err := r.cache.Get(ctx, userID)
		if err != nil {
			// Cache is an optimization; fall through to the source.
			r.logger.WarnContext(ctx, "role cache read failed",
				"user_id", userID.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		} else if ok {
			return role, nil
		}
	}

	role, err := r.roles.RoleOf(ctx, userID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve role")
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, userID, role); err != nil {
			r.logger.WarnContext(ctx, "role cache write failed",
				"user_id", userID.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	return role, nil
}
