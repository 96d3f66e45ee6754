// Package handler is the HTTP surface over the warranty protocols. Handlers
// parse and shape requests; every rule lives in the service package.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Registration,Registry,Ledger,Filing,StatusUpdater,Importer,Reconciler,RoleRefresher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	identity "warranty/internal/identity/models"
	"warranty/internal/ratelimit"
	"warranty/internal/warranty/models"
	"warranty/internal/warranty/service"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/httputil"
	"warranty/pkg/requestcontext"
)

type Registration interface {
	Validate(ctx context.Context, code string) (*service.Eligibility, error)
	Register(ctx context.Context, code string, callerID id.UserID, fields models.RegistrationFields) (*models.SerialRecord, error)
}

type Registry interface {
	Create(ctx context.Context, productID id.ProductID, serialNumber string) (*models.SerialRecord, error)
	List(ctx context.Context, filter models.SerialFilter) ([]*models.SerialRecord, error)
	ListAvailable(ctx context.Context) ([]*models.SerialRecord, error)
	Delete(ctx context.Context, serialID id.SerialID) error
}

type Ledger interface {
	GetForCaller(ctx context.Context, caller identity.Caller, claimID id.ClaimID) (*models.ClaimView, error)
	ListForCaller(ctx context.Context, caller identity.Caller) ([]models.ClaimView, error)
}

type Filing interface {
	File(ctx context.Context, caller identity.Caller, serialID id.SerialID, fields models.ComplaintFields, images []models.Upload) (*models.ClaimView, error)
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, callerRole identity.Role, serialID id.SerialID, newStatus models.Status) (*models.SerialRecord, error)
	UpdateClaimStatus(ctx context.Context, callerRole identity.Role, claimID id.ClaimID, newStatus models.Status) (*models.ClaimView, error)
}

type Importer interface {
	Import(ctx context.Context, r io.Reader) (*service.ImportReport, error)
}

type Reconciler interface {
	Scan(ctx context.Context) ([]models.Discrepancy, error)
}

// RoleRefresher drops a cached role and resolves it again.
type RoleRefresher interface {
	Refresh(ctx context.Context, userID id.UserID) (identity.Caller, error)
}

// Services groups the collaborators a Handler dispatches to.
type Services struct {
	Registration Registration
	Registry     Registry
	Ledger       Ledger
	Filing       Filing
	Status       StatusUpdater
	Importer     Importer
	Reconciler   Reconciler
	Roles        RoleRefresher
}

// RouteLimiter throttles the lookup and lifecycle routes.
type RouteLimiter interface {
	PerIP(class ratelimit.Class) func(http.Handler) http.Handler
	PerUser(class ratelimit.Class) func(http.Handler) http.Handler
}

type Handler struct {
	svc     Services
	logger  *slog.Logger
	limiter RouteLimiter
}

type Option func(*Handler)

func WithRateLimiter(l RouteLimiter) Option {
	return func(h *Handler) { h.limiter = l }
}

func New(svc Services, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes open to every authenticated caller.
func (h *Handler) Register(r chi.Router) {
	r.With(h.perIP(ratelimit.ClassLookup)).Get("/serials/validate", h.HandleValidate)
	r.With(h.perIP(ratelimit.ClassRegister)).Post("/serials/register", h.HandleRegister)
	r.With(h.perUser(ratelimit.ClassClaim)).Post("/serials/{id}/claims", h.HandleFileClaim)
	r.Get("/me/serials", h.HandleListMySerials)
	r.Post("/me/role/refresh", h.HandleRefreshRole)
	r.Get("/claims", h.HandleListClaims)
	r.Get("/claims/{id}", h.HandleGetClaim)
}

// RegisterAdmin mounts the admin routes. The caller wraps r with the
// admin role gate; the status protocols check the role again.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/serials", h.HandleCreateSerial)
	r.Post("/admin/serials/import", h.HandleImportSerials)
	r.Get("/admin/serials", h.HandleListSerials)
	r.Get("/admin/serials/available", h.HandleListAvailable)
	r.Delete("/admin/serials/{id}", h.HandleDeleteSerial)
	r.Patch("/admin/serials/{id}/status", h.HandleUpdateSerialStatus)
	r.Patch("/admin/claims/{id}/status", h.HandleUpdateClaimStatus)
	r.Get("/admin/reconciliation", h.HandleReconcile)
}

func (h *Handler) perIP(class ratelimit.Class) func(http.Handler) http.Handler {
	if h.limiter == nil {
		return passThrough
	}
	return h.limiter.PerIP(class)
}

func (h *Handler) perUser(class ratelimit.Class) func(http.Handler) http.Handler {
	if h.limiter == nil {
		return passThrough
	}
	return h.limiter.PerUser(class)
}

func passThrough(next http.Handler) http.Handler { return next }

// HandleValidate handles GET /serials/validate?code=.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.URL.Query().Get("code")
	if code == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "code is required").WithField("code"))
		return
	}
	result, err := h.svc.Registration.Validate(ctx, code)
	if err != nil {
		h.fail(ctx, w, "serial validation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEligibilityResponse(result))
}

// HandleRegister handles POST /serials/register as JSON or multipart with
// an optional purchase_receipt file.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req *RegisterRequest
	if isMultipart(r) {
		parsed, err := parseRegisterForm(w, r)
		if err != nil {
			h.logger.WarnContext(ctx, "invalid registration form", "request_id", requestID, "error", err)
			httputil.WriteError(w, err)
			return
		}
		req = parsed
	} else {
		decoded, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		req = decoded
	}

	rec, err := h.svc.Registration.Register(ctx, req.SerialNumber, caller.UserID, req.Fields())
	if err != nil {
		h.fail(ctx, w, "warranty registration failed", err)
		return
	}
	h.logger.InfoContext(ctx, "warranty registered",
		"request_id", requestID,
		"serial_id", rec.ID.String(),
		"user_id", caller.UserID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, toSerialResponse(rec))
}

// HandleFileClaim handles POST /serials/{id}/claims as multipart with up to
// four evidence_images files.
func (h *Handler) HandleFileClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	serialID, err := id.ParseSerialID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var (
		req    *ClaimRequest
		images []models.Upload
	)
	if isMultipart(r) {
		req, images, err = parseClaimForm(w, r)
		if err != nil {
			h.logger.WarnContext(ctx, "invalid claim form", "request_id", requestID, "error", err)
			httputil.WriteError(w, err)
			return
		}
	} else {
		decoded, ok := httputil.DecodeAndPrepare[ClaimRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		req = decoded
	}

	view, err := h.svc.Filing.File(ctx, caller, serialID, req.Fields(), images)
	if err != nil {
		h.fail(ctx, w, "claim filing failed", err)
		return
	}
	h.logger.InfoContext(ctx, "claim filed",
		"request_id", requestID,
		"serial_id", serialID.String(),
		"claim_id", view.Claim.ID.String(),
		"evidence_count", len(images),
	)
	httputil.WriteJSON(w, http.StatusCreated, toClaimResponse(*view))
}

// HandleListMySerials handles GET /me/serials. The owner filter always comes
// from the authenticated caller.
func (h *Handler) HandleListMySerials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	filter, err := parseSerialFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	owner := caller.UserID
	filter.OwnerID = &owner

	recs, err := h.svc.Registry.List(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "listing own serials failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSerialListResponse(recs))
}

// HandleRefreshRole handles POST /me/role/refresh.
func (h *Handler) HandleRefreshRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	refreshed, err := h.svc.Roles.Refresh(ctx, caller.UserID)
	if err != nil {
		h.fail(ctx, w, "role refresh failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RoleResponse{
		UserID: refreshed.UserID.String(),
		Role:   refreshed.Role.String(),
	})
}

// HandleListClaims handles GET /claims.
func (h *Handler) HandleListClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	views, err := h.svc.Ledger.ListForCaller(ctx, caller)
	if err != nil {
		h.fail(ctx, w, "listing claims failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimListResponse(views))
}

// HandleGetClaim handles GET /claims/{id}.
func (h *Handler) HandleGetClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	claimID, err := id.ParseClaimID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.svc.Ledger.GetForCaller(ctx, caller, claimID)
	if err != nil {
		h.fail(ctx, w, "loading claim failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimResponse(*view))
}

// HandleCreateSerial handles POST /admin/serials.
func (h *Handler) HandleCreateSerial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[CreateSerialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	rec, err := h.svc.Registry.Create(ctx, req.productID, req.SerialNumber)
	if err != nil {
		h.fail(ctx, w, "serial creation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSerialResponse(rec))
}

// HandleImportSerials handles POST /admin/serials/import. The CSV is taken
// from the "file" multipart field or, failing that, the raw body.
func (h *Handler) HandleImportSerials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := importSource(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	start := time.Now()
	report, err := h.svc.Importer.Import(ctx, body)
	if err != nil {
		h.fail(ctx, w, "serial import failed", err)
		return
	}
	h.logger.InfoContext(ctx, "serial import completed",
		"request_id", requestcontext.RequestID(ctx),
		"created", report.Created,
		"failed", report.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleListSerials handles GET /admin/serials?status=&product_id=&owner_id=.
func (h *Handler) HandleListSerials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseSerialFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if raw := r.URL.Query().Get("owner_id"); raw != "" {
		owner, err := id.ParseUserID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.OwnerID = &owner
	}
	recs, err := h.svc.Registry.List(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "listing serials failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSerialListResponse(recs))
}

// HandleListAvailable handles GET /admin/serials/available.
func (h *Handler) HandleListAvailable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recs, err := h.svc.Registry.ListAvailable(ctx)
	if err != nil {
		h.fail(ctx, w, "listing available serials failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSerialListResponse(recs))
}

// HandleDeleteSerial handles DELETE /admin/serials/{id}.
func (h *Handler) HandleDeleteSerial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	serialID, err := id.ParseSerialID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Registry.Delete(ctx, serialID); err != nil {
		h.fail(ctx, w, "serial deletion failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateSerialStatus handles PATCH /admin/serials/{id}/status.
func (h *Handler) HandleUpdateSerialStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	serialID, err := id.ParseSerialID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.svc.Status.UpdateStatus(ctx, caller.Role, serialID, req.status)
	if err != nil {
		h.fail(ctx, w, "status update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSerialResponse(rec))
}

// HandleUpdateClaimStatus handles PATCH /admin/claims/{id}/status.
func (h *Handler) HandleUpdateClaimStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	claimID, err := id.ParseClaimID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view, err := h.svc.Status.UpdateClaimStatus(ctx, caller.Role, claimID, req.status)
	if err != nil {
		h.fail(ctx, w, "claim status update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimResponse(*view))
}

// HandleReconcile handles GET /admin/reconciliation.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	found, err := h.svc.Reconciler.Scan(ctx)
	if err != nil {
		h.fail(ctx, w, "reconciliation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReconciliationResponse(found))
}

// caller reads the identity the auth middleware placed on the request.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (identity.Caller, bool) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return identity.Caller{}, false
	}
	role, err := identity.ParseRole(requestcontext.Role(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "role missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID.String(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return identity.Caller{}, false
	}
	return identity.Caller{UserID: userID, Role: role}, true
}

// fail logs at a level matching the error class and writes the response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeInconsistency, dErrors.CodeUploadFailed, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, attrs...)
	default:
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
