package service

import (
	"context"
	"log/slog"

	identity "warranty/internal/identity/models"
	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/requestcontext"
)

// Ledger creates and reads claims. It never writes serial state.
type Ledger struct {
	serials SerialStore
	claims  ClaimStore
	logger  *slog.Logger
}

func NewLedger(serials SerialStore, claims ClaimStore, opts ...Option) *Ledger {
	cfg := newConfig(opts)
	return &Ledger{serials: serials, claims: claims, logger: cfg.logger}
}

// Create inserts a claim against a registered serial. The caller must move
// the serial to claimed right after, inside the same transaction.
func (l *Ledger) Create(ctx context.Context, serialID id.SerialID, fields models.ComplaintFields, evidence []string) (*models.ClaimRecord, error) {
	serial, err := l.serials.FindByID(ctx, serialID)
	if err != nil {
		return nil, translateSerialErr(err, "failed to load serial")
	}
	if serial.Status != models.StatusRegistered {
		return nil, notClaimable(serial)
	}

	claim, err := models.NewClaimRecord(id.NewClaimID(), serialID, fields, evidence, requestcontext.Now(ctx))
	if err != nil {
		if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
			return nil, dErrors.New(dErrors.CodeValidation, de.Message)
		}
		return nil, err
	}
	if err := l.claims.Create(ctx, claim); err != nil {
		return nil, translateClaimErr(err, "failed to create claim")
	}
	return claim, nil
}

func (l *Ledger) GetByID(ctx context.Context, claimID id.ClaimID) (*models.ClaimRecord, error) {
	claim, err := l.claims.FindByID(ctx, claimID)
	if err != nil {
		return nil, translateClaimErr(err, "failed to load claim")
	}
	return claim, nil
}

// GetForCaller returns a claim with its serial when the caller is an admin
// or owns the serial.
func (l *Ledger) GetForCaller(ctx context.Context, caller identity.Caller, claimID id.ClaimID) (*models.ClaimView, error) {
	claim, err := l.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	serial, err := l.serials.FindByID(ctx, claim.SerialID)
	if err != nil {
		return nil, translateSerialErr(err, "failed to load serial for claim")
	}
	if !caller.IsAdmin() && !serial.IsOwnedBy(caller.UserID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not your warranty")
	}
	return &models.ClaimView{Claim: claim, Serial: serial}, nil
}

// ListForCaller returns every claim for admins and only claims on the
// caller's own serials otherwise. The owner filter is applied here, not
// trusted from the caller.
func (l *Ledger) ListForCaller(ctx context.Context, caller identity.Caller) ([]models.ClaimView, error) {
	var filter models.SerialFilter
	if !caller.IsAdmin() {
		if caller.UserID.IsNil() {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
		}
		owner := caller.UserID
		filter.OwnerID = &owner
	}

	serials, err := l.serials.List(ctx, filter)
	if err != nil {
		return nil, translateSerialErr(err, "failed to list serials")
	}
	bySerial := make(map[id.SerialID]*models.SerialRecord, len(serials))
	serialIDs := make([]id.SerialID, 0, len(serials))
	for _, s := range serials {
		bySerial[s.ID] = s
		serialIDs = append(serialIDs, s.ID)
	}

	var claims []*models.ClaimRecord
	if caller.IsAdmin() {
		claims, err = l.claims.ListAll(ctx)
	} else {
		claims, err = l.claims.ListBySerialIDs(ctx, serialIDs)
	}
	if err != nil {
		return nil, translateClaimErr(err, "failed to list claims")
	}

	views := make([]models.ClaimView, 0, len(claims))
	for _, c := range claims {
		serial := bySerial[c.SerialID]
		if !caller.IsAdmin() && (serial == nil || !serial.IsOwnedBy(caller.UserID)) {
			continue
		}
		views = append(views, models.ClaimView{Claim: c, Serial: serial})
	}
	return views, nil
}

func notClaimable(serial *models.SerialRecord) error {
	return dErrors.Newf(dErrors.CodeNotClaimable, "serial is %s, only registered serials can be claimed", serial.Status).
		WithDetail("status", serial.Status.String())
}
