package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"warranty/internal/warranty/metrics"
	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	"warranty/pkg/platform/sentinel"
	"warranty/pkg/requestcontext"
)

// Reconciler finds claims and serials that disagree with each other: the
// residue of a filing whose serial transition failed after the claim was
// written. It only reports; repair is a manual decision.
type Reconciler struct {
	serials SerialStore
	claims  ClaimStore
	tx      StoreTx
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewReconciler(serials SerialStore, claims ClaimStore, opts ...Option) *Reconciler {
	cfg := newConfig(opts)
	return &Reconciler{serials: serials, claims: claims, tx: cfg.tx, logger: cfg.logger, metrics: cfg.metrics}
}

// Scan compares every claim with its serial, and every claimed serial with
// its claim. The reads share one transaction so a filing in flight is
// either fully visible or not at all.
func (r *Reconciler) Scan(ctx context.Context) ([]models.Discrepancy, error) {
	var found []models.Discrepancy
	err := r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		found, err = r.scan(txCtx)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, d := range found {
		r.logger.WarnContext(ctx, "claim and serial disagree",
			"claim_id", d.ClaimID.String(),
			"serial_id", d.SerialID.String(),
			"serial_status", d.SerialStatus.String(),
			"reason", d.Reason,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	r.metrics.SetOrphanedClaims(len(found))
	return found, nil
}

// scan lists serials before claims. Under read committed a claim filed
// between the two reads then shows up only on the claim side, where its
// serial is re-read and agrees.
func (r *Reconciler) scan(ctx context.Context) ([]models.Discrepancy, error) {
	serials, err := r.serials.List(ctx, models.SerialFilter{})
	if err != nil {
		return nil, translateSerialErr(err, "failed to list serials")
	}
	claims, err := r.claims.ListAll(ctx)
	if err != nil {
		return nil, translateClaimErr(err, "failed to list claims")
	}
	known := make(map[id.ClaimID]struct{}, len(claims))

	var found []models.Discrepancy
	for _, c := range claims {
		known[c.ID] = struct{}{}
		serial, err := r.serials.FindByID(ctx, c.SerialID)
		if errors.Is(err, sentinel.ErrNotFound) {
			found = append(found, models.Discrepancy{ClaimID: c.ID, SerialID: c.SerialID, Reason: "serial missing"})
			continue
		}
		if err != nil {
			return nil, translateSerialErr(err, "failed to load serial")
		}
		switch {
		case serial.ClaimRequestID == nil:
			found = append(found, discrepancy(c, serial, "serial does not reference claim"))
		case *serial.ClaimRequestID != c.ID:
			found = append(found, discrepancy(c, serial, "serial references a different claim"))
		case !serial.Status.IsClaimedOrLater():
			found = append(found, discrepancy(c, serial, "serial status predates claim"))
		}
	}

	for _, s := range serials {
		if s.ClaimRequestID == nil {
			continue
		}
		if _, ok := known[*s.ClaimRequestID]; !ok {
			claimRef := *s.ClaimRequestID
			found = append(found, models.Discrepancy{
				ClaimID:       claimRef,
				SerialID:      s.ID,
				SerialStatus:  s.Status,
				SerialClaimID: &claimRef,
				Reason:        "claim missing",
			})
		}
	}
	return found, nil
}

// Run scans every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			found, err := r.Scan(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.ErrorContext(ctx, "reconciliation scan failed", "error", err)
				continue
			}
			if len(found) > 0 {
				r.logger.ErrorContext(ctx, "reconciliation found inconsistencies", "count", len(found))
			}
		}
	}
}

func discrepancy(c *models.ClaimRecord, serial *models.SerialRecord, reason string) models.Discrepancy {
	d := models.Discrepancy{
		ClaimID:      c.ID,
		SerialID:     serial.ID,
		SerialStatus: serial.Status,
		Reason:       reason,
	}
	if serial.ClaimRequestID != nil {
		ref := *serial.ClaimRequestID
		d.SerialClaimID = &ref
	}
	return d
}
