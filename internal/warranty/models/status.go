package models

import (
	"slices"

	dErrors "warranty/pkg/domain-errors"
)

// Status is the lifecycle state of a serial number. Claim resolution is
// tracked here rather than on the claim, so a serial supports one claim cycle.
type Status string

const (
	StatusAvailable       Status = "available"
	StatusRegistered      Status = "registered"
	StatusClaimed         Status = "claimed"
	StatusInReview        Status = "in-review"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusRequireMoreInfo Status = "require-more-info"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusAvailable,
	StatusRegistered,
	StatusClaimed,
	StatusInReview,
	StatusApproved,
	StatusRejected,
	StatusRequireMoreInfo,
}

// transitions is the full set of legal edges. approved and rejected are terminal.
var transitions = map[Status][]Status{
	StatusAvailable:       {StatusRegistered},
	StatusRegistered:      {StatusClaimed},
	StatusClaimed:         {StatusInReview, StatusApproved, StatusRejected, StatusRequireMoreInfo},
	StatusInReview:        {StatusApproved, StatusRejected, StatusRequireMoreInfo},
	StatusRequireMoreInfo: {StatusInReview, StatusApproved, StatusRejected},
	StatusApproved:        nil,
	StatusRejected:        nil,
}

// AdminTargets is the status vocabulary an admin may request through a status update.
var AdminTargets = []Status{
	StatusClaimed,
	StatusInReview,
	StatusApproved,
	StatusRejected,
	StatusRequireMoreInfo,
}

// AdminSources are the states an admin status update may move a serial out of.
var AdminSources = []Status{
	StatusClaimed,
	StatusInReview,
	StatusRequireMoreInfo,
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown status %q", s).WithField("status")
	}
	return st, nil
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) String() string { return string(s) }

// CanTransitionTo reports whether s -> to is a legal edge.
func (s Status) CanTransitionTo(to Status) bool {
	return slices.Contains(transitions[s], to)
}

// IsTerminal reports whether s has no outgoing edges.
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// IsOwned reports whether a serial in status s must carry an owner.
func (s Status) IsOwned() bool {
	return s.IsValid() && s != StatusAvailable
}

// IsClaimedOrLater reports whether a serial in status s must reference a claim.
func (s Status) IsClaimedOrLater() bool {
	return s.IsOwned() && s != StatusRegistered
}

// IsDeletable reports whether an admin may delete a serial in status s.
func (s Status) IsDeletable() bool {
	return s == StatusAvailable || s.IsTerminal()
}

// IsAdminTarget reports whether s belongs to the admin status vocabulary.
func (s Status) IsAdminTarget() bool {
	return slices.Contains(AdminTargets, s)
}

// LegalSources returns every status with a legal edge into to.
func LegalSources(to Status) []Status {
	var out []Status
	for _, from := range AllStatuses {
		if from.CanTransitionTo(to) {
			out = append(out, from)
		}
	}
	return out
}

// NarrowSources intersects the caller's expected set with the legal sources
// of to, so a transition can never follow an undefined edge.
func NarrowSources(expected []Status, to Status) []Status {
	legal := LegalSources(to)
	out := make([]Status, 0, len(expected))
	for _, s := range expected {
		if slices.Contains(legal, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
