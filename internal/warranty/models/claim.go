package models

import (
	"slices"
	"time"

	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
)

// IssueType classifies a complaint.
type IssueType string

const (
	IssueHardwareMalfunction    IssueType = "Hardware Malfunction"
	IssueSoftware               IssueType = "Software Issue"
	IssueAccidentalDamage       IssueType = "Accidental Damage"
	IssuePerformanceDegradation IssueType = "Performance Degradation"
	IssueConnectivity           IssueType = "Connectivity Problem"
	IssueBattery                IssueType = "Battery Issue"
	IssueDisplayAnomaly         IssueType = "Display Anomaly"
	IssueOther                  IssueType = "Other"
)

var IssueTypes = []IssueType{
	IssueHardwareMalfunction,
	IssueSoftware,
	IssueAccidentalDamage,
	IssuePerformanceDegradation,
	IssueConnectivity,
	IssueBattery,
	IssueDisplayAnomaly,
	IssueOther,
}

func (t IssueType) IsValid() bool {
	return slices.Contains(IssueTypes, t)
}

// ClaimRecord is a complaint lodged against a registered serial.
// It is append-only: its resolution lives on the serial's status.
type ClaimRecord struct {
	ID                     id.ClaimID  `json:"id"`
	SerialID               id.SerialID `json:"serial_number_id"`
	ComplaintTitle         string      `json:"complaint_title"`
	ComplaintDate          time.Time   `json:"complaint_date"`
	IssueType              IssueType   `json:"issue_type"`
	ExpectedResolutionDate *time.Time  `json:"expected_resolution_date,omitempty"`
	Description            string      `json:"description,omitempty"`
	CustomerNote           string      `json:"customer_note,omitempty"`
	EvidenceImageURLs      []string    `json:"evidence_image_urls"`
	CreatedAt              time.Time   `json:"created_at"`
}

// ComplaintFields is the caller-supplied part of a claim.
type ComplaintFields struct {
	ComplaintTitle         string
	ComplaintDate          time.Time
	IssueType              IssueType
	ExpectedResolutionDate *time.Time
	Description            string
	CustomerNote           string
}

// NewClaimRecord builds a claim for serialID with the uploaded evidence URLs.
func NewClaimRecord(claimID id.ClaimID, serialID id.SerialID, f ComplaintFields, evidence []string, now time.Time) (*ClaimRecord, error) {
	if serialID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "serial_number_id is required")
	}
	if len(evidence) > MaxEvidenceImages {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "max %d images", MaxEvidenceImages)
	}
	complaintDate := f.ComplaintDate
	if complaintDate.IsZero() {
		complaintDate = now
	}
	urls := make([]string, len(evidence))
	copy(urls, evidence)
	return &ClaimRecord{
		ID:                     claimID,
		SerialID:               serialID,
		ComplaintTitle:         f.ComplaintTitle,
		ComplaintDate:          complaintDate,
		IssueType:              f.IssueType,
		ExpectedResolutionDate: f.ExpectedResolutionDate,
		Description:            f.Description,
		CustomerNote:           f.CustomerNote,
		EvidenceImageURLs:      urls,
		CreatedAt:              now,
	}, nil
}

// Clone returns a deep copy.
func (c *ClaimRecord) Clone() *ClaimRecord {
	if c == nil {
		return nil
	}
	cp := *c
	cp.EvidenceImageURLs = slices.Clone(c.EvidenceImageURLs)
	if c.ExpectedResolutionDate != nil {
		v := *c.ExpectedResolutionDate
		cp.ExpectedResolutionDate = &v
	}
	return &cp
}

// ClaimView pairs a claim with the serial that carries its resolution status.
type ClaimView struct {
	Claim  *ClaimRecord
	Serial *SerialRecord
}

// Discrepancy describes a claim whose serial disagrees with it.
type Discrepancy struct {
	ClaimID       id.ClaimID
	SerialID      id.SerialID
	SerialStatus  Status
	SerialClaimID *id.ClaimID
	Reason        string
}
