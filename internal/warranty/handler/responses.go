package handler

import (
	"time"

	"warranty/internal/warranty/models"
	"warranty/internal/warranty/service"
)

// SerialResponse is the wire shape of a serial record.
type SerialResponse struct {
	ID                 string     `json:"id"`
	ProductID          string     `json:"product_id"`
	SerialNumber       string     `json:"serial_number"`
	Status             string     `json:"status"`
	OwnerID            string     `json:"owner_id,omitempty"`
	CustomerName       string     `json:"customer_name,omitempty"`
	CustomerEmail      string     `json:"customer_email,omitempty"`
	CustomerPhone      string     `json:"customer_phone,omitempty"`
	RegistrationDate   *time.Time `json:"registration_date,omitempty"`
	PurchaseDate       *time.Time `json:"purchase_date,omitempty"`
	PurchaseSource     string     `json:"purchase_source,omitempty"`
	PurchaseReceiptURL string     `json:"purchase_receipt_url,omitempty"`
	ClaimRequestID     string     `json:"claim_request_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type SerialListResponse struct {
	Serials []SerialResponse `json:"serials"`
	Count   int              `json:"count"`
}

// ClaimResponse is a claim plus the serial status that resolves it.
type ClaimResponse struct {
	ID                     string          `json:"id"`
	SerialID               string          `json:"serial_number_id"`
	ComplaintTitle         string          `json:"complaint_title"`
	ComplaintDate          time.Time       `json:"complaint_date"`
	IssueType              string          `json:"issue_type"`
	ExpectedResolutionDate *time.Time      `json:"expected_resolution_date,omitempty"`
	Description            string          `json:"description,omitempty"`
	CustomerNote           string          `json:"customer_note,omitempty"`
	EvidenceImageURLs      []string        `json:"evidence_image_urls"`
	CreatedAt              time.Time       `json:"created_at"`
	Status                 string          `json:"status,omitempty"`
	Serial                 *SerialResponse `json:"serial,omitempty"`
}

type ClaimListResponse struct {
	Claims []ClaimResponse `json:"claims"`
	Count  int             `json:"count"`
}

type EligibilityResponse struct {
	Eligible bool           `json:"eligible"`
	Reason   string         `json:"reason,omitempty"`
	Serial   SerialResponse `json:"serial"`
}

type RoleResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type DiscrepancyResponse struct {
	ClaimID       string `json:"claim_id"`
	SerialID      string `json:"serial_id"`
	SerialStatus  string `json:"serial_status,omitempty"`
	SerialClaimID string `json:"serial_claim_id,omitempty"`
	Reason        string `json:"reason"`
}

type ReconciliationResponse struct {
	Discrepancies []DiscrepancyResponse `json:"discrepancies"`
	Count         int                   `json:"count"`
}

func toSerialResponse(r *models.SerialRecord) SerialResponse {
	resp := SerialResponse{
		ID:                 r.ID.String(),
		ProductID:          r.ProductID.String(),
		SerialNumber:       r.SerialNumber,
		Status:             r.Status.String(),
		CustomerName:       r.CustomerName,
		CustomerEmail:      r.CustomerEmail,
		CustomerPhone:      r.CustomerPhone,
		RegistrationDate:   r.RegistrationDate,
		PurchaseDate:       r.PurchaseDate,
		PurchaseSource:     r.PurchaseSource,
		PurchaseReceiptURL: r.PurchaseReceiptURL,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.OwnerID != nil {
		resp.OwnerID = r.OwnerID.String()
	}
	if r.ClaimRequestID != nil {
		resp.ClaimRequestID = r.ClaimRequestID.String()
	}
	return resp
}

func toSerialListResponse(recs []*models.SerialRecord) SerialListResponse {
	out := make([]SerialResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toSerialResponse(r))
	}
	return SerialListResponse{Serials: out, Count: len(out)}
}

func toClaimResponse(v models.ClaimView) ClaimResponse {
	c := v.Claim
	urls := c.EvidenceImageURLs
	if urls == nil {
		urls = []string{}
	}
	resp := ClaimResponse{
		ID:                     c.ID.String(),
		SerialID:               c.SerialID.String(),
		ComplaintTitle:         c.ComplaintTitle,
		ComplaintDate:          c.ComplaintDate,
		IssueType:              string(c.IssueType),
		ExpectedResolutionDate: c.ExpectedResolutionDate,
		Description:            c.Description,
		CustomerNote:           c.CustomerNote,
		EvidenceImageURLs:      urls,
		CreatedAt:              c.CreatedAt,
	}
	if v.Serial != nil {
		serial := toSerialResponse(v.Serial)
		resp.Serial = &serial
		resp.Status = serial.Status
	}
	return resp
}

func toClaimListResponse(views []models.ClaimView) ClaimListResponse {
	out := make([]ClaimResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toClaimResponse(v))
	}
	return ClaimListResponse{Claims: out, Count: len(out)}
}

func toEligibilityResponse(e *service.Eligibility) EligibilityResponse {
	return EligibilityResponse{
		Eligible: e.Eligible,
		Reason:   e.Reason,
		Serial:   toSerialResponse(e.Record),
	}
}

func toReconciliationResponse(found []models.Discrepancy) ReconciliationResponse {
	out := make([]DiscrepancyResponse, 0, len(found))
	for _, d := range found {
		resp := DiscrepancyResponse{
			ClaimID:  d.ClaimID.String(),
			SerialID: d.SerialID.String(),
			Reason:   d.Reason,
		}
		if d.SerialStatus != "" {
			resp.SerialStatus = d.SerialStatus.String()
		}
		if d.SerialClaimID != nil {
			resp.SerialClaimID = d.SerialClaimID.String()
		}
		out = append(out, resp)
	}
	return ReconciliationResponse{Discrepancies: out, Count: len(out)}
}
