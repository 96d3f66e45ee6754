package handler

import (
	"strings"
	"time"

	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// CreateSerialRequest is the body for POST /admin/serials.
type CreateSerialRequest struct {
	ProductID    string `json:"product_id"`
	SerialNumber string `json:"serial_number"`

	productID id.ProductID
}

func (r *CreateSerialRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.SerialNumber = strings.TrimSpace(r.SerialNumber)
	if r.SerialNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "serial_number is required").WithField("serial_number")
	}
	productID, err := id.ParseProductID(strings.TrimSpace(r.ProductID))
	if err != nil {
		if de, ok := dErrors.As(err); ok {
			return de.WithField("product_id")
		}
		return err
	}
	r.productID = productID
	return nil
}

// UpdateStatusRequest is the body for the admin status endpoints.
type UpdateStatusRequest struct {
	Status string `json:"status"`

	status models.Status
}

func (r *UpdateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	status, err := models.ParseStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.status = status
	return nil
}

// RegisterRequest carries registration fields from JSON or a multipart form.
type RegisterRequest struct {
	SerialNumber   string `json:"serial_number"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	CustomerPhone  string `json:"customer_phone,omitempty"`
	PurchaseSource string `json:"purchase_source,omitempty"`
	PurchaseDate   string `json:"purchase_date,omitempty"`

	purchaseDate *time.Time
	receipt      *models.Upload
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.SerialNumber = strings.TrimSpace(r.SerialNumber)
	if r.SerialNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "serial_number is required").WithField("serial_number")
	}
	if len(r.SerialNumber) > models.MaxSerialNumberLength {
		return dErrors.New(dErrors.CodeValidation, "serial_number is too long").WithField("serial_number")
	}
	date, err := parseOptionalDate(r.PurchaseDate, "purchase_date")
	if err != nil {
		return err
	}
	r.purchaseDate = date
	return nil
}

// Fields converts the request into the registration protocol input.
func (r *RegisterRequest) Fields() models.RegistrationFields {
	return models.RegistrationFields{
		CustomerName:   r.CustomerName,
		CustomerEmail:  r.CustomerEmail,
		CustomerPhone:  r.CustomerPhone,
		PurchaseSource: r.PurchaseSource,
		PurchaseDate:   r.purchaseDate,
		Receipt:        r.receipt,
	}
}

// ClaimRequest carries complaint fields from JSON or a multipart form.
type ClaimRequest struct {
	ComplaintTitle         string `json:"complaint_title"`
	ComplaintDate          string `json:"complaint_date,omitempty"`
	IssueType              string `json:"issue_type"`
	ExpectedResolutionDate string `json:"expected_resolution_date,omitempty"`
	Description            string `json:"description,omitempty"`
	CustomerNote           string `json:"customer_note,omitempty"`

	complaintDate  *time.Time
	expectedByDate *time.Time
}

func (r *ClaimRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	var err error
	if r.complaintDate, err = parseOptionalDate(r.ComplaintDate, "complaint_date"); err != nil {
		return err
	}
	if r.expectedByDate, err = parseOptionalDate(r.ExpectedResolutionDate, "expected_resolution_date"); err != nil {
		return err
	}
	return nil
}

// Fields converts the request into the claim filing protocol input.
func (r *ClaimRequest) Fields() models.ComplaintFields {
	f := models.ComplaintFields{
		ComplaintTitle:         r.ComplaintTitle,
		IssueType:              models.IssueType(strings.TrimSpace(r.IssueType)),
		ExpectedResolutionDate: r.expectedByDate,
		Description:            r.Description,
		CustomerNote:           r.CustomerNote,
	}
	if r.complaintDate != nil {
		f.ComplaintDate = *r.complaintDate
	}
	return f
}

// parseOptionalDate accepts YYYY-MM-DD or RFC 3339. Empty means unset.
func parseOptionalDate(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, dErrors.Newf(dErrors.CodeValidation, "%s must be a date (YYYY-MM-DD)", field).WithField(field)
}
