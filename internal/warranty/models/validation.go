package models

import (
	"net/mail"
	"slices"
	"strings"
	"time"
	"unicode"

	dErrors "warranty/pkg/domain-errors"
)

const (
	MaxEvidenceImages   = 4
	MaxUploadBytes      = 5 << 20
	MinComplaintTitle   = 5
	MinPhoneDigits      = 10
	MaxFreeTextLength   = 4000
	MaxCustomerNameSize = 200
)

// PurchaseSources are the accepted retail channels.
var PurchaseSources = []string{"Amazon", "Flipkart", "Retail Store", "Direct Purchase", "Other"}

// ReceiptContentTypes are accepted for purchase receipts.
var ReceiptContentTypes = []string{"image/jpeg", "image/png", "application/pdf"}

// Upload is an in-memory file destined for object storage.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RegistrationFields are the customer and purchase details stamped at registration.
type RegistrationFields struct {
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	PurchaseSource string
	PurchaseDate   *time.Time
	Receipt        *Upload
}

// Normalize trims free-text fields in place.
func (f *RegistrationFields) Normalize() {
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	f.CustomerEmail = strings.TrimSpace(f.CustomerEmail)
	f.CustomerPhone = strings.TrimSpace(f.CustomerPhone)
	f.PurchaseSource = strings.TrimSpace(f.PurchaseSource)
}

// Validate checks registration input. now bounds the purchase date.
func (f *RegistrationFields) Validate(now time.Time) error {
	if f.CustomerName == "" {
		return dErrors.New(dErrors.CodeValidation, "customer name is required").WithField("customer_name")
	}
	if len(f.CustomerName) > MaxCustomerNameSize {
		return dErrors.New(dErrors.CodeValidation, "customer name is too long").WithField("customer_name")
	}
	if f.CustomerEmail == "" {
		return dErrors.New(dErrors.CodeValidation, "customer email is required").WithField("customer_email")
	}
	if addr, err := mail.ParseAddress(f.CustomerEmail); err != nil || addr.Address != f.CustomerEmail {
		return dErrors.New(dErrors.CodeValidation, "invalid email address").WithField("customer_email")
	}
	if f.CustomerPhone != "" && !isPhone(f.CustomerPhone) {
		return dErrors.Newf(dErrors.CodeValidation, "mobile number must be at least %d digits", MinPhoneDigits).WithField("customer_phone")
	}
	if f.PurchaseSource != "" && !slices.Contains(PurchaseSources, f.PurchaseSource) {
		return dErrors.New(dErrors.CodeValidation, "unknown purchase source").WithField("purchase_source")
	}
	if f.PurchaseDate != nil && f.PurchaseDate.After(now) {
		return dErrors.New(dErrors.CodeValidation, "purchase date cannot be in the future").WithField("purchase_date")
	}
	if f.Receipt != nil {
		if err := validateUpload(*f.Receipt, "purchase_receipt"); err != nil {
			return err
		}
		if !slices.Contains(ReceiptContentTypes, f.Receipt.ContentType) {
			return dErrors.New(dErrors.CodeValidation, "only jpg, png, and pdf receipts are accepted").WithField("purchase_receipt")
		}
	}
	return nil
}

func isPhone(s string) bool {
	if len(s) < MinPhoneDigits {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Normalize trims free-text fields in place.
func (f *ComplaintFields) Normalize() {
	f.ComplaintTitle = strings.TrimSpace(f.ComplaintTitle)
	f.Description = strings.TrimSpace(f.Description)
	f.CustomerNote = strings.TrimSpace(f.CustomerNote)
}

// Validate checks complaint input and its evidence. now bounds the complaint date.
func (f *ComplaintFields) Validate(images []Upload, now time.Time) error {
	if len(f.ComplaintTitle) < MinComplaintTitle {
		return dErrors.Newf(dErrors.CodeValidation, "complaint title must be at least %d characters", MinComplaintTitle).WithField("complaint_title")
	}
	if !f.IssueType.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown issue type").WithField("issue_type")
	}
	if !f.ComplaintDate.IsZero() && f.ComplaintDate.After(now) {
		return dErrors.New(dErrors.CodeValidation, "complaint date cannot be in the future").WithField("complaint_date")
	}
	if len(f.Description) > MaxFreeTextLength {
		return dErrors.New(dErrors.CodeValidation, "description is too long").WithField("description")
	}
	if len(f.CustomerNote) > MaxFreeTextLength {
		return dErrors.New(dErrors.CodeValidation, "customer note is too long").WithField("customer_note")
	}
	if len(images) > MaxEvidenceImages {
		return dErrors.Newf(dErrors.CodeValidation, "max %d images", MaxEvidenceImages).WithField("evidence_images")
	}
	for _, img := range images {
		if err := validateUpload(img, "evidence_images"); err != nil {
			return err
		}
		if !strings.HasPrefix(img.ContentType, "image/") {
			return dErrors.New(dErrors.CodeValidation, "evidence must be an image").WithField("evidence_images")
		}
	}
	return nil
}

func validateUpload(u Upload, field string) error {
	if len(u.Data) == 0 {
		return dErrors.New(dErrors.CodeValidation, "file is empty").WithField(field)
	}
	if len(u.Data) > MaxUploadBytes {
		return dErrors.New(dErrors.CodeValidation, "each file must be at most 5MB").WithField(field)
	}
	return nil
}
