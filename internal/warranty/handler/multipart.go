package handler

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
)

const (
	// maxClaimBody leaves room for four full-size images plus form fields.
	maxClaimBody    = models.MaxEvidenceImages*models.MaxUploadBytes + 1<<20
	maxRegisterBody = models.MaxUploadBytes + 1<<20
	maxImportBody   = 8 << 20
	formMemory      = 8 << 20
)

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dErrors.New(dErrors.CodeValidation, "request is too large")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form")
	}
	return nil
}

func parseRegisterForm(w http.ResponseWriter, r *http.Request) (*RegisterRequest, error) {
	if err := parseMultipart(w, r, maxRegisterBody); err != nil {
		return nil, err
	}
	req := &RegisterRequest{
		SerialNumber:   r.FormValue("serial_number"),
		CustomerName:   r.FormValue("customer_name"),
		CustomerEmail:  r.FormValue("customer_email"),
		CustomerPhone:  r.FormValue("customer_phone"),
		PurchaseSource: r.FormValue("purchase_source"),
		PurchaseDate:   r.FormValue("purchase_date"),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	files := r.MultipartForm.File["purchase_receipt"]
	if len(files) > 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "only one receipt may be uploaded").WithField("purchase_receipt")
	}
	if len(files) == 1 {
		upload, err := readUpload(files[0], "purchase_receipt")
		if err != nil {
			return nil, err
		}
		req.receipt = &upload
	}
	return req, nil
}

func parseClaimForm(w http.ResponseWriter, r *http.Request) (*ClaimRequest, []models.Upload, error) {
	if err := parseMultipart(w, r, maxClaimBody); err != nil {
		return nil, nil, err
	}
	req := &ClaimRequest{
		ComplaintTitle:         r.FormValue("complaint_title"),
		ComplaintDate:          r.FormValue("complaint_date"),
		IssueType:              r.FormValue("issue_type"),
		ExpectedResolutionDate: r.FormValue("expected_resolution_date"),
		Description:            r.FormValue("description"),
		CustomerNote:           r.FormValue("customer_note"),
	}
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	files := r.MultipartForm.File["evidence_images"]
	if len(files) > models.MaxEvidenceImages {
		return nil, nil, dErrors.Newf(dErrors.CodeValidation, "max %d images", models.MaxEvidenceImages).WithField("evidence_images")
	}
	images := make([]models.Upload, 0, len(files))
	for _, fh := range files {
		upload, err := readUpload(fh, "evidence_images")
		if err != nil {
			return nil, nil, err
		}
		images = append(images, upload)
	}
	return req, images, nil
}

// readUpload reads at most one byte past the upload limit so the size rule
// is enforced by the protocol's own validation.
func readUpload(fh *multipart.FileHeader, field string) (models.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable file").WithField(field)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, models.MaxUploadBytes+1))
	if err != nil {
		return models.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable file").WithField(field)
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	return models.Upload{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}

// importSource returns the CSV stream for a bulk import request.
func importSource(w http.ResponseWriter, r *http.Request) (io.Reader, error) {
	if !isMultipart(r) {
		return http.MaxBytesReader(w, r.Body, maxImportBody), nil
	}
	if err := parseMultipart(w, r, maxImportBody); err != nil {
		return nil, err
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "csv file is required").WithField("file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable file").WithField("file")
	}
	return bytes.NewReader(data), nil
}

// parseSerialFilter reads the status and product_id query parameters.
func parseSerialFilter(r *http.Request) (models.SerialFilter, error) {
	var filter models.SerialFilter
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("product_id")); raw != "" {
		productID, err := id.ParseProductID(raw)
		if err != nil {
			return filter, err
		}
		filter.ProductID = &productID
	}
	return filter, nil
}
