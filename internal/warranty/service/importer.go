package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"warranty/internal/warranty/metrics"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/audit"
	"warranty/pkg/requestcontext"
)

const (
	ImportResultCreated = "created"
	maxImportRows       = 10000
)

// ImportRow is the outcome for one input line.
type ImportRow struct {
	Line         int    `json:"line"`
	ProductID    string `json:"product_id"`
	SerialNumber string `json:"serial_number"`
	Result       string `json:"result"`
	SerialID     string `json:"serial_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ImportReport lists every row in input order.
type ImportReport struct {
	Rows    []ImportRow `json:"rows"`
	Created int         `json:"created"`
	Failed  int         `json:"failed"`
}

// Importer creates serials from a two-column productId,serialNo CSV. Rows
// fail individually; a duplicate never aborts the batch.
type Importer struct {
	registry     *Registry
	workers      int
	logger       *slog.Logger
	metrics      *metrics.Metrics
	auditEmitter *auditEmitter
}

func NewImporter(registry *Registry, opts ...Option) *Importer {
	cfg := newConfig(opts)
	return &Importer{
		registry:     registry,
		workers:      cfg.importWorkers,
		logger:       cfg.logger,
		metrics:      cfg.metrics,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
	}
}

type importLine struct {
	line   int
	fields []string
}

// Import reads every record from r and creates one serial per row.
// A malformed CSV stream fails the whole call before any row is created.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*ImportReport, error) {
	lines, err := readImportLines(r)
	if err != nil {
		return nil, err
	}

	rows := make([]ImportRow, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)
	for i, ln := range lines {
		g.Go(func() error {
			rows[i] = im.importOne(gctx, ln)
			return nil
		})
	}
	_ = g.Wait()

	report := &ImportReport{Rows: rows}
	for _, row := range rows {
		im.metrics.IncImportRow(row.Result)
		if row.Result == ImportResultCreated {
			report.Created++
		} else {
			report.Failed++
		}
	}

	im.logger.InfoContext(ctx, "serial import finished",
		"rows", len(rows),
		"created", report.Created,
		"failed", report.Failed,
		"request_id", requestcontext.RequestID(ctx),
	)
	_ = im.auditEmitter.emit(ctx, auditRecord{
		action:   audit.EventSerialImported,
		userID:   requestcontext.UserID(ctx),
		subject:  "bulk",
		decision: fmt.Sprintf("created=%d failed=%d", report.Created, report.Failed),
	})
	return report, nil
}

func (im *Importer) importOne(ctx context.Context, ln importLine) ImportRow {
	row := ImportRow{Line: ln.line}
	if len(ln.fields) < 2 {
		row.Result = string(dErrors.CodeInvalidInput)
		row.Error = "expected productId,serialNo"
		return row
	}
	row.ProductID = cleanCell(ln.fields[0])
	row.SerialNumber = cleanCell(ln.fields[1])

	productID, err := id.ParseProductID(row.ProductID)
	if err != nil {
		row.Result = string(dErrors.CodeInvalidInput)
		row.Error = "invalid product id"
		return row
	}
	rec, err := im.registry.Create(ctx, productID, row.SerialNumber)
	if err != nil {
		row.Result = string(dErrors.CodeOf(err))
		if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
			row.Error = de.Message
		} else {
			row.Error = "internal error"
		}
		return row
	}
	row.Result = ImportResultCreated
	row.SerialID = rec.ID.String()
	return row
}

func readImportLines(r io.Reader) ([]importLine, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var out []importLine
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed csv").WithField("file")
		}
		line, _ := cr.FieldPos(0)
		if len(out) == 0 && isImportHeader(rec) {
			continue
		}
		if isBlank(rec) {
			continue
		}
		out = append(out, importLine{line: line, fields: rec})
		if len(out) > maxImportRows {
			return nil, dErrors.Newf(dErrors.CodeValidation, "import is limited to %d rows", maxImportRows).WithField("file")
		}
	}
	if len(out) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no rows to import").WithField("file")
	}
	return out, nil
}

func isImportHeader(rec []string) bool {
	if len(rec) < 2 {
		return false
	}
	first := strings.ToLower(cleanCell(rec[0]))
	second := strings.ToLower(cleanCell(rec[1]))
	return (first == "productid" || first == "product_id") &&
		(second == "serialno" || second == "serial_no" || second == "serial_number")
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if cleanCell(f) != "" {
			return false
		}
	}
	return true
}

// cleanCell strips whitespace and stray quotes left by spreadsheet exports.
func cleanCell(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
