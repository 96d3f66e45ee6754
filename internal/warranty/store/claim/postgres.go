package claim

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	"warranty/pkg/platform/sentinel"
	txcontext "warranty/pkg/platform/tx"
)

const claimColumns = `
	id, serial_number_id, complaint_title, complaint_date, issue_type,
	expected_resolution_date, description, customer_note, evidence_image_urls, created_at`

// PostgresStore persists claim requests in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, c *models.ClaimRecord) error {
	var expected sql.NullTime
	if c.ExpectedResolutionDate != nil {
		expected = sql.NullTime{Time: *c.ExpectedResolutionDate, Valid: true}
	}
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO claim_requests (`+claimColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(c.ID),
		uuid.UUID(c.SerialID),
		c.ComplaintTitle,
		c.ComplaintDate,
		string(c.IssueType),
		expected,
		c.Description,
		c.CustomerNote,
		pq.StringArray(c.EvidenceImageURLs),
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, claimID id.ClaimID) (*models.ClaimRecord, error) {
	row := txcontext.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claim_requests WHERE id = $1`, uuid.UUID(claimID))
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find claim by id: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.ClaimRecord, error) {
	return s.query(ctx, `SELECT `+claimColumns+` FROM claim_requests ORDER BY created_at DESC`)
}

func (s *PostgresStore) ListBySerialIDs(ctx context.Context, serialIDs []id.SerialID) ([]*models.ClaimRecord, error) {
	if len(serialIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(serialIDs))
	for i, sid := range serialIDs {
		ids[i] = sid.String()
	}
	return s.query(ctx,
		`SELECT `+claimColumns+` FROM claim_requests WHERE serial_number_id = ANY($1::uuid[]) ORDER BY created_at DESC`,
		pq.Array(ids))
}

func (s *PostgresStore) DeleteBySerial(ctx context.Context, serialID id.SerialID) error {
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx,
		`DELETE FROM claim_requests WHERE serial_number_id = $1`, uuid.UUID(serialID))
	if err != nil {
		return fmt.Errorf("delete claims by serial: %w", err)
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.ClaimRecord, error) {
	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var out []*models.ClaimRecord
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.ClaimRecord, error) {
	var (
		claimID, serialID uuid.UUID
		issueType         string
		expected          sql.NullTime
		description, note sql.NullString
		urls              pq.StringArray
		c                 models.ClaimRecord
	)
	if err := row.Scan(
		&claimID, &serialID, &c.ComplaintTitle, &c.ComplaintDate, &issueType,
		&expected, &description, &note, &urls, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.ID = id.ClaimID(claimID)
	c.SerialID = id.SerialID(serialID)
	c.IssueType = models.IssueType(issueType)
	if expected.Valid {
		t := expected.Time
		c.ExpectedResolutionDate = &t
	}
	c.Description = description.String
	c.CustomerNote = note.String
	c.EvidenceImageURLs = []string(urls)
	if c.EvidenceImageURLs == nil {
		c.EvidenceImageURLs = []string{}
	}
	return &c, nil
}
