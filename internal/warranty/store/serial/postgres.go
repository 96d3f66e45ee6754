package serial

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	"warranty/pkg/platform/sentinel"
	txcontext "warranty/pkg/platform/tx"
)

const uniqueViolation = "23505"

const serialColumns = `
	id, product_id, serial_number, status, owner_id,
	customer_name, customer_email, customer_phone,
	registration_date, purchase_date, purchase_source, purchase_receipt_url,
	claim_request_id, created_at, updated_at`

// PostgresStore persists serial numbers in PostgreSQL. Statements run on the
// transaction carried by ctx when present.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.SerialRecord) error {
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO serial_numbers (id, product_id, serial_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(rec.ID),
		uuid.UUID(rec.ProductID),
		rec.SerialNumber,
		string(rec.Status),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("serial number %q: %w", rec.SerialNumber, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert serial: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, serialID id.SerialID) (*models.SerialRecord, error) {
	row := txcontext.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+serialColumns+` FROM serial_numbers WHERE id = $1`, uuid.UUID(serialID))
	rec, err := scanSerial(row)
	if err != nil {
		return nil, wrapScanErr(err, "find serial by id")
	}
	return rec, nil
}

func (s *PostgresStore) FindBySerialNumber(ctx context.Context, code string) (*models.SerialRecord, error) {
	row := txcontext.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+serialColumns+` FROM serial_numbers WHERE serial_number = $1`, code)
	rec, err := scanSerial(row)
	if err != nil {
		return nil, wrapScanErr(err, "find serial by code")
	}
	return rec, nil
}

// Transition performs the status compare-and-swap in a single UPDATE. Nil
// change fields keep their stored value through COALESCE. When no row
// matches, a follow-up read tells a missing serial from a lost race.
func (s *PostgresStore) Transition(ctx context.Context, serialID id.SerialID, from []models.Status, to models.Status, c models.SerialChanges, now time.Time) (*models.SerialRecord, error) {
	q := txcontext.Pick(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		UPDATE serial_numbers SET
			status               = $3,
			owner_id             = COALESCE($4, owner_id),
			customer_name        = COALESCE($5, customer_name),
			customer_email       = COALESCE($6, customer_email),
			customer_phone       = COALESCE($7, customer_phone),
			registration_date    = COALESCE($8, registration_date),
			purchase_date        = COALESCE($9, purchase_date),
			purchase_source      = COALESCE($10, purchase_source),
			purchase_receipt_url = COALESCE($11, purchase_receipt_url),
			claim_request_id     = COALESCE($12, claim_request_id),
			updated_at           = $13
		WHERE id = $1 AND status = ANY($2)
		RETURNING `+serialColumns,
		uuid.UUID(serialID),
		pq.Array(statusStrings(from)),
		string(to),
		nullUUID(c.OwnerID),
		nullString(c.CustomerName),
		nullString(c.CustomerEmail),
		nullString(c.CustomerPhone),
		nullTime(c.RegistrationDate),
		nullTime(c.PurchaseDate),
		nullString(c.PurchaseSource),
		nullString(c.PurchaseReceiptURL),
		nullClaimUUID(c.ClaimRequestID),
		now,
	)
	rec, err := scanSerial(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transition serial: %w", err)
	}

	var current string
	err = q.QueryRowContext(ctx, `SELECT status FROM serial_numbers WHERE id = $1`, uuid.UUID(serialID)).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read serial status: %w", err)
	}
	return nil, fmt.Errorf("serial %s is %s: %w", serialID, current, sentinel.ErrInvalidState)
}

func (s *PostgresStore) List(ctx context.Context, filter models.SerialFilter) ([]*models.SerialRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ProductID != nil {
		args = append(args, uuid.UUID(*filter.ProductID))
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if filter.OwnerID != nil {
		args = append(args, uuid.UUID(*filter.OwnerID))
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	query := `SELECT ` + serialColumns + ` FROM serial_numbers`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, serial_number`

	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list serials: %w", err)
	}
	defer rows.Close()

	var out []*models.SerialRecord
	for rows.Next() {
		rec, err := scanSerial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan serial: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate serials: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, serialID id.SerialID, allowed []models.Status) error {
	q := txcontext.Pick(ctx, s.db)
	res, err := q.ExecContext(ctx,
		`DELETE FROM serial_numbers WHERE id = $1 AND status = ANY($2)`,
		uuid.UUID(serialID), pq.Array(statusStrings(allowed)))
	if err != nil {
		return fmt.Errorf("delete serial: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete serial rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var current string
	err = q.QueryRowContext(ctx, `SELECT status FROM serial_numbers WHERE id = $1`, uuid.UUID(serialID)).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read serial status: %w", err)
	}
	return fmt.Errorf("serial %s is %s: %w", serialID, current, sentinel.ErrInvalidState)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSerial(row rowScanner) (*models.SerialRecord, error) {
	var (
		serialID, productID              uuid.UUID
		owner, claimRef                  uuid.NullUUID
		status                           string
		name, email, phone, source, rURL sql.NullString
		registered, purchased            sql.NullTime
		rec                              models.SerialRecord
	)
	err := row.Scan(
		&serialID, &productID, &rec.SerialNumber, &status, &owner,
		&name, &email, &phone,
		&registered, &purchased, &source, &rURL,
		&claimRef, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.ID = id.SerialID(serialID)
	rec.ProductID = id.ProductID(productID)
	rec.Status = models.Status(status)
	if owner.Valid {
		v := id.UserID(owner.UUID)
		rec.OwnerID = &v
	}
	if claimRef.Valid {
		v := id.ClaimID(claimRef.UUID)
		rec.ClaimRequestID = &v
	}
	rec.CustomerName = name.String
	rec.CustomerEmail = email.String
	rec.CustomerPhone = phone.String
	rec.PurchaseSource = source.String
	rec.PurchaseReceiptURL = rURL.String
	if registered.Valid {
		v := registered.Time
		rec.RegistrationDate = &v
	}
	if purchased.Valid {
		v := purchased.Time
		rec.PurchaseDate = &v
	}
	return &rec, nil
}

func wrapScanErr(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func statusStrings(statuses []models.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullUUID(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}

func nullClaimUUID(c *id.ClaimID) uuid.NullUUID {
	if c == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*c), Valid: true}
}
