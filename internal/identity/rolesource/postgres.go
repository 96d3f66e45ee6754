package rolesource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"warranty/internal/identity/models"
	id "warranty/pkg/domain"
	"warranty/pkg/requestcontext"
)

// PostgresStore reads role grants from the user_roles table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RoleOf(ctx context.Context, userID id.UserID) (models.Role, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1`,
		uuid.UUID(userID),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoleEndUser, nil
	}
	if err != nil {
		return "", fmt.Errorf("read role: %w", err)
	}
	return models.ParseRole(raw)
}

func (s *PostgresStore) Grant(ctx context.Context, userID id.UserID, role models.Role) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at`,
		uuid.UUID(userID), string(role), requestcontext.Now(ctx),
	)
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (s *PostgresStore) Revoke(ctx context.Context, userID id.UserID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, uuid.UUID(userID)); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}
