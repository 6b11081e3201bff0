package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/pkg/apperrors"
)

// Provider answers who a user is for scope resolution: their role and the
// profile record backing it, if any.
type Provider interface {
	RoleOf(ctx context.Context, userID int64) (models.Role, error)
	SupervisorRecordOf(ctx context.Context, userID int64) (supervisorID int64, found bool, err error)
	StudentRecordOf(ctx context.Context, userID int64) (studentID int64, found bool, err error)
}

// PostgresProvider reads identity from the users/supervisors/students
// tables.
type PostgresProvider struct {
	db *pgxpool.Pool
}

// NewPostgresProvider creates an identity provider over the given pool.
func NewPostgresProvider(db *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{db: db}
}

// RoleOf returns the role stored on the user row.
func (p *PostgresProvider) RoleOf(ctx context.Context, userID int64) (models.Role, error) {
	var role models.Role
	err := p.db.QueryRow(ctx,
		"SELECT role FROM users WHERE id = $1 AND is_active = TRUE", userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrUserNotFound
		}
		return "", fmt.Errorf("querying role of user %d: %w", userID, err)
	}
	return role, nil
}

// SupervisorRecordOf returns the supervisor profile id linked to the user.
func (p *PostgresProvider) SupervisorRecordOf(ctx context.Context, userID int64) (int64, bool, error) {
	var id int64
	err := p.db.QueryRow(ctx,
		"SELECT id FROM supervisors WHERE user_id = $1 AND active = TRUE", userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("querying supervisor record of user %d: %w", userID, err)
	}
	return id, true, nil
}

// StudentRecordOf returns the student profile id linked to the user.
func (p *PostgresProvider) StudentRecordOf(ctx context.Context, userID int64) (int64, bool, error) {
	var id int64
	err := p.db.QueryRow(ctx,
		"SELECT id FROM students WHERE user_id = $1 AND active = TRUE", userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("querying student record of user %d: %w", userID, err)
	}
	return id, true, nil
}
