package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oussamael/internhub/internal/app/models"
)

// Supervisor error types
var (
	ErrSupervisorNotFound = errors.New("supervisor not found")
)

const supervisorColumns = `
	supervisors.id, supervisors.user_id, supervisors.first_name,
	supervisors.last_name, supervisors.email, supervisors.title,
	supervisors.capacity, supervisors.active,
	supervisors.created_at, supervisors.updated_at,
	(SELECT COALESCE(array_agg(area_id ORDER BY area_id), '{}') FROM supervisor_areas WHERE supervisor_id = supervisors.id)`

// SupervisorRepository handles supervisor database operations
type SupervisorRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSupervisorRepository creates a new SupervisorRepository
func NewSupervisorRepository(db *pgxpool.Pool) *SupervisorRepository {
	return &SupervisorRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanSupervisor(row pgx.Row) (*models.Supervisor, error) {
	var s models.Supervisor
	err := row.Scan(
		&s.ID, &s.UserID, &s.FirstName,
		&s.LastName, &s.Email, &s.Title,
		&s.Capacity, &s.Active,
		&s.CreatedAt, &s.UpdatedAt, &s.AreaIDs,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a supervisor visible through the scope predicate.
func (r *SupervisorRepository) GetByID(ctx context.Context, id int64, pred squirrel.Sqlizer) (*models.Supervisor, error) {
	sql, args, err := r.sb.Select(supervisorColumns).
		From("supervisors").
		Where(squirrel.Eq{"supervisors.id": id, "supervisors.active": true}).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	supervisor, err := scanSupervisor(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSupervisorNotFound
		}
		return nil, fmt.Errorf("retrieving supervisor %d: %w", id, err)
	}
	return supervisor, nil
}

// UserIDOf returns the user account id behind a supervisor profile.
func (r *SupervisorRepository) UserIDOf(ctx context.Context, supervisorID int64) (int64, error) {
	var userID int64
	err := r.db.QueryRow(ctx,
		"SELECT user_id FROM supervisors WHERE id = $1", supervisorID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrSupervisorNotFound
		}
		return 0, fmt.Errorf("resolving user of supervisor %d: %w", supervisorID, err)
	}
	return userID, nil
}

// ActiveInternshipCount returns how many approved or in_progress
// internships the supervisor currently carries.
func (r *SupervisorRepository) ActiveInternshipCount(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM internships
		WHERE supervisor_id = $1 AND active = TRUE AND state IN ($2, $3)
	`, id, models.StateApproved, models.StateInProgress).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting internships of supervisor %d: %w", id, err)
	}
	return count, nil
}

// Count returns the number of scoped active supervisors.
func (r *SupervisorRepository) Count(ctx context.Context, pred squirrel.Sqlizer) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("supervisors").
		Where(squirrel.Eq{"supervisors.active": true}).
		Where(pred).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting supervisors: %w", err)
	}
	return count, nil
}
