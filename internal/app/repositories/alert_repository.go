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

// Alert error types
var (
	ErrAlertNotFound = errors.New("alert not found")
)

// AlertRepository handles follow-up obligation database operations
type AlertRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAlertRepository creates a new AlertRepository
func NewAlertRepository(db *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new open alert.
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO alerts (internship_id, task_id, type, state, user_id, title, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, alert.InternshipID, alert.TaskID, alert.Type, models.AlertOpen,
		alert.UserID, alert.Title, alert.Message,
	).Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}
	alert.State = models.AlertOpen
	return nil
}

// HasOpenAlert reports whether an unresolved alert of the given type
// already targets the record. taskID narrows the check to one task when
// non-nil. This is the sweep's dedup guard.
func (r *AlertRepository) HasOpenAlert(ctx context.Context, internshipID int64, taskID *int64, alertType models.AlertType) (bool, error) {
	where := squirrel.And{
		squirrel.Eq{"internship_id": internshipID, "type": alertType},
		squirrel.Eq{"state": []models.AlertState{models.AlertOpen, models.AlertAcknowledged}},
	}
	if taskID != nil {
		where = append(where, squirrel.Eq{"task_id": *taskID})
	}

	query, queryArgs, err := r.sb.Select("1").
		From("alerts").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building dedup query: %w", err)
	}

	var one int
	err = r.db.QueryRow(ctx, query, queryArgs...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("checking open alert for internship %d: %w", internshipID, err)
	}
	return true, nil
}

// GetByID retrieves an alert.
func (r *AlertRepository) GetByID(ctx context.Context, id int64) (*models.Alert, error) {
	var a models.Alert
	err := r.db.QueryRow(ctx, `
		SELECT id, internship_id, task_id, type, state, user_id, title, message, created_at, resolved_at
		FROM alerts WHERE id = $1
	`, id).Scan(
		&a.ID, &a.InternshipID, &a.TaskID, &a.Type, &a.State,
		&a.UserID, &a.Title, &a.Message, &a.CreatedAt, &a.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("retrieving alert %d: %w", id, err)
	}
	return &a, nil
}

// ListOpenForUser lists a user's unresolved alerts, newest first.
func (r *AlertRepository) ListOpenForUser(ctx context.Context, userID int64) ([]*models.Alert, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, internship_id, task_id, type, state, user_id, title, message, created_at, resolved_at
		FROM alerts
		WHERE user_id = $1 AND state IN ($2, $3)
		ORDER BY created_at DESC
	`, userID, models.AlertOpen, models.AlertAcknowledged)
	if err != nil {
		return nil, fmt.Errorf("listing alerts of user %d: %w", userID, err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(
			&a.ID, &a.InternshipID, &a.TaskID, &a.Type, &a.State,
			&a.UserID, &a.Title, &a.Message, &a.CreatedAt, &a.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

// CountOpenForUser returns the number of unresolved alerts for a user.
func (r *AlertRepository) CountOpenForUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM alerts WHERE user_id = $1 AND state IN ($2, $3)
	`, userID, models.AlertOpen, models.AlertAcknowledged).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting alerts of user %d: %w", userID, err)
	}
	return count, nil
}

// Acknowledge marks an open alert as seen by its recipient.
func (r *AlertRepository) Acknowledge(ctx context.Context, id, userID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE alerts SET state = $1 WHERE id = $2 AND user_id = $3 AND state = $4
	`, models.AlertAcknowledged, id, userID, models.AlertOpen)
	if err != nil {
		return fmt.Errorf("acknowledging alert %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// Resolve closes an alert for its recipient.
func (r *AlertRepository) Resolve(ctx context.Context, id, userID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE alerts SET state = $1, resolved_at = NOW()
		WHERE id = $2 AND user_id = $3 AND state IN ($4, $5)
	`, models.AlertResolved, id, userID, models.AlertOpen, models.AlertAcknowledged)
	if err != nil {
		return fmt.Errorf("resolving alert %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}
