package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oussamael/internhub/internal/app/models"
)

// Meeting error types
var (
	ErrMeetingNotFound = errors.New("meeting not found")
)

// MeetingCounters is the scoped meeting summary for one reference instant.
type MeetingCounters struct {
	Total    int64
	Upcoming int64
}

// MeetingRepository handles meeting database operations
type MeetingRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewMeetingRepository creates a new MeetingRepository
func NewMeetingRepository(db *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a meeting and its participant links in one transaction.
func (r *MeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO meetings (internship_id, subject, organizer_id, scheduled_at, state)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		meeting.InternshipID, meeting.Subject, meeting.OrganizerID,
		meeting.ScheduledAt, meeting.State,
	).Scan(&meeting.ID, &meeting.CreatedAt, &meeting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting meeting: %w", err)
	}

	for _, userID := range meeting.ParticipantIDs {
		_, err = tx.Exec(ctx,
			"INSERT INTO meeting_participants (meeting_id, user_id) VALUES ($1, $2)",
			meeting.ID, userID)
		if err != nil {
			return fmt.Errorf("linking participant %d: %w", userID, err)
		}
	}
	return tx.Commit(ctx)
}

// GetByID retrieves a meeting visible through the scope predicate.
func (r *MeetingRepository) GetByID(ctx context.Context, id int64, pred squirrel.Sqlizer) (*models.Meeting, error) {
	sql, args, err := r.sb.Select(
		"meetings.id", "meetings.internship_id", "meetings.subject",
		"meetings.organizer_id", "meetings.scheduled_at", "meetings.state",
		"meetings.created_at", "meetings.updated_at",
		"(SELECT COALESCE(array_agg(user_id ORDER BY user_id), '{}') FROM meeting_participants WHERE meeting_id = meetings.id)").
		From("meetings").
		Where(squirrel.Eq{"meetings.id": id}).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var m models.Meeting
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&m.ID, &m.InternshipID, &m.Subject,
		&m.OrganizerID, &m.ScheduledAt, &m.State,
		&m.CreatedAt, &m.UpdatedAt, &m.ParticipantIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("retrieving meeting %d: %w", id, err)
	}
	return &m, nil
}

// Counters computes total and upcoming scoped meeting counts against a
// single instant.
func (r *MeetingRepository) Counters(ctx context.Context, pred squirrel.Sqlizer, now time.Time) (MeetingCounters, error) {
	predSQL, predArgs, err := pred.ToSql()
	if err != nil {
		return MeetingCounters{}, fmt.Errorf("building scope predicate: %w", err)
	}

	raw := `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE scheduled_at > ? AND state NOT IN (?, ?))
		FROM meetings WHERE ` + predSQL
	query, err := squirrel.Dollar.ReplacePlaceholders(raw)
	if err != nil {
		return MeetingCounters{}, fmt.Errorf("building counters query: %w", err)
	}

	args := append([]interface{}{now, models.MeetingCompleted, models.MeetingCancelled}, predArgs...)

	var c MeetingCounters
	if err := r.db.QueryRow(ctx, query, args...).Scan(&c.Total, &c.Upcoming); err != nil {
		return MeetingCounters{}, fmt.Errorf("counting meetings: %w", err)
	}
	return c, nil
}
