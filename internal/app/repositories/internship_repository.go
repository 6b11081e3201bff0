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
	"github.com/oussamael/internhub/internal/pkg/logger"
)

// Internship error types
var (
	ErrInternshipNotFound = errors.New("internship not found")
)

// SeriesRow is one ordered label/value row of an analytics query.
type SeriesRow struct {
	Label string
	Value float64
}

// StalledInternship is a sweep candidate: an in_progress record whose
// updated_at has not moved for longer than the configured threshold.
type StalledInternship struct {
	ID               int64
	Title            string
	SupervisorUserID *int64
	UpdatedAt        time.Time
}

// internshipColumns are the scanned columns, with the membership arrays
// folded in as subselects so a listing stays a single query.
const internshipColumns = `
	internships.id, internships.reference_number, internships.title,
	internships.type, internships.state, internships.description,
	internships.supervisor_id, internships.area_id,
	internships.start_date, internships.end_date,
	internships.defense_date, internships.defense_room,
	internships.defense_grade, internships.final_grade, internships.feedback,
	internships.completion_percentage, internships.active,
	internships.created_at, internships.updated_at,
	(SELECT COALESCE(array_agg(student_id ORDER BY student_id), '{}') FROM internship_students WHERE internship_id = internships.id),
	(SELECT COALESCE(array_agg(jury_user_id ORDER BY jury_user_id), '{}') FROM internship_jury WHERE internship_id = internships.id)`

// InternshipRepository handles internship database operations
type InternshipRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewInternshipRepository creates a new InternshipRepository
func NewInternshipRepository(db *pgxpool.Pool) *InternshipRepository {
	return &InternshipRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanInternship(row pgx.Row) (*models.Internship, error) {
	var i models.Internship
	err := row.Scan(
		&i.ID, &i.ReferenceNumber, &i.Title,
		&i.Type, &i.State, &i.Description,
		&i.SupervisorID, &i.AreaID,
		&i.StartDate, &i.EndDate,
		&i.DefenseDate, &i.DefenseRoom,
		&i.DefenseGrade, &i.FinalGrade, &i.Feedback,
		&i.CompletionPercentage, &i.Active,
		&i.CreatedAt, &i.UpdatedAt,
		&i.StudentIDs, &i.JuryIDs,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// Create inserts the internship and its student links in one transaction.
func (r *InternshipRepository) Create(ctx context.Context, internship *models.Internship) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO internships (reference_number, title, type, state, description,
			supervisor_id, area_id, start_date, end_date, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		internship.ReferenceNumber, internship.Title, internship.Type,
		internship.State, internship.Description,
		internship.SupervisorID, internship.AreaID,
		internship.StartDate, internship.EndDate,
	).Scan(&internship.ID, &internship.CreatedAt, &internship.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting internship: %w", err)
	}

	for _, studentID := range internship.StudentIDs {
		_, err = tx.Exec(ctx,
			"INSERT INTO internship_students (internship_id, student_id) VALUES ($1, $2)",
			internship.ID, studentID)
		if err != nil {
			return fmt.Errorf("linking student %d: %w", studentID, err)
		}
	}

	internship.Active = true
	return tx.Commit(ctx)
}

// GetByID retrieves an internship visible through the given scope
// predicate. A record hidden by the scope reads as not found.
func (r *InternshipRepository) GetByID(ctx context.Context, id int64, pred squirrel.Sqlizer) (*models.Internship, error) {
	sql, args, err := r.sb.Select(internshipColumns).
		From("internships").
		Where(squirrel.Eq{"internships.id": id, "internships.active": true}).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	internship, err := scanInternship(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInternshipNotFound
		}
		return nil, fmt.Errorf("retrieving internship %d: %w", id, err)
	}
	return internship, nil
}

// List retrieves a page of internships within the scope predicate, newest
// first, plus the total scoped count.
func (r *InternshipRepository) List(ctx context.Context, pred squirrel.Sqlizer, page, pageSize int) ([]*models.Internship, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").
		From("internships").
		Where(squirrel.Eq{"internships.active": true}).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building count query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting internships: %w", err)
	}

	sql, args, err := r.sb.Select(internshipColumns).
		From("internships").
		Where(squirrel.Eq{"internships.active": true}).
		Where(pred).
		OrderBy("internships.created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing internships: %w", err)
	}
	defer rows.Close()

	var internships []*models.Internship
	for rows.Next() {
		internship, err := scanInternship(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning internship: %w", err)
		}
		internships = append(internships, internship)
	}
	return internships, total, rows.Err()
}

// Exists reports whether an active internship row exists at all,
// regardless of scope. Used to distinguish not-found from a lost CAS.
func (r *InternshipRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM internships WHERE id = $1 AND active = TRUE)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking internship %d: %w", id, err)
	}
	return exists, nil
}

// UpdateFields applies a descriptive update to a scoped internship.
func (r *InternshipRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}, pred squirrel.Sqlizer) error {
	if len(fields) == 0 {
		return nil
	}
	builder := r.sb.Update("internships").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "active": true}).
		Where(pred)
	for column, value := range fields {
		builder = builder.Set(column, value)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("updating internship %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInternshipNotFound
	}
	return nil
}

// UpdateStateCAS performs the compare-and-swap state transition: the
// update only lands if the row is still in fromState. extra columns (the
// transition payload) and the jury replacement ride the same transaction,
// so a transition that passed its guards commits whole or not at all.
// Returns false with no error when the CAS found the row in another state.
func (r *InternshipRepository) UpdateStateCAS(ctx context.Context, id int64, fromState, toState models.InternshipState, extra map[string]interface{}, juryUserIDs []int64) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	builder := r.sb.Update("internships").
		Set("state", toState).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "state": fromState, "active": true})
	for column, value := range extra {
		builder = builder.Set(column, value)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("building CAS update: %w", err)
	}
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("updating internship %d state: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		// lost the race or wrong source state; caller decides which
		return false, nil
	}

	if juryUserIDs != nil {
		if _, err := tx.Exec(ctx, "DELETE FROM internship_jury WHERE internship_id = $1", id); err != nil {
			return false, fmt.Errorf("clearing jury for internship %d: %w", id, err)
		}
		for _, userID := range juryUserIDs {
			if _, err := tx.Exec(ctx,
				"INSERT INTO internship_jury (internship_id, jury_user_id) VALUES ($1, $2)",
				id, userID); err != nil {
				return false, fmt.Errorf("adding jury member %d: %w", userID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing transition for internship %d: %w", id, err)
	}
	return true, nil
}

// UpdateCompletion stores a freshly derived completion percentage.
func (r *InternshipRepository) UpdateCompletion(ctx context.Context, id int64, percentage float64) error {
	_, err := r.db.Exec(ctx,
		"UPDATE internships SET completion_percentage = $1 WHERE id = $2", percentage, id)
	if err != nil {
		return fmt.Errorf("updating completion of internship %d: %w", id, err)
	}
	return nil
}

// HasChildren reports whether any task, document, presentation or meeting
// references the internship.
func (r *InternshipRepository) HasChildren(ctx context.Context, id int64) (bool, error) {
	var has bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tasks WHERE internship_id = $1)
			OR EXISTS (SELECT 1 FROM documents WHERE internship_id = $1)
			OR EXISTS (SELECT 1 FROM presentations WHERE internship_id = $1)
			OR EXISTS (SELECT 1 FROM meetings WHERE internship_id = $1)
	`, id).Scan(&has)
	if err != nil {
		return false, fmt.Errorf("checking children of internship %d: %w", id, err)
	}
	return has, nil
}

// Deactivate soft-deletes an internship that has dependent records.
func (r *InternshipRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE internships SET active = FALSE, updated_at = NOW() WHERE id = $1 AND active = TRUE", id)
	if err != nil {
		return fmt.Errorf("deactivating internship %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInternshipNotFound
	}
	return nil
}

// Delete hard-deletes an internship without dependent records.
func (r *InternshipRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM internship_students WHERE internship_id = $1", id); err != nil {
		return fmt.Errorf("deleting student links of internship %d: %w", id, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM internship_jury WHERE internship_id = $1", id); err != nil {
		return fmt.Errorf("deleting jury links of internship %d: %w", id, err)
	}
	tag, err := tx.Exec(ctx, "DELETE FROM internships WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting internship %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInternshipNotFound
	}
	return tx.Commit(ctx)
}

// CountByState partitions the scoped internships by lifecycle state.
// States with no rows are absent from the map; callers zero-fill.
func (r *InternshipRepository) CountByState(ctx context.Context, pred squirrel.Sqlizer) (map[models.InternshipState]int64, int64, error) {
	sql, args, err := r.sb.Select("state", "COUNT(*)").
		From("internships").
		Where(squirrel.Eq{"internships.active": true}).
		Where(pred).
		GroupBy("state").
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building count query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("counting internships by state: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.InternshipState]int64)
	var total int64
	for rows.Next() {
		var state models.InternshipState
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, 0, fmt.Errorf("scanning state count: %w", err)
		}
		counts[state] = count
		total += count
	}
	return counts, total, rows.Err()
}

// MonthlyTrend returns internship creations per month over the last
// `months` months, oldest first. Empty months are skipped by the query;
// the service zero-fills to keep label order stable.
func (r *InternshipRepository) MonthlyTrend(ctx context.Context, pred squirrel.Sqlizer, months int, now time.Time) ([]SeriesRow, error) {
	since := now.AddDate(0, -months, 0)
	sql, args, err := r.sb.Select(
		"to_char(date_trunc('month', created_at), 'YYYY-MM') AS month",
		"COUNT(*)").
		From("internships").
		Where(squirrel.Eq{"internships.active": true}).
		Where(squirrel.GtOrEq{"internships.created_at": since}).
		Where(pred).
		GroupBy("month").
		OrderBy("month ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building trend query: %w", err)
	}
	return r.querySeries(ctx, sql, args)
}

// GradeHistogram buckets evaluated final grades into width-2 bins over
// the 0..20 scale.
func (r *InternshipRepository) GradeHistogram(ctx context.Context, pred squirrel.Sqlizer) ([]SeriesRow, error) {
	sql, args, err := r.sb.Select(
		"(floor(final_grade / 2) * 2)::int AS bucket",
		"COUNT(*)").
		From("internships").
		Where(squirrel.Eq{"internships.state": models.StateEvaluated, "internships.active": true}).
		Where(squirrel.NotEq{"internships.final_grade": nil}).
		Where(pred).
		GroupBy("bucket").
		OrderBy("bucket ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building histogram query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying grade histogram: %w", err)
	}
	defer rows.Close()

	var series []SeriesRow
	for rows.Next() {
		var bucket int
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("scanning histogram row: %w", err)
		}
		series = append(series, SeriesRow{
			Label: fmt.Sprintf("%d-%d", bucket, bucket+2),
			Value: float64(count),
		})
	}
	return series, rows.Err()
}

// SupervisorUtilization ranks supervisors by active internships over
// capacity, busiest first.
func (r *InternshipRepository) SupervisorUtilization(ctx context.Context, limit int) ([]SeriesRow, error) {
	if limit < 1 {
		limit = 10
	}
	query := `
		SELECT s.first_name || ' ' || s.last_name AS name,
			COUNT(i.id)::float / NULLIF(s.capacity, 0) AS utilization
		FROM supervisors s
		LEFT JOIN internships i ON i.supervisor_id = s.id
			AND i.active = TRUE
			AND i.state IN ($1, $2)
		WHERE s.active = TRUE
		GROUP BY s.id, s.first_name, s.last_name, s.capacity
		ORDER BY utilization DESC NULLS LAST, name ASC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, models.StateApproved, models.StateInProgress, limit)
	if err != nil {
		return nil, fmt.Errorf("querying supervisor utilization: %w", err)
	}
	defer rows.Close()

	var series []SeriesRow
	for rows.Next() {
		var name string
		var utilization *float64
		if err := rows.Scan(&name, &utilization); err != nil {
			return nil, fmt.Errorf("scanning utilization row: %w", err)
		}
		value := 0.0
		if utilization != nil {
			value = *utilization
		}
		series = append(series, SeriesRow{Label: name, Value: value})
	}
	return series, rows.Err()
}

// AreaPerformance returns the average final grade of evaluated
// internships per area, best first.
func (r *InternshipRepository) AreaPerformance(ctx context.Context, pred squirrel.Sqlizer) ([]SeriesRow, error) {
	builder := r.sb.Select(
		"areas.name",
		"AVG(internships.final_grade)").
		From("internships").
		Join("areas ON areas.id = internships.area_id").
		Where(squirrel.Eq{"internships.state": models.StateEvaluated, "internships.active": true}).
		Where(squirrel.NotEq{"internships.final_grade": nil}).
		Where(pred).
		GroupBy("areas.name").
		OrderBy("AVG(internships.final_grade) DESC")

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building area performance query: %w", err)
	}
	return r.querySeries(ctx, sql, args)
}

// CompletionSeries returns title/completion pairs for the scoped active
// internships, oldest first. Feeds the personal progress chart.
func (r *InternshipRepository) CompletionSeries(ctx context.Context, pred squirrel.Sqlizer) ([]SeriesRow, error) {
	sql, args, err := r.sb.Select("internships.title", "internships.completion_percentage").
		From("internships").
		Where(squirrel.Eq{"internships.active": true}).
		Where(pred).
		OrderBy("internships.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building completion series query: %w", err)
	}
	return r.querySeries(ctx, sql, args)
}

// ListStalled finds sweep candidates: active in_progress internships not
// touched since the cutoff, with the supervisor's user id for the
// obligation.
func (r *InternshipRepository) ListStalled(ctx context.Context, cutoff time.Time) ([]StalledInternship, error) {
	query := `
		SELECT i.id, i.title, s.user_id, i.updated_at
		FROM internships i
		LEFT JOIN supervisors s ON s.id = i.supervisor_id
		WHERE i.active = TRUE
			AND i.state = $1
			AND i.updated_at < $2
		ORDER BY i.updated_at ASC
	`
	rows, err := r.db.Query(ctx, query, models.StateInProgress, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying stalled internships: %w", err)
	}
	defer rows.Close()

	var stalled []StalledInternship
	for rows.Next() {
		var s StalledInternship
		if err := rows.Scan(&s.ID, &s.Title, &s.SupervisorUserID, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning stalled internship: %w", err)
		}
		stalled = append(stalled, s)
	}
	return stalled, rows.Err()
}

func (r *InternshipRepository) querySeries(ctx context.Context, sql string, args []interface{}) ([]SeriesRow, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying series: %w", err)
	}
	defer rows.Close()

	var series []SeriesRow
	for rows.Next() {
		var row SeriesRow
		if err := rows.Scan(&row.Label, &row.Value); err != nil {
			logger.Warn().Err(err).Msg("Failed to scan series row")
			return nil, fmt.Errorf("scanning series row: %w", err)
		}
		series = append(series, row)
	}
	return series, rows.Err()
}
