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
	"github.com/oussamael/internhub/internal/pkg/helpers"
)

// Task error types
var (
	ErrTaskNotFound = errors.New("task not found")
)

// TaskCounters is the scoped task summary for one reference instant.
type TaskCounters struct {
	Total     int64
	Completed int64
	Pending   int64
	Overdue   int64
	DueToday  int64
}

// OverdueTask is a sweep candidate with the supervisor user to notify.
type OverdueTask struct {
	TaskID           int64
	InternshipID     int64
	Name             string
	Deadline         time.Time
	SupervisorUserID *int64
}

// TaskRepository handles task database operations
type TaskRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (internship_id, name, description, state, priority, deadline, assignee_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		task.InternshipID, task.Name, task.Description, task.State,
		task.Priority, task.Deadline, task.AssigneeID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

// GetByID retrieves a task visible through the scope predicate.
func (r *TaskRepository) GetByID(ctx context.Context, id int64, pred squirrel.Sqlizer) (*models.Task, error) {
	sql, args, err := r.sb.Select(
		"tasks.id", "tasks.internship_id", "tasks.name", "tasks.description",
		"tasks.state", "tasks.priority", "tasks.deadline", "tasks.assignee_id",
		"tasks.is_overdue", "tasks.completed_at", "tasks.created_at", "tasks.updated_at").
		From("tasks").
		Where(squirrel.Eq{"tasks.id": id}).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var t models.Task
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&t.ID, &t.InternshipID, &t.Name, &t.Description,
		&t.State, &t.Priority, &t.Deadline, &t.AssigneeID,
		&t.IsOverdue, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("retrieving task %d: %w", id, err)
	}
	return &t, nil
}

// taskCountersQuery builds the single-statement counters query. Pending
// means tasks still in todo; in_progress tasks count toward neither
// completed nor pending.
func taskCountersQuery(pred squirrel.Sqlizer, now time.Time) (string, []interface{}, error) {
	dayStart, dayEnd := helpers.DayBounds(now)

	predSQL, predArgs, err := pred.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("building scope predicate: %w", err)
	}

	raw := `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE state = ?),
		COUNT(*) FILTER (WHERE state = ?),
		COUNT(*) FILTER (WHERE deadline IS NOT NULL AND deadline < ? AND state <> ?),
		COUNT(*) FILTER (WHERE deadline >= ? AND deadline < ? AND state <> ?)
		FROM tasks WHERE ` + predSQL
	query, err := squirrel.Dollar.ReplacePlaceholders(raw)
	if err != nil {
		return "", nil, fmt.Errorf("building counters query: %w", err)
	}

	args := append([]interface{}{
		models.TaskDone,
		models.TaskTodo,
		now, models.TaskDone,
		dayStart, dayEnd, models.TaskDone,
	}, predArgs...)
	return query, args, nil
}

// Counters computes all scoped task counters against a single instant so
// the dashboard is internally consistent.
func (r *TaskRepository) Counters(ctx context.Context, pred squirrel.Sqlizer, now time.Time) (TaskCounters, error) {
	query, args, err := taskCountersQuery(pred, now)
	if err != nil {
		return TaskCounters{}, err
	}

	var c TaskCounters
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&c.Total, &c.Completed, &c.Pending, &c.Overdue, &c.DueToday)
	if err != nil {
		return TaskCounters{}, fmt.Errorf("counting tasks: %w", err)
	}
	return c, nil
}

// CountDoneTotal returns the done and total task counts for one
// internship, the inputs of the completion percentage.
func (r *TaskRepository) CountDoneTotal(ctx context.Context, internshipID int64) (done, total int, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE state = $1), COUNT(*)
		FROM tasks WHERE internship_id = $2
	`, models.TaskDone, internshipID).Scan(&done, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("counting tasks of internship %d: %w", internshipID, err)
	}
	return done, total, nil
}

// MarkOverdueFlags recomputes the stored is_overdue flag on every task
// from its deadline and state. Running it twice against the same instant
// changes nothing the second time.
func (r *TaskRepository) MarkOverdueFlags(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE tasks
		SET is_overdue = (deadline IS NOT NULL AND deadline < $1 AND state <> $2),
			updated_at = NOW()
		WHERE is_overdue IS DISTINCT FROM (deadline IS NOT NULL AND deadline < $1 AND state <> $2)
	`, now, models.TaskDone)
	if err != nil {
		return 0, fmt.Errorf("marking overdue flags: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListOverdue finds the open tasks past their deadline, joined with the
// supervisor user responsible for the internship.
func (r *TaskRepository) ListOverdue(ctx context.Context, now time.Time) ([]OverdueTask, error) {
	query := `
		SELECT t.id, t.internship_id, t.name, t.deadline, s.user_id
		FROM tasks t
		JOIN internships i ON i.id = t.internship_id AND i.active = TRUE
		LEFT JOIN supervisors s ON s.id = i.supervisor_id
		WHERE t.deadline IS NOT NULL
			AND t.deadline < $1
			AND t.state <> $2
		ORDER BY t.deadline ASC
	`
	rows, err := r.db.Query(ctx, query, now, models.TaskDone)
	if err != nil {
		return nil, fmt.Errorf("querying overdue tasks: %w", err)
	}
	defer rows.Close()

	var overdue []OverdueTask
	for rows.Next() {
		var t OverdueTask
		if err := rows.Scan(&t.TaskID, &t.InternshipID, &t.Name, &t.Deadline, &t.SupervisorUserID); err != nil {
			return nil, fmt.Errorf("scanning overdue task: %w", err)
		}
		overdue = append(overdue, t)
	}
	return overdue, rows.Err()
}
