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

// Student error types
var (
	ErrStudentNotFound = errors.New("student not found")
)

const studentColumns = `
	students.id, students.user_id, students.first_name, students.last_name,
	students.email, students.student_number, students.program,
	students.graduation_year, students.active,
	students.created_at, students.updated_at,
	(SELECT COALESCE(array_agg(skill_id ORDER BY skill_id), '{}') FROM student_skills WHERE student_id = students.id)`

// StudentRepository handles student database operations
type StudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var s models.Student
	err := row.Scan(
		&s.ID, &s.UserID, &s.FirstName, &s.LastName,
		&s.Email, &s.StudentNumber, &s.Program,
		&s.GraduationYear, &s.Active,
		&s.CreatedAt, &s.UpdatedAt, &s.SkillIDs,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a student visible through the scope predicate.
func (r *StudentRepository) GetByID(ctx context.Context, id int64, pred squirrel.Sqlizer) (*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns).
		From("students").
		Where(squirrel.Eq{"students.id": id, "students.active": true}).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	student, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("retrieving student %d: %w", id, err)
	}
	return student, nil
}

// GetByIDs retrieves the students with the given ids, without scope
// restriction. Used to validate membership lists on create.
func (r *StudentRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sql, args, err := r.sb.Select(studentColumns).
		From("students").
		Where(squirrel.Eq{"students.id": ids, "students.active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("retrieving students: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning student: %w", err)
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

// Count returns the number of scoped active students.
func (r *StudentRepository) Count(ctx context.Context, pred squirrel.Sqlizer) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("students").
		Where(squirrel.Eq{"students.active": true}).
		Where(pred).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting students: %w", err)
	}
	return count, nil
}
