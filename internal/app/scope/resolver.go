package scope

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/identity"
	"github.com/oussamael/internhub/internal/pkg/apperrors"
)

// MatchNone is a predicate no row satisfies. Scopes fall back to it
// whenever a role cannot be tied to a profile record, so a broken account
// sees nothing rather than everything.
var MatchNone squirrel.Sqlizer = squirrel.Expr("1 = 0")

// MatchAll is the empty conjunction; it renders as the tautology (1=1),
// so repositories can AND it in or inline it after WHERE with no effect.
var MatchAll squirrel.Sqlizer = squirrel.Eq{}

// Scope carries the caller's role and the predicates restricting each
// entity. Predicates are squirrel fragments the repositories AND into
// their WHERE clauses.
type Scope struct {
	UserID int64
	Role   models.Role

	// profile record backing the role, when one exists
	SupervisorID int64
	StudentID    int64

	internships   squirrel.Sqlizer
	students      squirrel.Sqlizer
	supervisors   squirrel.Sqlizer
	tasks         squirrel.Sqlizer
	documents     squirrel.Sqlizer
	presentations squirrel.Sqlizer
	meetings      squirrel.Sqlizer
}

// Internships returns the predicate over the internships table.
func (s *Scope) Internships() squirrel.Sqlizer { return s.internships }

// Students returns the predicate over the students table.
func (s *Scope) Students() squirrel.Sqlizer { return s.students }

// Supervisors returns the predicate over the supervisors table.
func (s *Scope) Supervisors() squirrel.Sqlizer { return s.supervisors }

// Tasks returns the predicate over the tasks table.
func (s *Scope) Tasks() squirrel.Sqlizer { return s.tasks }

// Documents returns the predicate over the documents table.
func (s *Scope) Documents() squirrel.Sqlizer { return s.documents }

// Presentations returns the predicate over the presentations table.
func (s *Scope) Presentations() squirrel.Sqlizer { return s.presentations }

// Meetings returns the predicate over the meetings table.
func (s *Scope) Meetings() squirrel.Sqlizer { return s.meetings }

// Unrestricted reports whether the scope applies no row filters.
func (s *Scope) Unrestricted() bool { return s.Role.Unrestricted() }

// Resolver builds a Scope for a user from the identity provider. Scopes
// are resolved per call and never cached; a role change is visible on the
// next request.
type Resolver struct {
	identity identity.Provider
}

// NewResolver creates a scope resolver backed by the given identity provider.
func NewResolver(provider identity.Provider) *Resolver {
	return &Resolver{identity: provider}
}

// Resolve determines the caller's role and derives entity predicates.
// Unknown users and unknown roles resolve to an error, and a role whose
// backing profile record is missing resolves to match-nothing predicates.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (*Scope, error) {
	role, err := r.identity.RoleOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving role for user %d: %w", userID, err)
	}
	if !models.ValidRole(role) {
		return nil, apperrors.NewCustomError(apperrors.ErrScopeDenied,
			fmt.Sprintf("unknown role %q for user %d", role, userID))
	}

	s := &Scope{UserID: userID, Role: role}

	switch role {
	case models.RoleAdmin, models.RoleCoordinator:
		s.internships = MatchAll
		s.students = MatchAll
		s.supervisors = MatchAll
		s.tasks = MatchAll
		s.documents = MatchAll
		s.presentations = MatchAll
		s.meetings = MatchAll

	case models.RoleSupervisor:
		supervisorID, found, err := r.identity.SupervisorRecordOf(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("resolving supervisor record for user %d: %w", userID, err)
		}
		if !found {
			denyAll(s)
			return s, nil
		}
		s.SupervisorID = supervisorID
		s.internships = squirrel.Eq{"internships.supervisor_id": supervisorID}
		s.students = squirrel.Expr(
			"students.id IN (SELECT student_id FROM internship_students WHERE internship_id IN "+
				"(SELECT id FROM internships WHERE supervisor_id = ?))", supervisorID)
		s.supervisors = squirrel.Eq{"supervisors.id": supervisorID}
		s.tasks = scopedByInternship("tasks", squirrel.Expr("supervisor_id = ?", supervisorID))
		s.documents = scopedByInternship("documents", squirrel.Expr("supervisor_id = ?", supervisorID))
		s.presentations = scopedByInternship("presentations", squirrel.Expr("supervisor_id = ?", supervisorID))
		// organizer or invited participant, never the whole calendar
		s.meetings = squirrel.Or{
			squirrel.Eq{"meetings.organizer_id": userID},
			squirrel.Expr("meetings.id IN (SELECT meeting_id FROM meeting_participants WHERE user_id = ?)", userID),
		}

	case models.RoleStudent:
		studentID, found, err := r.identity.StudentRecordOf(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("resolving student record for user %d: %w", userID, err)
		}
		if !found {
			denyAll(s)
			return s, nil
		}
		s.StudentID = studentID
		membership := squirrel.Expr(
			"internships.id IN (SELECT internship_id FROM internship_students WHERE student_id = ?)", studentID)
		s.internships = membership
		s.students = squirrel.Eq{"students.id": studentID}
		s.supervisors = squirrel.Expr(
			"supervisors.id IN (SELECT supervisor_id FROM internships WHERE id IN "+
				"(SELECT internship_id FROM internship_students WHERE student_id = ?))", studentID)
		// a student sees only tasks assigned to them, not every task of
		// their internships
		s.tasks = squirrel.Eq{"tasks.assignee_id": studentID}
		s.documents = squirrel.Expr(
			"documents.internship_id IN (SELECT internship_id FROM internship_students WHERE student_id = ?)", studentID)
		s.presentations = squirrel.Expr(
			"presentations.internship_id IN (SELECT internship_id FROM internship_students WHERE student_id = ?)", studentID)
		s.meetings = squirrel.Or{
			squirrel.Eq{"meetings.organizer_id": userID},
			squirrel.Expr("meetings.id IN (SELECT meeting_id FROM meeting_participants WHERE user_id = ?)", userID),
		}
	}

	return s, nil
}

func denyAll(s *Scope) {
	s.internships = MatchNone
	s.students = MatchNone
	s.supervisors = MatchNone
	s.tasks = MatchNone
	s.documents = MatchNone
	s.presentations = MatchNone
	s.meetings = MatchNone
}

func scopedByInternship(table string, internshipPred squirrel.Sqlizer) squirrel.Sqlizer {
	sql, args, err := internshipPred.ToSql()
	if err != nil {
		return MatchNone
	}
	return squirrel.Expr(table+".internship_id IN (SELECT id FROM internships WHERE "+sql+")", args...)
}
