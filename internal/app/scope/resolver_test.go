package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/pkg/apperrors"
)

type fakeIdentity struct {
	role          models.Role
	roleErr       error
	supervisorID  int64
	hasSupervisor bool
	studentID     int64
	hasStudent    bool
}

func (f *fakeIdentity) RoleOf(ctx context.Context, userID int64) (models.Role, error) {
	return f.role, f.roleErr
}

func (f *fakeIdentity) SupervisorRecordOf(ctx context.Context, userID int64) (int64, bool, error) {
	return f.supervisorID, f.hasSupervisor, nil
}

func (f *fakeIdentity) StudentRecordOf(ctx context.Context, userID int64) (int64, bool, error) {
	return f.studentID, f.hasStudent, nil
}

func predicateSQL(t *testing.T, pred squirrel.Sqlizer) (string, []interface{}) {
	t.Helper()
	sql, args, err := pred.ToSql()
	require.NoError(t, err)
	return sql, args
}

func TestResolveAdminIsUnrestricted(t *testing.T) {
	r := NewResolver(&fakeIdentity{role: models.RoleAdmin})

	s, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, s.Unrestricted())
	// the empty conjunction renders as a tautology, never as an empty string
	sql, args := predicateSQL(t, s.Internships())
	assert.Equal(t, "(1=1)", sql)
	assert.Empty(t, args)
}

func TestResolveSupervisorPredicates(t *testing.T) {
	r := NewResolver(&fakeIdentity{role: models.RoleSupervisor, supervisorID: 42, hasSupervisor: true})

	s, err := r.Resolve(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(42), s.SupervisorID)

	sql, args := predicateSQL(t, s.Internships())
	assert.Equal(t, "internships.supervisor_id = ?", sql)
	assert.Equal(t, []interface{}{int64(42)}, args)

	sql, args = predicateSQL(t, s.Tasks())
	assert.Contains(t, sql, "tasks.internship_id IN")
	assert.Contains(t, sql, "supervisor_id = ?")
	assert.Equal(t, []interface{}{int64(42)}, args)
}

func TestResolveSupervisorMeetingsOrganizerOrParticipant(t *testing.T) {
	r := NewResolver(&fakeIdentity{role: models.RoleSupervisor, supervisorID: 42, hasSupervisor: true})

	s, err := r.Resolve(context.Background(), 7)
	require.NoError(t, err)

	sql, args := predicateSQL(t, s.Meetings())
	assert.Contains(t, sql, "meetings.organizer_id = ?")
	assert.Contains(t, sql, "meeting_participants")
	assert.Contains(t, sql, " OR ")
	// both branches key on the user id, not the supervisor record id
	assert.Equal(t, []interface{}{int64(7), int64(7)}, args)
}

func TestResolveStudentPredicates(t *testing.T) {
	r := NewResolver(&fakeIdentity{role: models.RoleStudent, studentID: 9, hasStudent: true})

	s, err := r.Resolve(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(9), s.StudentID)

	sql, args := predicateSQL(t, s.Internships())
	assert.Contains(t, sql, "internship_students")
	assert.Equal(t, []interface{}{int64(9)}, args)

	// tasks restricted by assignment, not by internship membership
	sql, args = predicateSQL(t, s.Tasks())
	assert.Equal(t, "tasks.assignee_id = ?", sql)
	assert.Equal(t, []interface{}{int64(9)}, args)
}

func TestResolveFailsClosedWithoutProfileRecord(t *testing.T) {
	for _, role := range []models.Role{models.RoleSupervisor, models.RoleStudent} {
		r := NewResolver(&fakeIdentity{role: role})

		s, err := r.Resolve(context.Background(), 5)
		require.NoError(t, err)

		for name, pred := range map[string]squirrel.Sqlizer{
			"internships": s.Internships(),
			"tasks":       s.Tasks(),
			"meetings":    s.Meetings(),
			"documents":   s.Documents(),
		} {
			sql, _ := predicateSQL(t, pred)
			assert.Equal(t, "1 = 0", sql, "%s for role %s", name, role)
		}
	}
}

func TestResolveUnknownRole(t *testing.T) {
	r := NewResolver(&fakeIdentity{role: models.Role("janitor")})

	_, err := r.Resolve(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrScopeDenied))
}

func TestResolveIdentityError(t *testing.T) {
	r := NewResolver(&fakeIdentity{roleErr: apperrors.ErrUserNotFound})

	_, err := r.Resolve(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))
}
