package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/app/models/dto"
	"github.com/oussamael/internhub/internal/app/repositories"
	"github.com/oussamael/internhub/internal/app/scope"
	"github.com/oussamael/internhub/internal/pkg/apperrors"
)

type fakeInternshipRepo struct {
	internship *models.Internship
	hidden     bool // simulates a record outside the caller's scope
	casResult  bool
	casCalls   int
	casExtra   map[string]interface{}
	casJury    []int64
	casFrom    models.InternshipState
	casTo      models.InternshipState
	created    *models.Internship
}

func (f *fakeInternshipRepo) Create(ctx context.Context, internship *models.Internship) error {
	internship.ID = 77
	f.created = internship
	return nil
}

func (f *fakeInternshipRepo) GetByID(ctx context.Context, id int64, pred squirrel.Sqlizer) (*models.Internship, error) {
	if f.internship == nil || f.hidden || f.internship.ID != id {
		return nil, repositories.ErrInternshipNotFound
	}
	copy := *f.internship
	return &copy, nil
}

func (f *fakeInternshipRepo) List(ctx context.Context, pred squirrel.Sqlizer, page, pageSize int) ([]*models.Internship, int64, error) {
	if f.internship == nil {
		return nil, 0, nil
	}
	return []*models.Internship{f.internship}, 1, nil
}

func (f *fakeInternshipRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}, pred squirrel.Sqlizer) error {
	return nil
}

func (f *fakeInternshipRepo) UpdateStateCAS(ctx context.Context, id int64, fromState, toState models.InternshipState, extra map[string]interface{}, juryUserIDs []int64) (bool, error) {
	f.casCalls++
	f.casFrom, f.casTo = fromState, toState
	f.casExtra, f.casJury = extra, juryUserIDs
	if f.casResult && f.internship != nil {
		f.internship.State = toState
	}
	return f.casResult, nil
}

func (f *fakeInternshipRepo) UpdateCompletion(ctx context.Context, id int64, percentage float64) error {
	return nil
}

func (f *fakeInternshipRepo) HasChildren(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

func (f *fakeInternshipRepo) Deactivate(ctx context.Context, id int64) error { return nil }
func (f *fakeInternshipRepo) Delete(ctx context.Context, id int64) error     { return nil }

type fakeTaskCounts struct {
	done, total int
}

func (f *fakeTaskCounts) CountDoneTotal(ctx context.Context, internshipID int64) (int, int, error) {
	return f.done, f.total, nil
}

type fakeStudents struct {
	known map[int64]bool
}

func (f *fakeStudents) GetByIDs(ctx context.Context, ids []int64) ([]*models.Student, error) {
	var students []*models.Student
	for _, id := range ids {
		if f.known[id] {
			students = append(students, &models.Student{ID: id})
		}
	}
	return students, nil
}

type fakeObligations struct {
	defenseCalls int
}

func (f *fakeObligations) RaiseDefenseObligation(ctx context.Context, internship *models.Internship, defenseDate time.Time) {
	f.defenseCalls++
}

func newInternshipFixture(role models.Role, state models.InternshipState) (*InternshipService, *fakeInternshipRepo, *fakeObligations) {
	identity := &fakeIdentity{role: role}
	if role == models.RoleSupervisor {
		identity.supervisorID = 4
		identity.hasSupervisor = true
	}
	if role == models.RoleStudent {
		identity.studentID = 9
		identity.hasStudent = true
	}

	supervisorID := int64(4)
	repo := &fakeInternshipRepo{
		internship: &models.Internship{
			ID:           10,
			Title:        "Search relevance pipeline",
			State:        state,
			SupervisorID: &supervisorID,
			Active:       true,
		},
		casResult: true,
	}
	obligations := &fakeObligations{}
	svc := NewInternshipService(
		scope.NewResolver(identity),
		repo,
		&fakeTaskCounts{done: 1, total: 2},
		&fakeStudents{known: map[int64]bool{1: true, 2: true}},
		obligations,
	)
	return svc, repo, obligations
}

func TestSubmitTransitionHappyPath(t *testing.T) {
	svc, repo, _ := newInternshipFixture(models.RoleCoordinator, models.StateDraft)

	res, err := svc.SubmitTransition(context.Background(), 1, 10, &dto.TransitionRequest{Transition: "submit"})
	require.NoError(t, err)

	assert.Equal(t, models.StateDraft, res.From)
	assert.Equal(t, models.StateSubmitted, res.To)
	assert.Equal(t, 1, repo.casCalls)
}

func TestSubmitTransitionUnknownName(t *testing.T) {
	svc, repo, _ := newInternshipFixture(models.RoleCoordinator, models.StateDraft)

	_, err := svc.SubmitTransition(context.Background(), 1, 10, &dto.TransitionRequest{Transition: "promote"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
	assert.Equal(t, 0, repo.casCalls)
}

func TestSubmitTransitionWrongSourceState(t *testing.T) {
	svc, repo, _ := newInternshipFixture(models.RoleCoordinator, models.StateDraft)

	_, err := svc.SubmitTransition(context.Background(), 1, 10, &dto.TransitionRequest{Transition: "evaluate"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
	assert.Equal(t, 0, repo.casCalls)
}

func TestSubmitTransitionConflictLoser(t *testing.T) {
	svc, repo, _ := newInternshipFixture(models.RoleCoordinator, models.StateDraft)
	repo.casResult = false // someone else moved the record first

	_, err := svc.SubmitTransition(context.Background(), 1, 10, &dto.TransitionRequest{Transition: "submit"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTransitionConflict))
}

func TestSubmitTransitionOutOfScopeReadsAsNotFound(t *testing.T) {
	svc, repo, _ := newInternshipFixture(models.RoleSupervisor, models.StateDraft)
	repo.hidden = true

	_, err := svc.SubmitTransition(context.Background(), 1, 10, &dto.TransitionRequest{Transition: "submit"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInternshipNotFound))
}

func TestEvaluateGuardsLeaveStateUntouched(t *testing.T) {
	svc, repo, _ := newInternshipFixture(models.RoleCoordinator, models.StateCompleted)
	grade := 15.0

	// no defense scheduled, no jury
	_, err := svc.SubmitTransition(context.Background(), 1, 10, &dto.TransitionRequest{
		Transition: "evaluate", DefenseGrade: &grade, FinalGrade: &grade,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
	assert.Equal(t, 0, repo.casCalls)
	assert.Equal(t, models.StateCompleted, repo.internship.State)
}

func TestEvaluateRejectsOutOfRangeGrade(t *testing.T) {
	svc, repo, _ := newInternshipFixture(models.RoleCoordinator, models.StateCompleted)
	defenseDate := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	repo.internship.DefenseDate = &defenseDate
	repo.internship.JuryIDs = []int64{11, 12}
	bad := 25.0
	fine := 14.0

	_, err := svc.SubmitTransition(context.Background(), 1, 10, &dto.TransitionRequest{
		Transition: "evaluate", DefenseGrade: &bad, FinalGrade: &fine,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestEvaluateWithFullPayload(t *testing.T) {
	svc, repo, _ := newInternshipFixture(models.RoleCoordinator, models.StateCompleted)
	defenseDate := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	repo.internship.DefenseDate = &defenseDate
	repo.internship.JuryIDs = []int64{11, 12}
	defense := 16.0
	final := 15.5

	res, err := svc.SubmitTransition(context.Background(), 1, 10, &dto.TransitionRequest{
		Transition: "evaluate", DefenseGrade: &defense, FinalGrade: &final, Feedback: "solid work",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateEvaluated, res.To)
	assert.Equal(t, 16.0, repo.casExtra["defense_grade"])
	assert.Equal(t, 15.5, repo.casExtra["final_grade"])
	assert.Equal(t, "solid work", repo.casExtra["feedback"])
	assert.Equal(t, 100.0, repo.casExtra["completion_percentage"])
}

func TestScheduleDefenseRequiresJury(t *testing.T) {
	svc, _, obligations := newInternshipFixture(models.RoleCoordinator, models.StateCompleted)
	defenseDate := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)

	_, err := svc.SubmitTransition(context.Background(), 1, 10, &dto.TransitionRequest{
		Transition: "schedule_defense", DefenseDate: &defenseDate, JuryIDs: []int64{11},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
	assert.Equal(t, 0, obligations.defenseCalls)
}

func TestScheduleDefenseRaisesObligationAndKeepsState(t *testing.T) {
	svc, repo, obligations := newInternshipFixture(models.RoleCoordinator, models.StateCompleted)
	defenseDate := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)

	res, err := svc.SubmitTransition(context.Background(), 1, 10, &dto.TransitionRequest{
		Transition: "schedule_defense", DefenseDate: &defenseDate,
		DefenseRoom: "B-204", JuryIDs: []int64{11, 12},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateCompleted, res.From)
	assert.Equal(t, models.StateCompleted, res.To)
	assert.Equal(t, []int64{11, 12}, repo.casJury)
	assert.Equal(t, 1, obligations.defenseCalls)
}

func TestCancelRequiresCoordinator(t *testing.T) {
	svc, _, _ := newInternshipFixture(models.RoleSupervisor, models.StateInProgress)

	_, err := svc.SubmitTransition(context.Background(), 1, 10, &dto.TransitionRequest{Transition: "cancel"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
}

func TestCreateValidatesStudentsAndType(t *testing.T) {
	svc, _, _ := newInternshipFixture(models.RoleCoordinator, models.StateDraft)

	_, err := svc.Create(context.Background(), 1, &dto.CreateInternshipRequest{
		Title: "x", Type: "apprenticeship", StudentIDs: []int64{1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

	_, err = svc.Create(context.Background(), 1, &dto.CreateInternshipRequest{
		Title: "x", Type: string(models.TypeSummer), StudentIDs: []int64{1, 99},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestCreateAssignsReferenceAndDraftState(t *testing.T) {
	svc, repo, _ := newInternshipFixture(models.RoleCoordinator, models.StateDraft)

	created, err := svc.Create(context.Background(), 1, &dto.CreateInternshipRequest{
		Title: "Edge caching study", Type: string(models.TypeFinalProject), StudentIDs: []int64{1, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateDraft, created.State)
	assert.NotEmpty(t, created.ReferenceNumber)
	assert.Equal(t, repo.created.ReferenceNumber, created.ReferenceNumber)
}

func TestCreateForbiddenForStudents(t *testing.T) {
	svc, _, _ := newInternshipFixture(models.RoleStudent, models.StateDraft)

	_, err := svc.Create(context.Background(), 3, &dto.CreateInternshipRequest{
		Title: "x", Type: string(models.TypeSummer), StudentIDs: []int64{1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
}
