package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/app/models/dto"
	"github.com/oussamael/internhub/internal/app/repositories"
	"github.com/oussamael/internhub/internal/app/scope"
	"github.com/oussamael/internhub/internal/pkg/apperrors"
	"github.com/oussamael/internhub/internal/pkg/logger"
)

const minJurySize = 2

type internshipRepo interface {
	Create(ctx context.Context, internship *models.Internship) error
	GetByID(ctx context.Context, id int64, pred squirrel.Sqlizer) (*models.Internship, error)
	List(ctx context.Context, pred squirrel.Sqlizer, page, pageSize int) ([]*models.Internship, int64, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}, pred squirrel.Sqlizer) error
	UpdateStateCAS(ctx context.Context, id int64, fromState, toState models.InternshipState, extra map[string]interface{}, juryUserIDs []int64) (bool, error)
	UpdateCompletion(ctx context.Context, id int64, percentage float64) error
	HasChildren(ctx context.Context, id int64) (bool, error)
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type internshipTaskRepo interface {
	CountDoneTotal(ctx context.Context, internshipID int64) (done, total int, err error)
}

type internshipStudentRepo interface {
	GetByIDs(ctx context.Context, ids []int64) ([]*models.Student, error)
}

type obligationSink interface {
	RaiseDefenseObligation(ctx context.Context, internship *models.Internship, defenseDate time.Time)
}

// InternshipService owns internship CRUD and the lifecycle state machine.
type InternshipService struct {
	resolver    scopeResolver
	internships internshipRepo
	tasks       internshipTaskRepo
	students    internshipStudentRepo
	obligations obligationSink
	clock       func() time.Time
}

// NewInternshipService creates a new InternshipService
func NewInternshipService(
	resolver scopeResolver,
	internships internshipRepo,
	tasks internshipTaskRepo,
	students internshipStudentRepo,
	obligations obligationSink,
) *InternshipService {
	return &InternshipService{
		resolver:    resolver,
		internships: internships,
		tasks:       tasks,
		students:    students,
		obligations: obligations,
		clock:       time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *InternshipService) WithClock(clock func() time.Time) *InternshipService {
	s.clock = clock
	return s
}

var validTypes = map[models.InternshipType]bool{
	models.TypeFinalProject: true,
	models.TypeSummer:       true,
	models.TypeObservation:  true,
	models.TypeProfessional: true,
}

// Create registers a new internship in draft state. Only admins and
// coordinators create records.
func (s *InternshipService) Create(ctx context.Context, userID int64, req *dto.CreateInternshipRequest) (*models.Internship, error) {
	callerScope, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !callerScope.Unrestricted() {
		return nil, apperrors.NewForbiddenError("only coordinators can create internships")
	}

	internshipType := models.InternshipType(req.Type)
	if !validTypes[internshipType] {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown internship type %q", req.Type))
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperrors.NewValidationError("title is required")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, apperrors.NewValidationError("end date must not precede start date")
	}

	students, err := s.students.GetByIDs(ctx, req.StudentIDs)
	if err != nil {
		return nil, err
	}
	if len(students) != len(uniqueIDs(req.StudentIDs)) {
		return nil, apperrors.NewValidationError("one or more students do not exist")
	}

	internship := &models.Internship{
		ReferenceNumber: newReferenceNumber(s.clock()),
		Title:           req.Title,
		Type:            internshipType,
		State:           models.StateDraft,
		Description:     req.Description,
		StudentIDs:      uniqueIDs(req.StudentIDs),
		SupervisorID:    req.SupervisorID,
		AreaID:          req.AreaID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
	}
	if err := s.internships.Create(ctx, internship); err != nil {
		return nil, err
	}
	return internship, nil
}

// Get retrieves one internship within the caller's scope. A record the
// scope hides reads as not found rather than forbidden, so the response
// does not leak its existence.
func (s *InternshipService) Get(ctx context.Context, userID, id int64) (*models.Internship, error) {
	callerScope, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	internship, err := s.internships.GetByID(ctx, id, callerScope.Internships())
	if err != nil {
		return nil, mapNotFound(err)
	}
	return internship, nil
}

// List pages through the internships the caller's scope covers.
func (s *InternshipService) List(ctx context.Context, userID int64, page, pageSize int) (*dto.InternshipListResponse, error) {
	callerScope, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	internships, total, err := s.internships.List(ctx, callerScope.Internships(), page, pageSize)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return &dto.InternshipListResponse{
		Internships: internships,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
	}, nil
}

// Update applies descriptive changes to a scoped internship. Lifecycle
// state never moves through here.
func (s *InternshipService) Update(ctx context.Context, userID, id int64, req *dto.UpdateInternshipRequest) (*models.Internship, error) {
	callerScope, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if callerScope.Role == models.RoleStudent {
		return nil, apperrors.NewForbiddenError("students cannot edit internships")
	}

	current, err := s.internships.GetByID(ctx, id, callerScope.Internships())
	if err != nil {
		return nil, mapNotFound(err)
	}

	start, end := current.StartDate, current.EndDate
	if req.StartDate != nil {
		start = req.StartDate
	}
	if req.EndDate != nil {
		end = req.EndDate
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, apperrors.NewValidationError("end date must not precede start date")
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, apperrors.NewValidationError("title cannot be empty")
		}
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.SupervisorID != nil {
		fields["supervisor_id"] = *req.SupervisorID
	}
	if req.AreaID != nil {
		fields["area_id"] = *req.AreaID
	}
	if req.StartDate != nil {
		fields["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		fields["end_date"] = *req.EndDate
	}

	if err := s.internships.UpdateFields(ctx, id, fields, callerScope.Internships()); err != nil {
		return nil, mapNotFound(err)
	}
	internship, err := s.internships.GetByID(ctx, id, callerScope.Internships())
	if err != nil {
		return nil, mapNotFound(err)
	}
	return internship, nil
}

// Delete removes an internship: a hard delete when nothing references it,
// a soft deactivation otherwise.
func (s *InternshipService) Delete(ctx context.Context, userID, id int64) error {
	callerScope, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return err
	}
	if !callerScope.Unrestricted() {
		return apperrors.NewForbiddenError("only coordinators can delete internships")
	}
	if _, err := s.internships.GetByID(ctx, id, callerScope.Internships()); err != nil {
		return mapNotFound(err)
	}

	hasChildren, err := s.internships.HasChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return s.internships.Deactivate(ctx, id)
	}
	return s.internships.Delete(ctx, id)
}

// SubmitTransition runs one lifecycle transition through its guards and
// the compare-and-swap write. Two callers racing the same record see one
// winner; the loser gets a conflict and must re-read.
func (s *InternshipService) SubmitTransition(ctx context.Context, userID, id int64, req *dto.TransitionRequest) (*dto.TransitionResponse, error) {
	callerScope, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	transition := models.Transition(req.Transition)
	if !models.KnownTransition(transition) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown transition %q", req.Transition))
	}
	if err := s.allowTransition(callerScope, transition); err != nil {
		return nil, err
	}

	internship, err := s.internships.GetByID(ctx, id, callerScope.Internships())
	if err != nil {
		return nil, mapNotFound(err)
	}

	from, to, ok := models.TransitionStates(transition, internship.State)
	if !ok {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidTransition,
			fmt.Sprintf("cannot %s an internship in state %s", transition, internship.State))
	}

	extra, jury, err := s.transitionPayload(transition, internship, req)
	if err != nil {
		return nil, err
	}

	swapped, err := s.internships.UpdateStateCAS(ctx, id, from, to, extra, jury)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("internship %d changed state concurrently, retry with fresh state", id))
	}

	s.afterTransition(ctx, transition, internship, req)

	return &dto.TransitionResponse{
		ID:         id,
		Transition: string(transition),
		From:       from,
		To:         to,
	}, nil
}

// allowTransition enforces who may run what. Scope already hides foreign
// records, so these are role checks only.
func (s *InternshipService) allowTransition(callerScope *scope.Scope, transition models.Transition) error {
	switch transition {
	case models.TransitionApprove, models.TransitionCancel:
		if !callerScope.Unrestricted() {
			return apperrors.NewForbiddenError(fmt.Sprintf("only coordinators can %s internships", transition))
		}
	case models.TransitionStart, models.TransitionComplete,
		models.TransitionScheduleDefense, models.TransitionEvaluate:
		if callerScope.Role == models.RoleStudent {
			return apperrors.NewForbiddenError(fmt.Sprintf("students cannot %s internships", transition))
		}
	}
	return nil
}

// transitionPayload validates the payload a transition needs and shapes
// the columns that must land atomically with the state change.
func (s *InternshipService) transitionPayload(transition models.Transition, internship *models.Internship, req *dto.TransitionRequest) (map[string]interface{}, []int64, error) {
	extra := map[string]interface{}{}

	switch transition {
	case models.TransitionComplete:
		extra["completion_percentage"] = 100.0

	case models.TransitionCancel:
		extra["completion_percentage"] = 0.0

	case models.TransitionScheduleDefense:
		if req.DefenseDate == nil {
			return nil, nil, apperrors.NewValidationError("defense date is required to schedule a defense")
		}
		jury := uniqueIDs(req.JuryIDs)
		if len(jury) < minJurySize {
			return nil, nil, apperrors.NewValidationError(
				fmt.Sprintf("a defense jury needs at least %d members", minJurySize))
		}
		extra["defense_date"] = *req.DefenseDate
		extra["defense_room"] = req.DefenseRoom
		return extra, jury, nil

	case models.TransitionEvaluate:
		defenseDate := internship.DefenseDate
		if req.DefenseDate != nil {
			defenseDate = req.DefenseDate
			extra["defense_date"] = *req.DefenseDate
		}
		if defenseDate == nil {
			return nil, nil, apperrors.NewValidationError("a defense must be scheduled before evaluation")
		}
		if len(internship.JuryIDs) < minJurySize && len(uniqueIDs(req.JuryIDs)) < minJurySize {
			return nil, nil, apperrors.NewValidationError(
				fmt.Sprintf("a defense jury needs at least %d members", minJurySize))
		}

		defenseGrade := internship.DefenseGrade
		if req.DefenseGrade != nil {
			defenseGrade = req.DefenseGrade
			extra["defense_grade"] = *req.DefenseGrade
		}
		finalGrade := internship.FinalGrade
		if req.FinalGrade != nil {
			finalGrade = req.FinalGrade
			extra["final_grade"] = *req.FinalGrade
		}
		if defenseGrade == nil || finalGrade == nil {
			return nil, nil, apperrors.NewValidationError("defense and final grades are required for evaluation")
		}
		if !models.ValidGrade(*defenseGrade) || !models.ValidGrade(*finalGrade) {
			return nil, nil, apperrors.NewValidationError("grades must be between 0 and 20")
		}
		if req.Feedback != "" {
			extra["feedback"] = req.Feedback
		}
		extra["completion_percentage"] = 100.0

		var jury []int64
		if len(uniqueIDs(req.JuryIDs)) >= minJurySize {
			jury = uniqueIDs(req.JuryIDs)
		}
		return extra, jury, nil
	}

	return extra, nil, nil
}

// afterTransition runs the best-effort side effects of a committed
// transition. Failures here are logged, never surfaced: the state change
// already happened.
func (s *InternshipService) afterTransition(ctx context.Context, transition models.Transition, internship *models.Internship, req *dto.TransitionRequest) {
	switch transition {
	case models.TransitionScheduleDefense:
		if s.obligations != nil && req.DefenseDate != nil {
			s.obligations.RaiseDefenseObligation(ctx, internship, *req.DefenseDate)
		}

	case models.TransitionSubmit, models.TransitionApprove, models.TransitionStart:
		done, total, err := s.tasks.CountDoneTotal(ctx, internship.ID)
		if err != nil {
			logger.Warn().Err(err).Int64("internship_id", internship.ID).
				Msg("Failed to recompute completion after transition")
			return
		}
		_, to, _ := models.TransitionStates(transition, internship.State)
		pct := models.ComputeCompletion(to, done, total, internship.StartDate, internship.EndDate, s.clock())
		if err := s.internships.UpdateCompletion(ctx, internship.ID, pct); err != nil {
			logger.Warn().Err(err).Int64("internship_id", internship.ID).
				Msg("Failed to store completion percentage")
		}
	}
}

// mapNotFound converts the repository sentinel so callers above the
// service never import the repository package for it.
func mapNotFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrInternshipNotFound) {
		return apperrors.ErrInternshipNotFound
	}
	return err
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	var out []int64
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func newReferenceNumber(now time.Time) string {
	return fmt.Sprintf("INT-%d-%s", now.Year(), strings.ToUpper(uuid.NewString()[:8]))
}
