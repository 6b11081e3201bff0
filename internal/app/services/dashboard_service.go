package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/app/models/dto"
	"github.com/oussamael/internhub/internal/app/repositories"
	"github.com/oussamael/internhub/internal/app/scope"
	"github.com/oussamael/internhub/internal/pkg/apperrors"
)

// scopeResolver resolves the caller into entity predicates.
type scopeResolver interface {
	Resolve(ctx context.Context, userID int64) (*scope.Scope, error)
}

// dashboardInternshipRepo is the slice of the internship repository the
// dashboard reads from.
type dashboardInternshipRepo interface {
	CountByState(ctx context.Context, pred squirrel.Sqlizer) (map[models.InternshipState]int64, int64, error)
	MonthlyTrend(ctx context.Context, pred squirrel.Sqlizer, months int, now time.Time) ([]repositories.SeriesRow, error)
	GradeHistogram(ctx context.Context, pred squirrel.Sqlizer) ([]repositories.SeriesRow, error)
	SupervisorUtilization(ctx context.Context, limit int) ([]repositories.SeriesRow, error)
	AreaPerformance(ctx context.Context, pred squirrel.Sqlizer) ([]repositories.SeriesRow, error)
	CompletionSeries(ctx context.Context, pred squirrel.Sqlizer) ([]repositories.SeriesRow, error)
}

type dashboardStudentRepo interface {
	Count(ctx context.Context, pred squirrel.Sqlizer) (int64, error)
}

type dashboardSupervisorRepo interface {
	Count(ctx context.Context, pred squirrel.Sqlizer) (int64, error)
}

type dashboardTaskRepo interface {
	Counters(ctx context.Context, pred squirrel.Sqlizer, now time.Time) (repositories.TaskCounters, error)
}

type dashboardMeetingRepo interface {
	Counters(ctx context.Context, pred squirrel.Sqlizer, now time.Time) (repositories.MeetingCounters, error)
}

type dashboardDocumentRepo interface {
	CountDocumentsByState(ctx context.Context, pred squirrel.Sqlizer) (map[models.ReviewState]int64, int64, error)
	CountPresentationsByState(ctx context.Context, pred squirrel.Sqlizer) (map[models.ReviewState]int64, int64, error)
}

type dashboardAlertRepo interface {
	CountOpenForUser(ctx context.Context, userID int64) (int64, error)
}

// DashboardService assembles the role-scoped dashboard payload. Every
// counter and series in one payload is computed against the same instant
// and the same scope; if any sub-query fails the whole payload is
// discarded.
type DashboardService struct {
	resolver    scopeResolver
	internships dashboardInternshipRepo
	students    dashboardStudentRepo
	supervisors dashboardSupervisorRepo
	tasks       dashboardTaskRepo
	meetings    dashboardMeetingRepo
	documents   dashboardDocumentRepo
	alerts      dashboardAlertRepo
	refreshHint string
	trendMonths int
	clock       func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	resolver scopeResolver,
	internships dashboardInternshipRepo,
	students dashboardStudentRepo,
	supervisors dashboardSupervisorRepo,
	tasks dashboardTaskRepo,
	meetings dashboardMeetingRepo,
	documents dashboardDocumentRepo,
	alerts dashboardAlertRepo,
	refreshHint string,
) *DashboardService {
	return &DashboardService{
		resolver:    resolver,
		internships: internships,
		students:    students,
		supervisors: supervisors,
		tasks:       tasks,
		meetings:    meetings,
		documents:   documents,
		alerts:      alerts,
		refreshHint: refreshHint,
		trendMonths: 12,
		clock:       time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *DashboardService) WithClock(clock func() time.Time) *DashboardService {
	s.clock = clock
	return s
}

// GetDashboard resolves the caller's scope and aggregates everything it
// covers. An empty scope yields a zero-filled payload; a failing
// sub-query fails the whole call.
func (s *DashboardService) GetDashboard(ctx context.Context, userID int64) (*dto.DashboardPayload, error) {
	callerScope, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	payload := &dto.DashboardPayload{
		Role:        callerScope.Role,
		GeneratedAt: now,
		RefreshHint: s.refreshHint,
	}

	stateCounts, total, err := s.internships.CountByState(ctx, callerScope.Internships())
	if err != nil {
		return nil, aggregationError("counting internships", err)
	}
	payload.Internships = dto.InternshipCounters{
		Total:   total,
		ByState: zeroFillStates(stateCounts),
	}

	studentCount, err := s.students.Count(ctx, callerScope.Students())
	if err != nil {
		return nil, aggregationError("counting students", err)
	}
	payload.Students = studentCount

	supervisorCount, err := s.supervisors.Count(ctx, callerScope.Supervisors())
	if err != nil {
		return nil, aggregationError("counting supervisors", err)
	}
	payload.Supervisors = supervisorCount

	taskCounters, err := s.tasks.Counters(ctx, callerScope.Tasks(), now)
	if err != nil {
		return nil, aggregationError("counting tasks", err)
	}
	payload.Tasks = dto.TaskCounters{
		Total:     taskCounters.Total,
		Completed: taskCounters.Completed,
		Pending:   taskCounters.Pending,
		Overdue:   taskCounters.Overdue,
		DueToday:  taskCounters.DueToday,
	}

	meetingCounters, err := s.meetings.Counters(ctx, callerScope.Meetings(), now)
	if err != nil {
		return nil, aggregationError("counting meetings", err)
	}
	payload.Meetings = dto.MeetingCounters{
		Total:    meetingCounters.Total,
		Upcoming: meetingCounters.Upcoming,
	}

	docCounts, docTotal, err := s.documents.CountDocumentsByState(ctx, callerScope.Documents())
	if err != nil {
		return nil, aggregationError("counting documents", err)
	}
	payload.Documents = dto.ReviewCounters{Total: docTotal, ByState: zeroFillReviewStates(docCounts)}

	presCounts, presTotal, err := s.documents.CountPresentationsByState(ctx, callerScope.Presentations())
	if err != nil {
		return nil, aggregationError("counting presentations", err)
	}
	payload.Presentations = dto.ReviewCounters{Total: presTotal, ByState: zeroFillReviewStates(presCounts)}

	openAlerts, err := s.alerts.CountOpenForUser(ctx, userID)
	if err != nil {
		return nil, aggregationError("counting alerts", err)
	}
	payload.OpenAlerts = openAlerts

	charts, err := s.buildCharts(ctx, callerScope, payload.Internships.ByState, now)
	if err != nil {
		return nil, err
	}
	payload.Charts = charts

	return payload, nil
}

// buildCharts assembles the role-appropriate series. Admins and
// coordinators get the program-wide analytics; supervisors and students
// see only their own slice.
func (s *DashboardService) buildCharts(ctx context.Context, callerScope *scope.Scope, byState map[models.InternshipState]int64, now time.Time) ([]dto.ChartSeries, error) {
	charts := []dto.ChartSeries{statusDistribution(byState)}

	switch callerScope.Role {
	case models.RoleAdmin, models.RoleCoordinator:
		trend, err := s.internships.MonthlyTrend(ctx, callerScope.Internships(), s.trendMonths, now)
		if err != nil {
			return nil, aggregationError("building monthly trend", err)
		}
		charts = append(charts, toChart("monthly_trend", trend))

		histogram, err := s.internships.GradeHistogram(ctx, callerScope.Internships())
		if err != nil {
			return nil, aggregationError("building grade histogram", err)
		}
		charts = append(charts, toChart("grade_histogram", histogram))

		utilization, err := s.internships.SupervisorUtilization(ctx, 10)
		if err != nil {
			return nil, aggregationError("building supervisor utilization", err)
		}
		charts = append(charts, toChart("supervisor_utilization", utilization))

		performance, err := s.internships.AreaPerformance(ctx, callerScope.Internships())
		if err != nil {
			return nil, aggregationError("building area performance", err)
		}
		charts = append(charts, toChart("area_performance", performance))

	case models.RoleSupervisor:
		completion, err := s.internships.CompletionSeries(ctx, callerScope.Internships())
		if err != nil {
			return nil, aggregationError("building completion overview", err)
		}
		charts = append(charts, toChart("completion_overview", completion))

	case models.RoleStudent:
		progress, err := s.internships.CompletionSeries(ctx, callerScope.Internships())
		if err != nil {
			return nil, aggregationError("building personal progress", err)
		}
		charts = append(charts, toChart("personal_progress", progress))
	}

	return charts, nil
}

func aggregationError(step string, err error) error {
	return fmt.Errorf("%w: %s: %v", apperrors.ErrAggregationFailed, step, err)
}

// zeroFillStates makes every lifecycle state present so clients never
// branch on missing keys.
func zeroFillStates(counts map[models.InternshipState]int64) map[models.InternshipState]int64 {
	filled := make(map[models.InternshipState]int64, len(models.AllInternshipStates))
	for _, state := range models.AllInternshipStates {
		filled[state] = counts[state]
	}
	return filled
}

func zeroFillReviewStates(counts map[models.ReviewState]int64) map[models.ReviewState]int64 {
	filled := make(map[models.ReviewState]int64, len(models.AllReviewStates))
	for _, state := range models.AllReviewStates {
		filled[state] = counts[state]
	}
	return filled
}

// statusDistribution orders the state partition in workflow order.
func statusDistribution(byState map[models.InternshipState]int64) dto.ChartSeries {
	series := dto.ChartSeries{Name: "status_distribution"}
	for _, state := range models.AllInternshipStates {
		series.Points = append(series.Points, dto.SeriesPoint{
			Label: string(state),
			Value: float64(byState[state]),
		})
	}
	return series
}

func toChart(name string, rows []repositories.SeriesRow) dto.ChartSeries {
	series := dto.ChartSeries{Name: name}
	for _, row := range rows {
		series.Points = append(series.Points, dto.SeriesPoint{Label: row.Label, Value: row.Value})
	}
	return series
}
