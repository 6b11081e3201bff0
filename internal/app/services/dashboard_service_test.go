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

type fakeIdentity struct {
	role          models.Role
	studentID     int64
	hasStudent    bool
	supervisorID  int64
	hasSupervisor bool
}

func (f *fakeIdentity) RoleOf(ctx context.Context, userID int64) (models.Role, error) {
	return f.role, nil
}

func (f *fakeIdentity) SupervisorRecordOf(ctx context.Context, userID int64) (int64, bool, error) {
	return f.supervisorID, f.hasSupervisor, nil
}

func (f *fakeIdentity) StudentRecordOf(ctx context.Context, userID int64) (int64, bool, error) {
	return f.studentID, f.hasStudent, nil
}

type fakeDashInternships struct {
	byState map[models.InternshipState]int64
	total   int64
	series  []repositories.SeriesRow
	err     error
}

func (f *fakeDashInternships) CountByState(ctx context.Context, pred squirrel.Sqlizer) (map[models.InternshipState]int64, int64, error) {
	return f.byState, f.total, f.err
}

func (f *fakeDashInternships) MonthlyTrend(ctx context.Context, pred squirrel.Sqlizer, months int, now time.Time) ([]repositories.SeriesRow, error) {
	return f.series, f.err
}

func (f *fakeDashInternships) GradeHistogram(ctx context.Context, pred squirrel.Sqlizer) ([]repositories.SeriesRow, error) {
	return f.series, f.err
}

func (f *fakeDashInternships) SupervisorUtilization(ctx context.Context, limit int) ([]repositories.SeriesRow, error) {
	return f.series, f.err
}

func (f *fakeDashInternships) AreaPerformance(ctx context.Context, pred squirrel.Sqlizer) ([]repositories.SeriesRow, error) {
	return f.series, f.err
}

func (f *fakeDashInternships) CompletionSeries(ctx context.Context, pred squirrel.Sqlizer) ([]repositories.SeriesRow, error) {
	return f.series, f.err
}

type fakeDashStudents struct {
	count int64
	err   error
}

func (f *fakeDashStudents) Count(ctx context.Context, pred squirrel.Sqlizer) (int64, error) {
	return f.count, f.err
}

type fakeDashSupervisors struct {
	count int64
	err   error
}

func (f *fakeDashSupervisors) Count(ctx context.Context, pred squirrel.Sqlizer) (int64, error) {
	return f.count, f.err
}

type fakeDashTasks struct {
	counters repositories.TaskCounters
	err      error
	gotNow   time.Time
}

func (f *fakeDashTasks) Counters(ctx context.Context, pred squirrel.Sqlizer, now time.Time) (repositories.TaskCounters, error) {
	f.gotNow = now
	return f.counters, f.err
}

type fakeDashMeetings struct {
	counters repositories.MeetingCounters
	err      error
	gotNow   time.Time
}

func (f *fakeDashMeetings) Counters(ctx context.Context, pred squirrel.Sqlizer, now time.Time) (repositories.MeetingCounters, error) {
	f.gotNow = now
	return f.counters, f.err
}

type fakeDashDocuments struct {
	docs  map[models.ReviewState]int64
	pres  map[models.ReviewState]int64
	total int64
	err   error
}

func (f *fakeDashDocuments) CountDocumentsByState(ctx context.Context, pred squirrel.Sqlizer) (map[models.ReviewState]int64, int64, error) {
	return f.docs, f.total, f.err
}

func (f *fakeDashDocuments) CountPresentationsByState(ctx context.Context, pred squirrel.Sqlizer) (map[models.ReviewState]int64, int64, error) {
	return f.pres, f.total, f.err
}

type fakeDashAlerts struct {
	count int64
	err   error
}

func (f *fakeDashAlerts) CountOpenForUser(ctx context.Context, userID int64) (int64, error) {
	return f.count, f.err
}

func newDashboardFixture(role models.Role) (*DashboardService, *fakeDashTasks, *fakeDashMeetings) {
	identity := &fakeIdentity{role: role}
	if role == models.RoleStudent {
		identity.studentID = 9
		identity.hasStudent = true
	}
	if role == models.RoleSupervisor {
		identity.supervisorID = 4
		identity.hasSupervisor = true
	}

	// 6 tasks: 2 done, 3 still todo, 1 in progress (in neither bucket)
	tasks := &fakeDashTasks{counters: repositories.TaskCounters{Total: 6, Completed: 2, Pending: 3, Overdue: 1, DueToday: 1}}
	meetings := &fakeDashMeetings{counters: repositories.MeetingCounters{Total: 3, Upcoming: 2}}
	svc := NewDashboardService(
		scope.NewResolver(identity),
		&fakeDashInternships{
			byState: map[models.InternshipState]int64{models.StateInProgress: 2},
			total:   2,
			series:  []repositories.SeriesRow{{Label: "a", Value: 1}},
		},
		&fakeDashStudents{count: 12},
		&fakeDashSupervisors{count: 5},
		tasks,
		meetings,
		&fakeDashDocuments{docs: map[models.ReviewState]int64{}, pres: map[models.ReviewState]int64{}},
		&fakeDashAlerts{count: 1},
		"5m",
	)
	return svc, tasks, meetings
}

func TestGetDashboardSingleInstant(t *testing.T) {
	svc, tasks, meetings := newDashboardFixture(models.RoleAdmin)
	frozen := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return frozen })

	payload, err := svc.GetDashboard(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, frozen, payload.GeneratedAt)
	assert.Equal(t, frozen, tasks.gotNow)
	assert.Equal(t, frozen, meetings.gotNow)
	assert.Equal(t, "5m", payload.RefreshHint)
}

func TestGetDashboardZeroFillsStates(t *testing.T) {
	svc, _, _ := newDashboardFixture(models.RoleAdmin)

	payload, err := svc.GetDashboard(context.Background(), 1)
	require.NoError(t, err)

	assert.Len(t, payload.Internships.ByState, len(models.AllInternshipStates))
	assert.Equal(t, int64(2), payload.Internships.ByState[models.StateInProgress])
	assert.Equal(t, int64(0), payload.Internships.ByState[models.StateDraft])
	assert.Equal(t, int64(0), payload.Internships.ByState[models.StateCancelled])
}

func TestGetDashboardEmptyScopeIsZeroPayloadNotError(t *testing.T) {
	// supervisor role with no supervisor record resolves to an empty
	// scope; the dashboard still answers
	identity := &fakeIdentity{role: models.RoleSupervisor}
	svc := NewDashboardService(
		scope.NewResolver(identity),
		&fakeDashInternships{byState: map[models.InternshipState]int64{}},
		&fakeDashStudents{},
		&fakeDashSupervisors{},
		&fakeDashTasks{},
		&fakeDashMeetings{},
		&fakeDashDocuments{docs: map[models.ReviewState]int64{}, pres: map[models.ReviewState]int64{}},
		&fakeDashAlerts{},
		"5m",
	)

	payload, err := svc.GetDashboard(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), payload.Internships.Total)
	assert.Equal(t, int64(0), payload.Students)
	assert.Equal(t, int64(0), payload.Supervisors)
	assert.Equal(t, int64(0), payload.Tasks.Total)
}

func TestGetDashboardFailsAtomically(t *testing.T) {
	identity := &fakeIdentity{role: models.RoleAdmin}
	svc := NewDashboardService(
		scope.NewResolver(identity),
		&fakeDashInternships{byState: map[models.InternshipState]int64{}},
		&fakeDashStudents{},
		&fakeDashSupervisors{},
		&fakeDashTasks{err: errors.New("connection reset")},
		&fakeDashMeetings{},
		&fakeDashDocuments{},
		&fakeDashAlerts{},
		"5m",
	)

	payload, err := svc.GetDashboard(context.Background(), 1)
	assert.Nil(t, payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAggregationFailed))
}

func TestGetDashboardCountsPeople(t *testing.T) {
	svc, _, _ := newDashboardFixture(models.RoleAdmin)

	payload, err := svc.GetDashboard(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(12), payload.Students)
	assert.Equal(t, int64(5), payload.Supervisors)
}

func TestGetDashboardPeopleCountFailureIsAtomic(t *testing.T) {
	identity := &fakeIdentity{role: models.RoleAdmin}
	svc := NewDashboardService(
		scope.NewResolver(identity),
		&fakeDashInternships{byState: map[models.InternshipState]int64{}},
		&fakeDashStudents{err: errors.New("connection reset")},
		&fakeDashSupervisors{},
		&fakeDashTasks{},
		&fakeDashMeetings{},
		&fakeDashDocuments{},
		&fakeDashAlerts{},
		"5m",
	)

	payload, err := svc.GetDashboard(context.Background(), 1)
	assert.Nil(t, payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAggregationFailed))
}

func TestGetDashboardChartsByRole(t *testing.T) {
	adminSvc, _, _ := newDashboardFixture(models.RoleAdmin)
	payload, err := adminSvc.GetDashboard(context.Background(), 1)
	require.NoError(t, err)

	names := chartNames(payload.Charts)
	assert.Equal(t, []string{
		"status_distribution", "monthly_trend", "grade_histogram",
		"supervisor_utilization", "area_performance",
	}, names)

	studentSvc, _, _ := newDashboardFixture(models.RoleStudent)
	payload, err = studentSvc.GetDashboard(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"status_distribution", "personal_progress"}, chartNames(payload.Charts))
}

func TestGetDashboardStatusDistributionOrder(t *testing.T) {
	svc, _, _ := newDashboardFixture(models.RoleStudent)
	payload, err := svc.GetDashboard(context.Background(), 3)
	require.NoError(t, err)

	distribution := payload.Charts[0]
	require.Len(t, distribution.Points, len(models.AllInternshipStates))
	for i, state := range models.AllInternshipStates {
		assert.Equal(t, string(state), distribution.Points[i].Label)
	}
}

func chartNames(charts []dto.ChartSeries) []string {
	names := make([]string, 0, len(charts))
	for _, chart := range charts {
		names = append(names, chart.Name)
	}
	return names
}
