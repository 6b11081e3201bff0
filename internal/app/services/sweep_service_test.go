package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/app/repositories"
	"github.com/oussamael/internhub/internal/pkg/apperrors"
	"github.com/oussamael/internhub/internal/scheduler"
)

type fakeSweepTasks struct {
	flagUpdates int64
	overdue     []repositories.OverdueTask
	flagsErr    error
	listErr     error
}

func (f *fakeSweepTasks) MarkOverdueFlags(ctx context.Context, now time.Time) (int64, error) {
	if f.flagsErr != nil {
		return 0, f.flagsErr
	}
	updates := f.flagUpdates
	f.flagUpdates = 0 // second run over unchanged data touches nothing
	return updates, nil
}

func (f *fakeSweepTasks) ListOverdue(ctx context.Context, now time.Time) ([]repositories.OverdueTask, error) {
	return f.overdue, f.listErr
}

type fakeSweepInternships struct {
	stalled []repositories.StalledInternship
	err     error
}

func (f *fakeSweepInternships) ListStalled(ctx context.Context, cutoff time.Time) ([]repositories.StalledInternship, error) {
	return f.stalled, f.err
}

// fakeAlertStore backs ObligationService in sweep tests so the dedup
// guard runs for real.
type fakeAlertStore struct {
	alerts    []*models.Alert
	createErr error
}

func (f *fakeAlertStore) Create(ctx context.Context, alert *models.Alert) error {
	if f.createErr != nil {
		return f.createErr
	}
	alert.State = models.AlertOpen
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *fakeAlertStore) HasOpenAlert(ctx context.Context, internshipID int64, taskID *int64, alertType models.AlertType) (bool, error) {
	for _, a := range f.alerts {
		if a.InternshipID != internshipID || a.Type != alertType || !a.IsOpen() {
			continue
		}
		if taskID == nil || (a.TaskID != nil && *a.TaskID == *taskID) {
			return true, nil
		}
	}
	return false, nil
}

type fakeSupervisorLookup struct{}

func (fakeSupervisorLookup) UserIDOf(ctx context.Context, supervisorID int64) (int64, error) {
	return 100 + supervisorID, nil
}

func newSweepFixture(tasks *fakeSweepTasks, internships *fakeSweepInternships) (*SweepService, *fakeAlertStore) {
	store := &fakeAlertStore{}
	obligations := NewObligationService(store, fakeSupervisorLookup{}, NewLogNotifier())
	svc := NewSweepService(tasks, internships, obligations, scheduler.NewMemoryLocker(),
		14*24*time.Hour, time.Minute)
	return svc, store
}

func supervisorUser(id int64) *int64 { return &id }

func TestRunAnomalySweepRaisesObligations(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tasks := &fakeSweepTasks{
		flagUpdates: 3,
		overdue: []repositories.OverdueTask{
			{TaskID: 1, InternshipID: 10, Name: "Upload report", Deadline: deadline, SupervisorUserID: supervisorUser(50)},
			{TaskID: 2, InternshipID: 11, Name: "Review draft", Deadline: deadline, SupervisorUserID: nil},
		},
	}
	internships := &fakeSweepInternships{
		stalled: []repositories.StalledInternship{
			{ID: 12, Title: "Dormant project", SupervisorUserID: supervisorUser(51), UpdatedAt: deadline},
		},
	}
	svc, store := newSweepFixture(tasks, internships)

	report, err := svc.RunAnomalySweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), report.OverdueFlagUpdates)
	assert.Equal(t, 2, report.OverdueTasksFound)
	assert.Equal(t, 1, report.StalledInternships)
	// one overdue task has no supervisor, so two alerts total
	assert.Equal(t, 2, report.AlertsRaised)
	assert.Len(t, store.alerts, 2)
	assert.Empty(t, report.ItemErrors)
}

func TestRunAnomalySweepIsIdempotent(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tasks := &fakeSweepTasks{
		overdue: []repositories.OverdueTask{
			{TaskID: 1, InternshipID: 10, Name: "Upload report", Deadline: deadline, SupervisorUserID: supervisorUser(50)},
		},
	}
	svc, store := newSweepFixture(tasks, &fakeSweepInternships{})

	first, err := svc.RunAnomalySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.AlertsRaised)

	second, err := svc.RunAnomalySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.AlertsRaised)
	assert.Len(t, store.alerts, 1)
}

func TestRunAnomalySweepHeldLock(t *testing.T) {
	locker := scheduler.NewMemoryLocker()
	ok, err := locker.Acquire(context.Background(), "sweep:anomaly", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	store := &fakeAlertStore{}
	obligations := NewObligationService(store, fakeSupervisorLookup{}, nil)
	svc := NewSweepService(&fakeSweepTasks{}, &fakeSweepInternships{}, obligations, locker,
		time.Hour, time.Minute)

	report, err := svc.RunAnomalySweep(context.Background())
	assert.Nil(t, report)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSweepAlreadyRunning))
}

func TestRunAnomalySweepCollectsItemErrors(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tasks := &fakeSweepTasks{
		flagsErr: errors.New("deadlock detected"),
		overdue: []repositories.OverdueTask{
			{TaskID: 1, InternshipID: 10, Name: "Upload report", Deadline: deadline, SupervisorUserID: supervisorUser(50)},
		},
	}
	store := &fakeAlertStore{createErr: errors.New("disk full")}
	obligations := NewObligationService(store, fakeSupervisorLookup{}, nil)
	svc := NewSweepService(tasks, &fakeSweepInternships{}, obligations, scheduler.NewMemoryLocker(),
		time.Hour, time.Minute)

	report, err := svc.RunAnomalySweep(context.Background())
	require.NoError(t, err)

	// flag recompute failed and the alert insert failed, but the sweep
	// still finished and reported both
	assert.Len(t, report.ItemErrors, 2)
	assert.Equal(t, 0, report.AlertsRaised)
}

func TestRunAnomalySweepReleasesLock(t *testing.T) {
	svc, _ := newSweepFixture(&fakeSweepTasks{}, &fakeSweepInternships{})

	_, err := svc.RunAnomalySweep(context.Background())
	require.NoError(t, err)

	// lock is free again
	_, err = svc.RunAnomalySweep(context.Background())
	require.NoError(t, err)
}
