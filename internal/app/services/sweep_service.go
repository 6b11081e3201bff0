package services

import (
	"context"
	"fmt"
	"time"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/app/models/dto"
	"github.com/oussamael/internhub/internal/app/repositories"
	"github.com/oussamael/internhub/internal/pkg/apperrors"
	"github.com/oussamael/internhub/internal/pkg/logger"
	"github.com/oussamael/internhub/internal/scheduler"
)

// sweepLockKey guards the anomaly sweep across processes.
const sweepLockKey = "sweep:anomaly"

type sweepTaskRepo interface {
	MarkOverdueFlags(ctx context.Context, now time.Time) (int64, error)
	ListOverdue(ctx context.Context, now time.Time) ([]repositories.OverdueTask, error)
}

type sweepInternshipRepo interface {
	ListStalled(ctx context.Context, cutoff time.Time) ([]repositories.StalledInternship, error)
}

type obligationRaiser interface {
	Raise(ctx context.Context, alert *models.Alert) (bool, error)
}

// SweepService runs the periodic anomaly sweep: refresh overdue task
// flags, raise obligations for overdue tasks, and flag internships that
// stopped moving. One record failing never stops the rest; errors are
// collected into the report.
type SweepService struct {
	tasks          sweepTaskRepo
	internships    sweepInternshipRepo
	obligations    obligationRaiser
	locker         scheduler.Locker
	stallThreshold time.Duration
	lockTTL        time.Duration
	clock          func() time.Time
}

// NewSweepService creates a new SweepService
func NewSweepService(
	tasks sweepTaskRepo,
	internships sweepInternshipRepo,
	obligations obligationRaiser,
	locker scheduler.Locker,
	stallThreshold, lockTTL time.Duration,
) *SweepService {
	return &SweepService{
		tasks:          tasks,
		internships:    internships,
		obligations:    obligations,
		locker:         locker,
		stallThreshold: stallThreshold,
		lockTTL:        lockTTL,
		clock:          time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *SweepService) WithClock(clock func() time.Time) *SweepService {
	s.clock = clock
	return s
}

// RunAnomalySweep executes one sweep under the run-lock. A second caller
// while a sweep is in flight gets ErrSweepAlreadyRunning and no work
// happens. Running the sweep twice over unchanged data raises nothing
// the second time.
func (s *SweepService) RunAnomalySweep(ctx context.Context) (*dto.SweepReport, error) {
	acquired, err := s.locker.Acquire(ctx, sweepLockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquiring sweep lock: %w", err)
	}
	if !acquired {
		return nil, apperrors.ErrSweepAlreadyRunning
	}
	defer func() {
		if err := s.locker.Release(ctx, sweepLockKey); err != nil {
			logger.Warn().Err(err).Msg("Failed to release sweep lock")
		}
	}()

	now := s.clock()
	report := &dto.SweepReport{StartedAt: now}

	s.sweepOverdueTasks(ctx, now, report)
	s.sweepStalledInternships(ctx, now, report)

	report.FinishedAt = s.clock()
	logger.Info().
		Int("overdue_tasks", report.OverdueTasksFound).
		Int64("flag_updates", report.OverdueFlagUpdates).
		Int("stalled", report.StalledInternships).
		Int("alerts_raised", report.AlertsRaised).
		Int("item_errors", len(report.ItemErrors)).
		Msg("Anomaly sweep finished")
	return report, nil
}

func (s *SweepService) sweepOverdueTasks(ctx context.Context, now time.Time, report *dto.SweepReport) {
	updates, err := s.tasks.MarkOverdueFlags(ctx, now)
	if err != nil {
		report.ItemErrors = append(report.ItemErrors, dto.SweepItemError{
			Kind: "overdue_flags", Reason: err.Error(),
		})
	} else {
		report.OverdueFlagUpdates = updates
	}

	overdue, err := s.tasks.ListOverdue(ctx, now)
	if err != nil {
		report.ItemErrors = append(report.ItemErrors, dto.SweepItemError{
			Kind: "overdue_listing", Reason: err.Error(),
		})
		return
	}
	report.OverdueTasksFound = len(overdue)

	for _, task := range overdue {
		if task.SupervisorUserID == nil {
			// nobody to notify; the flag recompute above still covered it
			continue
		}
		taskID := task.TaskID
		raised, err := s.obligations.Raise(ctx, &models.Alert{
			InternshipID: task.InternshipID,
			TaskID:       &taskID,
			Type:         models.AlertTaskOverdue,
			UserID:       *task.SupervisorUserID,
			Title:        "Overdue task: " + task.Name,
			Message: fmt.Sprintf("Task %q blew its deadline on %s",
				task.Name, task.Deadline.Format("2006-01-02")),
		})
		if err != nil {
			report.ItemErrors = append(report.ItemErrors, dto.SweepItemError{
				Kind: "task", ID: task.TaskID, Reason: err.Error(),
			})
			continue
		}
		if raised {
			report.AlertsRaised++
		}
	}
}

func (s *SweepService) sweepStalledInternships(ctx context.Context, now time.Time, report *dto.SweepReport) {
	cutoff := now.Add(-s.stallThreshold)
	stalled, err := s.internships.ListStalled(ctx, cutoff)
	if err != nil {
		report.ItemErrors = append(report.ItemErrors, dto.SweepItemError{
			Kind: "stalled_listing", Reason: err.Error(),
		})
		return
	}
	report.StalledInternships = len(stalled)

	for _, internship := range stalled {
		if internship.SupervisorUserID == nil {
			continue
		}
		raised, err := s.obligations.Raise(ctx, &models.Alert{
			InternshipID: internship.ID,
			Type:         models.AlertInternshipStalled,
			UserID:       *internship.SupervisorUserID,
			Title:        "Stalled internship: " + internship.Title,
			Message: fmt.Sprintf("No activity since %s",
				internship.UpdatedAt.Format("2006-01-02")),
		})
		if err != nil {
			report.ItemErrors = append(report.ItemErrors, dto.SweepItemError{
				Kind: "internship", ID: internship.ID, Reason: err.Error(),
			})
			continue
		}
		if raised {
			report.AlertsRaised++
		}
	}
}
