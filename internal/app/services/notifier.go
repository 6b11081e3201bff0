package services

import (
	"context"
	"time"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/pkg/logger"
)

// Notifier delivers follow-up notices outside the system of record.
// Implementations are best-effort collaborators: a delivery failure never
// fails the operation that triggered it.
type Notifier interface {
	// NotifyObligation announces a newly raised obligation to its
	// recipient.
	NotifyObligation(ctx context.Context, alert *models.Alert)
}

// LogNotifier writes notices to the structured log. It stands in for mail
// or chat delivery, which stays behind this interface.
type LogNotifier struct{}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// NotifyObligation logs the obligation.
func (n *LogNotifier) NotifyObligation(ctx context.Context, alert *models.Alert) {
	logger.Info().
		Int64("user_id", alert.UserID).
		Int64("internship_id", alert.InternshipID).
		Str("type", string(alert.Type)).
		Str("title", alert.Title).
		Msg("Obligation raised")
}

// ObligationService raises follow-up obligations with the open-alert
// dedup guard and hands them to the notifier. Used by both the anomaly
// sweep and the defense scheduling side effect.
type ObligationService struct {
	alerts      obligationAlertRepo
	supervisors supervisorUserResolver
	notifier    Notifier
}

type obligationAlertRepo interface {
	Create(ctx context.Context, alert *models.Alert) error
	HasOpenAlert(ctx context.Context, internshipID int64, taskID *int64, alertType models.AlertType) (bool, error)
}

type supervisorUserResolver interface {
	UserIDOf(ctx context.Context, supervisorID int64) (int64, error)
}

// NewObligationService creates a new ObligationService
func NewObligationService(alerts obligationAlertRepo, supervisors supervisorUserResolver, notifier Notifier) *ObligationService {
	return &ObligationService{alerts: alerts, supervisors: supervisors, notifier: notifier}
}

// Raise creates the obligation unless an open one of the same type
// already targets the record. Returns whether a new alert was created.
func (s *ObligationService) Raise(ctx context.Context, alert *models.Alert) (bool, error) {
	exists, err := s.alerts.HasOpenAlert(ctx, alert.InternshipID, alert.TaskID, alert.Type)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return false, err
	}
	if s.notifier != nil {
		s.notifier.NotifyObligation(ctx, alert)
	}
	return true, nil
}

// RaiseDefenseObligation notifies the supervisor that a defense was
// scheduled. Failures are logged only; the transition already committed.
func (s *ObligationService) RaiseDefenseObligation(ctx context.Context, internship *models.Internship, defenseDate time.Time) {
	if internship.SupervisorID == nil {
		return
	}
	userID, err := s.supervisors.UserIDOf(ctx, *internship.SupervisorID)
	if err != nil {
		logger.Warn().Err(err).Int64("internship_id", internship.ID).
			Msg("Failed to resolve supervisor for defense obligation")
		return
	}

	alert := &models.Alert{
		InternshipID: internship.ID,
		Type:         models.AlertDefensePending,
		UserID:       userID,
		Title:        "Defense scheduled: " + internship.Title,
		Message:      "Defense scheduled for " + defenseDate.Format("2006-01-02 15:04"),
	}
	if _, err := s.Raise(ctx, alert); err != nil {
		logger.Warn().Err(err).Int64("internship_id", internship.ID).
			Msg("Failed to raise defense obligation")
	}
}
