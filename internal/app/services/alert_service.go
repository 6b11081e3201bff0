package services

import (
	"context"
	"errors"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/app/repositories"
	"github.com/oussamael/internhub/internal/pkg/apperrors"
)

type alertRepo interface {
	ListOpenForUser(ctx context.Context, userID int64) ([]*models.Alert, error)
	Acknowledge(ctx context.Context, id, userID int64) error
	Resolve(ctx context.Context, id, userID int64) error
}

// AlertService exposes a user's follow-up obligations. Recipients only
// ever see and act on their own alerts.
type AlertService struct {
	alerts alertRepo
}

// NewAlertService creates a new AlertService
func NewAlertService(alerts alertRepo) *AlertService {
	return &AlertService{alerts: alerts}
}

// ListOpen returns the caller's unresolved obligations.
func (s *AlertService) ListOpen(ctx context.Context, userID int64) ([]*models.Alert, error) {
	return s.alerts.ListOpenForUser(ctx, userID)
}

// Acknowledge marks the caller's alert as seen.
func (s *AlertService) Acknowledge(ctx context.Context, userID, alertID int64) error {
	return mapAlertNotFound(s.alerts.Acknowledge(ctx, alertID, userID))
}

// Resolve closes the caller's alert.
func (s *AlertService) Resolve(ctx context.Context, userID, alertID int64) error {
	return mapAlertNotFound(s.alerts.Resolve(ctx, alertID, userID))
}

func mapAlertNotFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrAlertNotFound) {
		return apperrors.ErrAlertNotFound
	}
	return err
}
