package services

import (
	"context"
	"errors"

	"github.com/oussamael/internhub/internal/pkg/apperrors"
	"github.com/oussamael/internhub/internal/pkg/logger"
	"github.com/oussamael/internhub/internal/scheduler"
)

// AnomalySweepJob adapts SweepService to the scheduler. A sweep already
// in flight (manual trigger, or another instance holding the run-lock)
// is a skip, not a failure.
type AnomalySweepJob struct {
	sweeps *SweepService
}

// NewAnomalySweepJob creates the scheduled wrapper around svc.
func NewAnomalySweepJob(svc *SweepService) *AnomalySweepJob {
	return &AnomalySweepJob{sweeps: svc}
}

var _ scheduler.Job = (*AnomalySweepJob)(nil)

func (j *AnomalySweepJob) Name() string { return "anomaly_sweep" }

func (j *AnomalySweepJob) Run(ctx context.Context) error {
	_, err := j.sweeps.RunAnomalySweep(ctx)
	if errors.Is(err, apperrors.ErrSweepAlreadyRunning) {
		logger.Info().Msg("Anomaly sweep already running, skipping scheduled run")
		return nil
	}
	return err
}
