package dto

import "time"

// SweepItemError records one record the sweep failed to process. The sweep
// keeps going past these.
type SweepItemError struct {
	Kind   string `json:"kind"`
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// SweepReport summarizes one anomaly sweep run.
type SweepReport struct {
	StartedAt          time.Time        `json:"startedAt"`
	FinishedAt         time.Time        `json:"finishedAt"`
	OverdueTasksFound  int              `json:"overdueTasksFound"`
	OverdueFlagUpdates int64            `json:"overdueFlagUpdates"`
	StalledInternships int              `json:"stalledInternships"`
	AlertsRaised       int              `json:"alertsRaised"`
	ItemErrors         []SweepItemError `json:"itemErrors,omitempty"`
}
