package models

import "time"

// AlertType classifies a follow-up obligation raised by the anomaly sweep.
type AlertType string

const (
	AlertTaskOverdue       AlertType = "task_overdue"
	AlertInternshipStalled AlertType = "internship_stalled"
	AlertDefensePending    AlertType = "defense_pending"
)

// AlertState tracks whether an obligation still needs action.
type AlertState string

const (
	AlertOpen         AlertState = "open"
	AlertAcknowledged AlertState = "acknowledged"
	AlertResolved     AlertState = "resolved"
)

// Alert is a follow-up obligation addressed to a responsible user. Alerts
// are raised by the sweep (or a defense scheduling) and cleared when acted
// upon.
type Alert struct {
	ID           int64      `json:"id"`
	InternshipID int64      `json:"internshipId"`
	TaskID       *int64     `json:"taskId,omitempty"`
	Type         AlertType  `json:"type"`
	State        AlertState `json:"state"`
	UserID       int64      `json:"userId"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	CreatedAt    time.Time  `json:"createdAt"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
}

// IsOpen reports whether the obligation still blocks a new one of the same
// type for the same record (the sweep dedup guard).
func (a *Alert) IsOpen() bool {
	return a.State == AlertOpen || a.State == AlertAcknowledged
}
