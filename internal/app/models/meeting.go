package models

import "time"

// MeetingState is the status of a follow-up meeting.
type MeetingState string

const (
	MeetingScheduled MeetingState = "scheduled"
	MeetingConfirmed MeetingState = "confirmed"
	MeetingCompleted MeetingState = "completed"
	MeetingCancelled MeetingState = "cancelled"
)

// Meeting links an organizer and participants to an internship.
type Meeting struct {
	ID             int64        `json:"id"`
	InternshipID   int64        `json:"internshipId"`
	Subject        string       `json:"subject"`
	OrganizerID    int64        `json:"organizerId"`
	ParticipantIDs []int64      `json:"participantIds,omitempty"`
	ScheduledAt    time.Time    `json:"scheduledAt"`
	State          MeetingState `json:"state"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Upcoming reports whether the meeting is strictly in the future and not
// already completed or cancelled.
func (m *Meeting) Upcoming(now time.Time) bool {
	return m.ScheduledAt.After(now) && m.State != MeetingCompleted && m.State != MeetingCancelled
}
