package models

import "time"

// TaskState is the status of a single internship task.
type TaskState string

const (
	TaskTodo       TaskState = "todo"
	TaskInProgress TaskState = "in_progress"
	TaskDone       TaskState = "done"
)

// Task belongs to exactly one internship and optionally one assignee.
type Task struct {
	ID           int64      `json:"id"`
	InternshipID int64      `json:"internshipId"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	State        TaskState  `json:"state"`
	Priority     int        `json:"priority"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	AssigneeID   *int64     `json:"assigneeId,omitempty"`
	IsOverdue    bool       `json:"isOverdue"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Overdue reports whether the task has blown its deadline and is still
// open. This is the derived value; the stored IsOverdue flag is refreshed
// from it by the anomaly sweep.
func (t *Task) Overdue(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now) && t.State != TaskDone
}

// DueToday reports whether the deadline falls within the calendar day of
// now and the task is still open.
func (t *Task) DueToday(now time.Time) bool {
	if t.Deadline == nil || t.State == TaskDone {
		return false
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	return !t.Deadline.Before(dayStart) && t.Deadline.Before(dayEnd)
}
