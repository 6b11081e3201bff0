package dto

import (
	"time"

	"github.com/oussamael/internhub/internal/app/models"
)

// SeriesPoint is one label/value pair of an ordered chart series.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSeries is an ordered series; order is part of the contract so
// clients can render without sorting.
type ChartSeries struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
}

// InternshipCounters partitions the scoped internships by lifecycle state.
// Every state appears even when its count is zero.
type InternshipCounters struct {
	Total   int64                           `json:"total"`
	ByState map[models.InternshipState]int64 `json:"byState"`
}

// TaskCounters summarizes the scoped tasks against a single reference
// instant.
type TaskCounters struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Overdue   int64 `json:"overdue"`
	DueToday  int64 `json:"dueToday"`
}

// MeetingCounters summarizes the scoped meetings.
type MeetingCounters struct {
	Total    int64 `json:"total"`
	Upcoming int64 `json:"upcoming"`
}

// ReviewCounters partitions documents or presentations by review state.
type ReviewCounters struct {
	Total   int64                       `json:"total"`
	ByState map[models.ReviewState]int64 `json:"byState"`
}

// DashboardPayload is the aggregation result for one caller. All counters
// and series are computed against the same GeneratedAt instant and the
// same scope; a payload is either complete or not returned at all.
type DashboardPayload struct {
	Role          models.Role        `json:"role"`
	GeneratedAt   time.Time          `json:"generatedAt"`
	RefreshHint   string             `json:"refreshHint"`
	Internships   InternshipCounters `json:"internships"`
	Students      int64              `json:"students"`
	Supervisors   int64              `json:"supervisors"`
	Tasks         TaskCounters       `json:"tasks"`
	Meetings      MeetingCounters    `json:"meetings"`
	Documents     ReviewCounters     `json:"documents"`
	Presentations ReviewCounters     `json:"presentations"`
	OpenAlerts    int64              `json:"openAlerts"`
	Charts        []ChartSeries      `json:"charts"`
}
