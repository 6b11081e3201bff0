package models

import "time"

// Student is a profile linked to a user account; an internship references
// one or more students.
type Student struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	StudentNumber  string    `json:"studentNumber"`
	Program        string    `json:"program,omitempty"`
	GraduationYear *int      `json:"graduationYear,omitempty"`
	SkillIDs       []int64   `json:"skillIds,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// FullName is the display name used in obligations and dashboards.
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
