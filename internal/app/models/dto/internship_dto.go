package dto

import (
	"time"

	"github.com/oussamael/internhub/internal/app/models"
)

// CreateInternshipRequest represents a request to create an internship
type CreateInternshipRequest struct {
	Title        string     `json:"title" binding:"required"`
	Type         string     `json:"type" binding:"required"`
	Description  string     `json:"description"`
	StudentIDs   []int64    `json:"studentIds" binding:"required,min=1"`
	SupervisorID *int64     `json:"supervisorId"`
	AreaID       *int64     `json:"areaId"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
}

// UpdateInternshipRequest represents a partial update of an internship's
// descriptive fields. Lifecycle state is never updated this way.
type UpdateInternshipRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	SupervisorID *int64     `json:"supervisorId"`
	AreaID       *int64     `json:"areaId"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
}

// TransitionRequest represents a lifecycle transition request. The payload
// fields are only read by the transitions that need them: schedule_defense
// consumes the defense fields, evaluate consumes the grades and feedback.
type TransitionRequest struct {
	Transition   string     `json:"transition" binding:"required"`
	DefenseDate  *time.Time `json:"defenseDate"`
	DefenseRoom  string     `json:"defenseRoom"`
	JuryIDs      []int64    `json:"juryIds"`
	DefenseGrade *float64   `json:"defenseGrade"`
	FinalGrade   *float64   `json:"finalGrade"`
	Feedback     string     `json:"feedback"`
}

// TransitionResponse reports the state reached by a transition.
type TransitionResponse struct {
	ID         int64                  `json:"id"`
	Transition string                 `json:"transition"`
	From       models.InternshipState `json:"from"`
	To         models.InternshipState `json:"to"`
}

// InternshipListResponse wraps a scoped internship listing.
type InternshipListResponse struct {
	Internships []*models.Internship `json:"internships"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	PageSize    int                  `json:"pageSize"`
}
