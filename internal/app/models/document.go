package models

import "time"

// ReviewState is the review status shared by documents and presentations.
type ReviewState string

const (
	ReviewDraft       ReviewState = "draft"
	ReviewSubmitted   ReviewState = "submitted"
	ReviewUnderReview ReviewState = "under_review"
	ReviewApproved    ReviewState = "approved"
	ReviewRejected    ReviewState = "rejected"
)

// AllReviewStates lists review states in workflow order for stable
// dashboard partitions.
var AllReviewStates = []ReviewState{
	ReviewDraft, ReviewSubmitted, ReviewUnderReview, ReviewApproved, ReviewRejected,
}

// Document is a deliverable attached to an internship. Storage and
// versioning live elsewhere; only the review state is tracked here.
type Document struct {
	ID           int64       `json:"id"`
	InternshipID int64       `json:"internshipId"`
	Name         string      `json:"name"`
	State        ReviewState `json:"state"`
	UploaderID   *int64      `json:"uploaderId,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Presentation is the defense deck for an internship, reviewed like a
// document.
type Presentation struct {
	ID           int64       `json:"id"`
	InternshipID int64       `json:"internshipId"`
	Title        string      `json:"title"`
	State        ReviewState `json:"state"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}
