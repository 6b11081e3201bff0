package models

import "time"

// Supervisor is a profile linked to a user account with a capacity limit.
type Supervisor struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Title     string    `json:"title,omitempty"`
	Capacity  int       `json:"capacity"`
	AreaIDs   []int64   `json:"areaIds,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName is the display name used in rankings and obligations.
func (s *Supervisor) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Utilization is the active internship count divided by capacity. A zero
// capacity yields 0 rather than a division error.
func (s *Supervisor) Utilization(activeInternships int) float64 {
	if s.Capacity <= 0 {
		return 0
	}
	return float64(activeInternships) / float64(s.Capacity)
}
