package models

// Area is an expertise/activity domain internships and supervisors are
// tagged with.
type Area struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Skill is a competency attached to students.
type Skill struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}
