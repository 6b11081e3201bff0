package models

import "time"

// Role is the access level a user account carries. It decides the scope
// predicates applied to every read.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinator Role = "coordinator"
	RoleSupervisor  Role = "supervisor"
	RoleStudent     Role = "student"
)

// ValidRole reports whether r is one of the four known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleCoordinator, RoleSupervisor, RoleStudent:
		return true
	}
	return false
}

// Unrestricted reports whether the role sees every record.
func (r Role) Unrestricted() bool {
	return r == RoleAdmin || r == RoleCoordinator
}

// User defines the user model based on the 'users' table.
type User struct {
	ID          int64      `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Password    string     `json:"-" db:"password"`
	FirstName   string     `json:"firstName" db:"first_name"`
	LastName    string     `json:"lastName" db:"last_name"`
	Role        Role       `json:"role" db:"role"`
	IsActive    bool       `json:"isActive" db:"is_active"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName returns the display name for obligations and logs.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
