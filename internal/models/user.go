package models

// Role is the campus role attached to an authenticated user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStudent  Role = "student"
	RoleFaculty  Role = "faculty"
	RoleFacility Role = "facility"
)

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleFaculty, RoleFacility:
		return true
	}
	return false
}

// User is the identity resolved by the identity provider.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`
}

// IsAdmin reports whether the user administers reservations.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
