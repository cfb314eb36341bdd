// internal/models/user.go
package models

// Role controls what a user may do across the service.
type Role string

const (
	RoleResearcher  Role = "researcher"
	RoleGrantOffice Role = "grant_office"
	RoleAdmin       Role = "admin"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleResearcher, RoleGrantOffice, RoleAdmin:
		return true
	}
	return false
}

// CanReview reports whether the role may view and decide on all submissions.
func (r Role) CanReview() bool {
	return r == RoleGrantOffice || r == RoleAdmin
}

// User is the identity consumed by the form engine. Authentication happens
// upstream; the service trusts the identity it is handed.
type User struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email,omitempty" db:"email"`
	Phone string `json:"phone,omitempty" db:"phone"`
	Role  Role   `json:"role" db:"role"`
}
