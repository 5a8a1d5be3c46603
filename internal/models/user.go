package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTrainer UserRole = "TRAINER"
	RoleHR      UserRole = "HR"
	RoleDCC     UserRole = "DCC"
	RoleViewer  UserRole = "VIEWER"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleHR, RoleDCC, RoleViewer:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Actor is the authenticated principal performing a core operation. It is
// passed explicitly instead of being read from request-scoped state.
type Actor struct {
	ID       string
	Username string
	Role     UserRole
}

// HasRole reports whether the actor holds any of the given roles.
func (a *Actor) HasRole(roles ...UserRole) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role     *UserRole
	Search   string
	Page     int
	PageSize int
}
