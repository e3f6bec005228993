package domain

import (
	"context"
	"time"
)

// Role is one of the closed set of account roles.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleExpert     Role = "expert"
	RoleClient     Role = "client"
)

// DefaultRole is assigned to rows created from auth-provider events.
const DefaultRole = RoleClient

// ValidRoles returns all valid roles
func ValidRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleExpert, RoleClient}
}

// IsValid checks if the role is part of the closed set (case-sensitive).
func (r Role) IsValid() bool {
	for _, valid := range ValidRoles() {
		if r == valid {
			return true
		}
	}
	return false
}

type User struct {
	ID        string    `json:"id"` // auth provider subject id
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	TeamID    *string   `json:"team_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasTeam reports whether the user has been attached to a team.
func (u *User) HasTeam() bool {
	return u.TeamID != nil && *u.TeamID != ""
}

// UserRepository reads and writes the users table. Lookups return
// (nil, nil) when no row matches.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailInsensitive(ctx context.Context, email string) (*User, error)
	// Upsert inserts the row or updates email and name on conflict. It
	// reports whether a new row was inserted.
	Upsert(ctx context.Context, user *User) (bool, error)
	// ReplacePlaceholder moves the placeholder row's role and team onto the
	// subject-id row in one transaction and deletes the placeholder.
	ReplacePlaceholder(ctx context.Context, placeholderID string, user *User) error
	Delete(ctx context.Context, id string) error
}
