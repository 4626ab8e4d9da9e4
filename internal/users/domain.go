// Package users implements permission-gated user account administration:
// listing, creation, editing (with self-edit guards), and role assignment.
package users

import "time"

// User represents a user account for management. The password hash never
// leaves the repository layer.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Active    bool      `json:"active"`
	MemberID  *int64    `json:"member_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserWithRoles augments a user with its role ids for the admin page.
type UserWithRoles struct {
	User
	RoleIDs []string `json:"role_ids"`
}

// CreateInput is the input for creating an account.
type CreateInput struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
	MemberID *int64 `json:"member_id"`
}

// UpdateInput is the input for the combined account edit form: activation,
// member link, optional password reset, and the full new role set.
type UpdateInput struct {
	Active   bool     `json:"active"`
	MemberID *int64   `json:"member_id"`
	Password string   `json:"password" validate:"omitempty,min=6"`
	RoleIDs  []string `json:"role_ids"`
}
