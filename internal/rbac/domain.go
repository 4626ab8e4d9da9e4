// Package rbac implements the authorization decision engine: roles,
// permissions, the role hierarchy, territory scoping, and the single
// decision function the rest of the application calls.
package rbac

import "time"

// ScopeKind states how far a role's grants reach geographically.
type ScopeKind string

const (
	// ScopeGlobal roles act anywhere.
	ScopeGlobal ScopeKind = "global"
	// ScopeRegion roles only act on resources inside their holder's region.
	ScopeRegion ScopeKind = "region"
)

// ActionKind classifies what a permission lets its holder do.
type ActionKind string

const (
	ActionRead  ActionKind = "read"
	ActionWrite ActionKind = "write"
	ActionOther ActionKind = "other"
)

// Role is a named bundle of permissions assignable to users.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Scope       ScopeKind `json:"scope"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission is an atomic capability identifier.
type Permission struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Action      ActionKind `json:"action"`
}

// HierarchyEdge is a directed parent→child link meaning the parent acts on
// behalf of the child for write-target scoping.
type HierarchyEdge struct {
	ParentRoleID string `json:"parent_role_id"`
	ChildRoleID  string `json:"child_role_id"`
}

// RoleAssignment links a user to a role.
type RoleAssignment struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
}

// PermissionGrant links a role to a permission it directly holds. Hierarchy
// never adds grants; it only affects write-target scoping.
type PermissionGrant struct {
	RoleID       string `json:"role_id"`
	PermissionID string `json:"permission_id"`
}

// UserContext carries the slice of the user record the engine needs: whether
// the account is active and where its linked member sits in the territory tree.
type UserContext struct {
	UserID     string `json:"user_id"`
	Active     bool   `json:"active"`
	MemberID   *int64 `json:"member_id,omitempty"`
	LocalityID *int64 `json:"locality_id,omitempty"`
}
