// Package roles implements permission-gated role administration on top of
// the RBAC store: create/update/delete roles, replace permission grants,
// replace membership, and edit the hierarchy.
package roles

import "github.com/jamiyah-app/jamiyah/internal/rbac"

// RoleSpec is the input for creating a role. Identifiers are chosen by
// administrators, not generated.
type RoleSpec struct {
	ID          string         `json:"id" validate:"required,min=3,roleid"`
	Name        string         `json:"name" validate:"required,min=3"`
	Description string         `json:"description"`
	Scope       rbac.ScopeKind `json:"scope" validate:"omitempty,oneof=global region"`
}

// RoleUpdate carries the editable role fields; nil means leave unchanged.
type RoleUpdate struct {
	Name        *string `json:"name" validate:"omitempty,min=3"`
	Description *string `json:"description"`
}

// Overview aggregates everything the administration UI shows on one page.
type Overview struct {
	Roles       []rbac.Role            `json:"roles"`
	Permissions []rbac.Permission      `json:"permissions"`
	Hierarchy   []rbac.HierarchyEdge   `json:"hierarchy"`
	Assignments []rbac.RoleAssignment  `json:"assignments"`
	Grants      []rbac.PermissionGrant `json:"grants"`
}
