package rbac

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrConflict indicates a creation with an identifier that already exists.
	ErrConflict = errors.New("rbac: conflict")
	// ErrUnavailable indicates the backing store could not be queried. It is
	// never folded into a "denied" decision so callers can tell "no" apart
	// from "couldn't tell".
	ErrUnavailable = errors.New("rbac: authorization unavailable")
)

// Store is the persistence contract the engine and the administration
// services depend on. Implementations perform no authorization themselves.
// All bulk-replace operations and DeleteRole are atomic: a failure leaves
// either the pre- or the post-state, never a partial one.
type Store interface {
	GetRole(ctx context.Context, roleID string) (Role, error)
	CreateRole(ctx context.Context, role Role) error
	UpdateRole(ctx context.Context, roleID string, name, description *string) error
	// DeleteRole removes all assignments, grants, and hierarchy edges
	// referencing the role, then the role itself, in one transaction.
	DeleteRole(ctx context.Context, roleID string) error

	GetPermission(ctx context.Context, permissionID string) (Permission, error)

	GetUserRoles(ctx context.Context, userID string) ([]string, error)
	GetRolePermissions(ctx context.Context, roleID string) ([]string, error)

	ReplaceUserRoles(ctx context.Context, userID string, roleIDs []string) error
	ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error
	ReplaceRoleMembership(ctx context.Context, roleID string, userIDs []string) error
	ReplaceHierarchyEdges(ctx context.Context, parentRoleID string, childRoleIDs []string) error

	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	ListHierarchyEdges(ctx context.Context) ([]HierarchyEdge, error)
	ListRoleAssignments(ctx context.Context) ([]RoleAssignment, error)
	ListPermissionGrants(ctx context.Context) ([]PermissionGrant, error)

	// UserContext fetches the account flags and territory link the engine
	// needs when evaluating region-scoped roles.
	UserContext(ctx context.Context, userID string) (UserContext, error)
}

// dedupe stores each id once, preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
