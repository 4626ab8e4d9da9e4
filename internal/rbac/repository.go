package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jamiyah-app/jamiyah/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for RBAC data.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, roleID string) (Role, error) {
	const query = `SELECT id, name, description, scope, created_at, updated_at FROM roles WHERE id = $1`
	var role Role
	err := r.pool.QueryRow(ctx, query, roleID).
		Scan(&role.ID, &role.Name, &role.Description, &role.Scope, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a new role. Returns ErrConflict when the id is taken.
func (r *Repository) CreateRole(ctx context.Context, role Role) error {
	const query = `INSERT INTO roles (id, name, description, scope, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())`
	if _, err := r.pool.Exec(ctx, query, role.ID, role.Name, role.Description, role.Scope); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: role %s", ErrConflict, role.ID)
		}
		return err
	}
	return nil
}

// UpdateRole updates the name and/or description of an existing role.
func (r *Repository) UpdateRole(ctx context.Context, roleID string, name, description *string) error {
	const query = `UPDATE roles
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, roleID, name, description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRole removes every association referencing the role, then the role
// itself, in one transaction. A crash mid-sequence leaves either the pre- or
// the post-state.
func (r *Repository) DeleteRole(ctx context.Context, roleID string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_hierarchy WHERE parent_role_id = $1 OR child_role_id = $1`, roleID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, roleID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetPermission fetches a permission by id.
func (r *Repository) GetPermission(ctx context.Context, permissionID string) (Permission, error) {
	const query = `SELECT id, name, description, action FROM permissions WHERE id = $1`
	var perm Permission
	err := r.pool.QueryRow(ctx, query, permissionID).
		Scan(&perm.ID, &perm.Name, &perm.Description, &perm.Action)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrNotFound
		}
		return Permission{}, err
	}
	return perm, nil
}

// GetUserRoles returns the role ids held by a user; empty when none.
func (r *Repository) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	return r.queryIDs(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1`, userID)
}

// GetRolePermissions returns the permission ids directly granted to a role.
func (r *Repository) GetRolePermissions(ctx context.Context, roleID string) ([]string, error) {
	return r.queryIDs(ctx, `SELECT permission_id FROM role_permissions WHERE role_id = $1`, roleID)
}

// ReplaceUserRoles atomically swaps a user's assignments for the given set.
func (r *Repository) ReplaceUserRoles(ctx context.Context, userID string, roleIDs []string) error {
	roleIDs = dedupe(roleIDs)
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceRolePermissions atomically swaps a role's grants for the given set.
func (r *Repository) ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	permissionIDs = dedupe(permissionIDs)
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		for _, permissionID := range permissionIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, permissionID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceRoleMembership atomically sets exactly which users hold a role.
func (r *Repository) ReplaceRoleMembership(ctx context.Context, roleID string, userIDs []string) error {
	userIDs = dedupe(userIDs)
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		for _, userID := range userIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceHierarchyEdges atomically sets the children of a parent role.
func (r *Repository) ReplaceHierarchyEdges(ctx context.Context, parentRoleID string, childRoleIDs []string) error {
	childRoleIDs = dedupe(childRoleIDs)
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_hierarchy WHERE parent_role_id = $1`, parentRoleID); err != nil {
			return err
		}
		for _, childRoleID := range childRoleIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO role_hierarchy (parent_role_id, child_role_id) VALUES ($1, $2)`, parentRoleID, childRoleID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRoles returns all roles ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, scope, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Scope, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ListPermissions returns all permissions ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, action FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.Action); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// ListHierarchyEdges returns the full edge set.
func (r *Repository) ListHierarchyEdges(ctx context.Context) ([]HierarchyEdge, error) {
	rows, err := r.pool.Query(ctx, `SELECT parent_role_id, child_role_id FROM role_hierarchy`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var edges []HierarchyEdge
	for rows.Next() {
		var edge HierarchyEdge
		if err := rows.Scan(&edge.ParentRoleID, &edge.ChildRoleID); err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

// ListRoleAssignments returns the full user↔role map.
func (r *Repository) ListRoleAssignments(ctx context.Context) ([]RoleAssignment, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, role_id FROM user_roles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assignments []RoleAssignment
	for rows.Next() {
		var a RoleAssignment
		if err := rows.Scan(&a.UserID, &a.RoleID); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// ListPermissionGrants returns the full role↔permission map.
func (r *Repository) ListPermissionGrants(ctx context.Context) ([]PermissionGrant, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_id, permission_id FROM role_permissions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []PermissionGrant
	for rows.Next() {
		var g PermissionGrant
		if err := rows.Scan(&g.RoleID, &g.PermissionID); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// UserContext fetches the account flags and member locality for a user.
func (r *Repository) UserContext(ctx context.Context, userID string) (UserContext, error) {
	const query = `
		SELECT u.id, u.active, u.member_id, m.locality_id
		FROM users u
		LEFT JOIN members m ON u.member_id = m.id
		WHERE u.id = $1`
	var uc UserContext
	err := r.pool.QueryRow(ctx, query, userID).
		Scan(&uc.UserID, &uc.Active, &uc.MemberID, &uc.LocalityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserContext{}, ErrNotFound
		}
		return UserContext{}, err
	}
	return uc, nil
}

func (r *Repository) queryIDs(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ Store = (*Repository)(nil)
