package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store, optionally backed by a JSON snapshot
// file. It exists as a stopgap deployment mode and as the test double; the
// engine only ever sees the Store interface.
type MemoryStore struct {
	mu sync.RWMutex

	path string

	roles       map[string]Role
	permissions map[string]Permission
	userRoles   map[string][]string
	grants      map[string][]string
	edges       []HierarchyEdge
	users       map[string]UserContext
}

type memorySnapshot struct {
	Roles           []Role            `json:"roles"`
	Permissions     []Permission      `json:"permissions"`
	UserRoles       []RoleAssignment  `json:"userRoles"`
	RolePermissions []PermissionGrant `json:"rolePermissions"`
	RoleHierarchy   []HierarchyEdge   `json:"roleHierarchy"`
	Users           []UserContext     `json:"users"`
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		roles:       make(map[string]Role),
		permissions: make(map[string]Permission),
		userRoles:   make(map[string][]string),
		grants:      make(map[string][]string),
		users:       make(map[string]UserContext),
	}
}

// OpenMemoryStore loads a JSON snapshot from path; subsequent mutations are
// persisted back to the same file.
func OpenMemoryStore(path string) (*MemoryStore, error) {
	store := NewMemoryStore()
	store.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("rbac: read snapshot: %w", err)
	}
	var snap memorySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("rbac: parse snapshot: %w", err)
	}
	for _, role := range snap.Roles {
		store.roles[role.ID] = role
	}
	for _, perm := range snap.Permissions {
		store.permissions[perm.ID] = perm
	}
	for _, a := range snap.UserRoles {
		store.userRoles[a.UserID] = append(store.userRoles[a.UserID], a.RoleID)
	}
	for _, g := range snap.RolePermissions {
		store.grants[g.RoleID] = append(store.grants[g.RoleID], g.PermissionID)
	}
	store.edges = snap.RoleHierarchy
	for _, uc := range snap.Users {
		store.users[uc.UserID] = uc
	}
	return store, nil
}

// SeedPermission installs a permission, replacing any previous definition.
func (s *MemoryStore) SeedPermission(perm Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions[perm.ID] = perm
}

// SeedUser installs a user context.
func (s *MemoryStore) SeedUser(uc UserContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[uc.UserID] = uc
}

// GetRole fetches a role by id.
func (s *MemoryStore) GetRole(ctx context.Context, roleID string) (Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[roleID]
	if !ok {
		return Role{}, ErrNotFound
	}
	return role, nil
}

// CreateRole inserts a new role.
func (s *MemoryStore) CreateRole(ctx context.Context, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[role.ID]; ok {
		return fmt.Errorf("%w: role %s", ErrConflict, role.ID)
	}
	now := time.Now()
	role.CreatedAt = now
	role.UpdatedAt = now
	return s.updateLocked(func() {
		s.roles[role.ID] = role
	})
}

// UpdateRole updates name and/or description of an existing role.
func (s *MemoryStore) UpdateRole(ctx context.Context, roleID string, name, description *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[roleID]
	if !ok {
		return ErrNotFound
	}
	if name != nil {
		role.Name = *name
	}
	if description != nil {
		role.Description = *description
	}
	role.UpdatedAt = time.Now()
	return s.updateLocked(func() {
		s.roles[roleID] = role
	})
}

// DeleteRole removes the role and every association referencing it. The
// whole mutation happens under one lock so readers never observe a partial
// cascade.
func (s *MemoryStore) DeleteRole(ctx context.Context, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return ErrNotFound
	}
	return s.updateLocked(func() {
		for userID, roleIDs := range s.userRoles {
			s.userRoles[userID] = removeID(roleIDs, roleID)
		}
		delete(s.grants, roleID)
		kept := s.edges[:0]
		for _, edge := range s.edges {
			if edge.ParentRoleID == roleID || edge.ChildRoleID == roleID {
				continue
			}
			kept = append(kept, edge)
		}
		s.edges = kept
		delete(s.roles, roleID)
	})
}

// GetPermission fetches a permission by id.
func (s *MemoryStore) GetPermission(ctx context.Context, permissionID string) (Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perm, ok := s.permissions[permissionID]
	if !ok {
		return Permission{}, ErrNotFound
	}
	return perm, nil
}

// GetUserRoles returns the role ids held by a user; empty when none.
func (s *MemoryStore) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.userRoles[userID]...), nil
}

// GetRolePermissions returns the permission ids directly granted to a role.
func (s *MemoryStore) GetRolePermissions(ctx context.Context, roleID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.grants[roleID]...), nil
}

// ReplaceUserRoles swaps a user's assignments for the given set.
func (s *MemoryStore) ReplaceUserRoles(ctx context.Context, userID string, roleIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(func() {
		s.userRoles[userID] = dedupe(roleIDs)
	})
}

// ReplaceRolePermissions swaps a role's grants for the given set.
func (s *MemoryStore) ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(func() {
		s.grants[roleID] = dedupe(permissionIDs)
	})
}

// ReplaceRoleMembership sets exactly which users hold a role.
func (s *MemoryStore) ReplaceRoleMembership(ctx context.Context, roleID string, userIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keep := make(map[string]struct{}, len(userIDs))
	for _, userID := range dedupe(userIDs) {
		keep[userID] = struct{}{}
	}
	return s.updateLocked(func() {
		for userID, roleIDs := range s.userRoles {
			if _, ok := keep[userID]; ok {
				continue
			}
			s.userRoles[userID] = removeID(roleIDs, roleID)
		}
		for userID := range keep {
			if !containsID(s.userRoles[userID], roleID) {
				s.userRoles[userID] = append(s.userRoles[userID], roleID)
			}
		}
	})
}

// ReplaceHierarchyEdges sets the children of a parent role.
func (s *MemoryStore) ReplaceHierarchyEdges(ctx context.Context, parentRoleID string, childRoleIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(func() {
		kept := s.edges[:0]
		for _, edge := range s.edges {
			if edge.ParentRoleID == parentRoleID {
				continue
			}
			kept = append(kept, edge)
		}
		s.edges = kept
		for _, childRoleID := range dedupe(childRoleIDs) {
			s.edges = append(s.edges, HierarchyEdge{ParentRoleID: parentRoleID, ChildRoleID: childRoleID})
		}
	})
}

// ListRoles returns all roles ordered by name.
func (s *MemoryStore) ListRoles(ctx context.Context) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roles := make([]Role, 0, len(s.roles))
	for _, role := range s.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

// ListPermissions returns all permissions ordered by name.
func (s *MemoryStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perms := make([]Permission, 0, len(s.permissions))
	for _, perm := range s.permissions {
		perms = append(perms, perm)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].Name < perms[j].Name })
	return perms, nil
}

// ListHierarchyEdges returns the full edge set.
func (s *MemoryStore) ListHierarchyEdges(ctx context.Context) ([]HierarchyEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]HierarchyEdge(nil), s.edges...), nil
}

// ListRoleAssignments returns the full user↔role map.
func (s *MemoryStore) ListRoleAssignments(ctx context.Context) ([]RoleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var assignments []RoleAssignment
	for userID, roleIDs := range s.userRoles {
		for _, roleID := range roleIDs {
			assignments = append(assignments, RoleAssignment{UserID: userID, RoleID: roleID})
		}
	}
	return assignments, nil
}

// ListPermissionGrants returns the full role↔permission map.
func (s *MemoryStore) ListPermissionGrants(ctx context.Context) ([]PermissionGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var grants []PermissionGrant
	for roleID, permissionIDs := range s.grants {
		for _, permissionID := range permissionIDs {
			grants = append(grants, PermissionGrant{RoleID: roleID, PermissionID: permissionID})
		}
	}
	return grants, nil
}

// UserContext fetches the account flags and member locality for a user.
func (s *MemoryStore) UserContext(ctx context.Context, userID string) (UserContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uc, ok := s.users[userID]
	if !ok {
		return UserContext{}, ErrNotFound
	}
	return uc, nil
}

type memoryState struct {
	roles       map[string]Role
	permissions map[string]Permission
	userRoles   map[string][]string
	grants      map[string][]string
	edges       []HierarchyEdge
	users       map[string]UserContext
}

// updateLocked applies mutate and persists the result. When the snapshot
// write fails the mutation is rolled back so the in-memory state never
// diverges from the file on disk.
func (s *MemoryStore) updateLocked(mutate func()) error {
	if s.path == "" {
		mutate()
		return nil
	}
	prev := s.copyStateLocked()
	mutate()
	if err := s.persistLocked(); err != nil {
		s.restoreLocked(prev)
		return err
	}
	return nil
}

func (s *MemoryStore) copyStateLocked() memoryState {
	prev := memoryState{
		roles:       make(map[string]Role, len(s.roles)),
		permissions: make(map[string]Permission, len(s.permissions)),
		userRoles:   make(map[string][]string, len(s.userRoles)),
		grants:      make(map[string][]string, len(s.grants)),
		edges:       append([]HierarchyEdge(nil), s.edges...),
		users:       make(map[string]UserContext, len(s.users)),
	}
	for id, role := range s.roles {
		prev.roles[id] = role
	}
	for id, perm := range s.permissions {
		prev.permissions[id] = perm
	}
	for userID, roleIDs := range s.userRoles {
		prev.userRoles[userID] = append([]string(nil), roleIDs...)
	}
	for roleID, permissionIDs := range s.grants {
		prev.grants[roleID] = append([]string(nil), permissionIDs...)
	}
	for userID, uc := range s.users {
		prev.users[userID] = uc
	}
	return prev
}

func (s *MemoryStore) restoreLocked(prev memoryState) {
	s.roles = prev.roles
	s.permissions = prev.permissions
	s.userRoles = prev.userRoles
	s.grants = prev.grants
	s.edges = prev.edges
	s.users = prev.users
}

func (s *MemoryStore) persistLocked() error {
	if s.path == "" {
		return nil
	}
	snap := memorySnapshot{}
	for _, role := range s.roles {
		snap.Roles = append(snap.Roles, role)
	}
	for _, perm := range s.permissions {
		snap.Permissions = append(snap.Permissions, perm)
	}
	for userID, roleIDs := range s.userRoles {
		for _, roleID := range roleIDs {
			snap.UserRoles = append(snap.UserRoles, RoleAssignment{UserID: userID, RoleID: roleID})
		}
	}
	for roleID, permissionIDs := range s.grants {
		for _, permissionID := range permissionIDs {
			snap.RolePermissions = append(snap.RolePermissions, PermissionGrant{RoleID: roleID, PermissionID: permissionID})
		}
	}
	snap.RoleHierarchy = s.edges
	for _, uc := range s.users {
		snap.Users = append(snap.Users, uc)
	}
	sort.Slice(snap.Roles, func(i, j int) bool { return snap.Roles[i].ID < snap.Roles[j].ID })
	sort.Slice(snap.Permissions, func(i, j int) bool { return snap.Permissions[i].ID < snap.Permissions[j].ID })

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("rbac: encode snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("rbac: persist snapshot: %w", err)
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

var _ Store = (*MemoryStore)(nil)
