package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jamiyah-app/jamiyah/internal/rbac"
	"github.com/jamiyah-app/jamiyah/internal/shared"
	"github.com/jamiyah-app/jamiyah/internal/territory"
	"github.com/jamiyah-app/jamiyah/internal/users"
	_ "github.com/jamiyah-app/jamiyah/testing"
)

// memoryRepo is an in-memory RepositoryPort.
type memoryRepo struct {
	accounts map[string]users.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[string]users.User)}
}

func (m *memoryRepo) ListUsers(ctx context.Context) ([]users.User, error) {
	out := make([]users.User, 0, len(m.accounts))
	for _, u := range m.accounts {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryRepo) GetUser(ctx context.Context, userID string) (users.User, error) {
	u, ok := m.accounts[userID]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *memoryRepo) CreateUser(ctx context.Context, id, username, passwordHash string, memberID *int64) error {
	for _, u := range m.accounts {
		if u.Username == username {
			return users.ErrUsernameTaken
		}
	}
	now := time.Now()
	m.accounts[id] = users.User{ID: id, Username: username, Active: true, MemberID: memberID, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (m *memoryRepo) UpdateUser(ctx context.Context, userID string, active bool, memberID *int64, passwordHash *string) error {
	u, ok := m.accounts[userID]
	if !ok {
		return shared.ErrNotFound
	}
	u.Active = active
	u.MemberID = memberID
	u.UpdatedAt = time.Now()
	m.accounts[userID] = u
	return nil
}

func (m *memoryRepo) DeleteUser(ctx context.Context, userID string) error {
	if _, ok := m.accounts[userID]; !ok {
		return shared.ErrNotFound
	}
	delete(m.accounts, userID)
	return nil
}

func newService(t *testing.T) (*users.Service, *memoryRepo, *rbac.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	store := rbac.NewMemoryStore()

	store.SeedPermission(rbac.Permission{ID: shared.PermAdminAccess, Name: "Akses Admin", Action: rbac.ActionRead})
	store.SeedPermission(rbac.Permission{ID: shared.PermUserWrite, Name: "Kelola Akun", Action: rbac.ActionWrite})
	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: shared.RoleAdmin, Name: "Administrator", Scope: rbac.ScopeGlobal}))
	require.NoError(t, store.ReplaceRolePermissions(ctx, shared.RoleAdmin, []string{shared.PermAdminAccess, shared.PermUserWrite}))
	store.SeedUser(rbac.UserContext{UserID: "user-admin", Active: true})
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-admin", []string{shared.RoleAdmin}))

	repo := newMemoryRepo()
	repo.accounts["user-admin"] = users.User{ID: "user-admin", Username: "admin", Active: true}

	resolver := rbac.NewResolver(store)
	engine := rbac.NewEngine(store, territory.NewMemoryDirectory(), resolver, nil)
	return users.NewService(engine, repo, store, nil), repo, store
}

func TestCreateUser(t *testing.T) {
	service, repo, _ := newService(t)
	ctx := context.Background()

	id, res := service.Create(ctx, "user-admin", users.CreateInput{Username: "petugas", Password: "rahasia1"})
	require.Equal(t, shared.StatusOK, res.Status)
	require.NotEmpty(t, id)
	require.Contains(t, repo.accounts, id)

	_, res = service.Create(ctx, "user-admin", users.CreateInput{Username: "petugas", Password: "rahasia1"})
	require.Equal(t, shared.StatusConflict, res.Status)

	_, res = service.Create(ctx, "user-admin", users.CreateInput{Username: "x", Password: "123"})
	require.Equal(t, shared.StatusValidationFailed, res.Status)
}

func TestAdminCannotStripOwnAdminRole(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	res := service.UpdateRoles(ctx, "user-admin", "user-admin", []string{})
	require.Equal(t, shared.StatusForbidden, res.Status)

	res = service.Update(ctx, "user-admin", "user-admin", users.UpdateInput{Active: true, RoleIDs: []string{}})
	require.Equal(t, shared.StatusForbidden, res.Status)

	// Keeping the admin role is fine.
	res = service.Update(ctx, "user-admin", "user-admin", users.UpdateInput{Active: true, RoleIDs: []string{shared.RoleAdmin}})
	require.Equal(t, shared.StatusOK, res.Status)
}

func TestAdminCannotDeactivateSelf(t *testing.T) {
	service, _, _ := newService(t)

	res := service.Update(context.Background(), "user-admin", "user-admin", users.UpdateInput{Active: false, RoleIDs: []string{shared.RoleAdmin}})
	require.Equal(t, shared.StatusForbidden, res.Status)
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	service, repo, _ := newService(t)
	ctx := context.Background()

	res := service.Delete(ctx, "user-admin", "user-admin")
	require.Equal(t, shared.StatusForbidden, res.Status)
	require.Contains(t, repo.accounts, "user-admin")

	id, createRes := service.Create(ctx, "user-admin", users.CreateInput{Username: "petugas", Password: "rahasia1"})
	require.Equal(t, shared.StatusOK, createRes.Status)
	res = service.Delete(ctx, "user-admin", id)
	require.Equal(t, shared.StatusOK, res.Status)
	require.NotContains(t, repo.accounts, id)
}

func TestRoleGrantOutsideHierarchyForbidden(t *testing.T) {
	service, repo, store := newService(t)
	ctx := context.Background()

	// A user-write holder whose role does not cover role-admin cannot
	// grant it.
	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-staf", Name: "Staf", Scope: rbac.ScopeGlobal}))
	require.NoError(t, store.ReplaceRolePermissions(ctx, "role-staf", []string{shared.PermUserWrite}))
	store.SeedUser(rbac.UserContext{UserID: "user-staf", Active: true})
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-staf", []string{"role-staf"}))
	repo.accounts["user-target"] = users.User{ID: "user-target", Username: "target", Active: true}

	res := service.UpdateRoles(ctx, "user-staf", "user-target", []string{shared.RoleAdmin})
	require.Equal(t, shared.StatusForbidden, res.Status)

	// Granting its own role is within reach.
	res = service.UpdateRoles(ctx, "user-staf", "user-target", []string{"role-staf"})
	require.Equal(t, shared.StatusOK, res.Status)
}

func TestListUsersWithRoles(t *testing.T) {
	service, _, _ := newService(t)

	list, res := service.List(context.Background(), "user-admin")
	require.Equal(t, shared.StatusOK, res.Status)
	require.Len(t, list, 1)
	require.Equal(t, []string{shared.RoleAdmin}, list[0].RoleIDs)
}
