package rbac_test

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamiyah-app/jamiyah/internal/rbac"
)

func TestDeleteRoleCascades(t *testing.T) {
	store := rbac.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-a", Name: "A"}))
	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-b", Name: "B"}))
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-1", []string{"role-a", "role-b"}))
	require.NoError(t, store.ReplaceRolePermissions(ctx, "role-a", []string{"perm-x"}))
	require.NoError(t, store.ReplaceHierarchyEdges(ctx, "role-a", []string{"role-b"}))
	require.NoError(t, store.ReplaceHierarchyEdges(ctx, "role-b", []string{"role-a"}))

	require.NoError(t, store.DeleteRole(ctx, "role-a"))

	_, err := store.GetRole(ctx, "role-a")
	require.ErrorIs(t, err, rbac.ErrNotFound)

	roleIDs, err := store.GetUserRoles(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"role-b"}, roleIDs)

	perms, err := store.GetRolePermissions(ctx, "role-a")
	require.NoError(t, err)
	require.Empty(t, perms)

	edges, err := store.ListHierarchyEdges(ctx)
	require.NoError(t, err)
	require.Empty(t, edges)
}

func TestDeleteUnknownRole(t *testing.T) {
	store := rbac.NewMemoryStore()
	require.ErrorIs(t, store.DeleteRole(context.Background(), "role-missing"), rbac.ErrNotFound)
}

func TestCreateRoleConflict(t *testing.T) {
	store := rbac.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-a", Name: "A"}))
	require.ErrorIs(t, store.CreateRole(ctx, rbac.Role{ID: "role-a", Name: "A again"}), rbac.ErrConflict)
}

func TestReplaceRoleMembershipExactSet(t *testing.T) {
	store := rbac.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-a", Name: "A"}))
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-1", []string{"role-a"}))
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-2", []string{"role-a", "role-other"}))

	require.NoError(t, store.ReplaceRoleMembership(ctx, "role-a", []string{"user-2", "user-3", "user-3"}))

	roleIDs, err := store.GetUserRoles(ctx, "user-1")
	require.NoError(t, err)
	require.NotContains(t, roleIDs, "role-a")

	roleIDs, err = store.GetUserRoles(ctx, "user-2")
	require.NoError(t, err)
	require.Contains(t, roleIDs, "role-a")
	require.Contains(t, roleIDs, "role-other")

	roleIDs, err = store.GetUserRoles(ctx, "user-3")
	require.NoError(t, err)
	require.Equal(t, []string{"role-a"}, roleIDs)
}

func TestReplaceUserRolesAtomicForReaders(t *testing.T) {
	store := rbac.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-a", Name: "A"}))
	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-b", Name: "B"}))
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-1", []string{"role-a"}))

	stop := make(chan struct{})
	var sawEmpty atomic.Bool
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				roleIDs, err := store.GetUserRoles(ctx, "user-1")
				if err != nil || len(roleIDs) == 0 {
					sawEmpty.Store(true)
					return
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		set := []string{"role-a"}
		if i%2 == 1 {
			set = []string{"role-b"}
		}
		require.NoError(t, store.ReplaceUserRoles(ctx, "user-1", set))
	}
	close(stop)
	wg.Wait()

	require.False(t, sawEmpty.Load(), "a reader observed an intermediate empty role set")

	roleIDs, err := store.GetUserRoles(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"role-b"}, roleIDs)
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.json")
	ctx := context.Background()

	store, err := rbac.OpenMemoryStore(path)
	require.NoError(t, err)
	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-a", Name: "A", Scope: rbac.ScopeRegion}))
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-1", []string{"role-a"}))
	require.NoError(t, store.ReplaceRolePermissions(ctx, "role-a", []string{"perm-x"}))
	require.NoError(t, store.ReplaceHierarchyEdges(ctx, "role-a", []string{"role-b"}))

	reopened, err := rbac.OpenMemoryStore(path)
	require.NoError(t, err)

	role, err := reopened.GetRole(ctx, "role-a")
	require.NoError(t, err)
	require.Equal(t, rbac.ScopeRegion, role.Scope)

	roleIDs, err := reopened.GetUserRoles(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"role-a"}, roleIDs)

	perms, err := reopened.GetRolePermissions(ctx, "role-a")
	require.NoError(t, err)
	require.Equal(t, []string{"perm-x"}, perms)

	edges, err := reopened.ListHierarchyEdges(ctx)
	require.NoError(t, err)
	require.Equal(t, []rbac.HierarchyEdge{{ParentRoleID: "role-a", ChildRoleID: "role-b"}}, edges)
}

func TestFailedPersistRollsBackMutation(t *testing.T) {
	// The snapshot path sits under a directory that does not exist, so
	// opening succeeds (no file yet) but every write fails.
	path := filepath.Join(t.TempDir(), "missing", "access.json")
	ctx := context.Background()

	store, err := rbac.OpenMemoryStore(path)
	require.NoError(t, err)

	err = store.CreateRole(ctx, rbac.Role{ID: "role-a", Name: "A"})
	require.Error(t, err)

	_, err = store.GetRole(ctx, "role-a")
	require.ErrorIs(t, err, rbac.ErrNotFound, "mutation survived a failed snapshot write")

	err = store.ReplaceUserRoles(ctx, "user-1", []string{"role-a"})
	require.Error(t, err)

	roleIDs, err := store.GetUserRoles(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, roleIDs)
}
