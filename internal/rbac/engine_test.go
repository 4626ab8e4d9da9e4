package rbac_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamiyah-app/jamiyah/internal/rbac"
	"github.com/jamiyah-app/jamiyah/internal/territory"
	_ "github.com/jamiyah-app/jamiyah/testing"
)

func int64p(v int64) *int64 { return &v }

// fixture builds a store and directory with two regions, each with one
// locality chain, a global admin role and a region-scoped clerk role.
func fixture(t *testing.T) (*rbac.MemoryStore, *territory.MemoryDirectory, *rbac.Engine) {
	t.Helper()
	ctx := context.Background()
	store := rbac.NewMemoryStore()

	dir := territory.NewMemoryDirectory()
	dir.AddChain(
		territory.Region{ID: 1, Name: "Jawa Barat"},
		territory.SubRegion{ID: 10, Name: "Kota Bandung"},
		territory.District{ID: 100, Name: "Coblong"},
		territory.Locality{ID: 1000, Name: "Dago"},
	)
	dir.AddChain(
		territory.Region{ID: 2, Name: "Jawa Tengah"},
		territory.SubRegion{ID: 20, Name: "Kota Semarang"},
		territory.District{ID: 200, Name: "Tembalang"},
		territory.Locality{ID: 2000, Name: "Bulusan"},
	)

	store.SeedPermission(rbac.Permission{ID: "perm-pendataan-read", Name: "Lihat Pendataan", Action: rbac.ActionRead})
	store.SeedPermission(rbac.Permission{ID: "perm-pendataan-write", Name: "Kelola Pendataan", Action: rbac.ActionWrite})
	store.SeedPermission(rbac.Permission{ID: "perm-role-write", Name: "Kelola Peran", Action: rbac.ActionWrite})

	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-admin", Name: "Administrator", Scope: rbac.ScopeGlobal}))
	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-pusat", Name: "Pendataan Pusat", Scope: rbac.ScopeGlobal}))
	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-propinsi", Name: "Pendataan Propinsi", Scope: rbac.ScopeRegion}))

	require.NoError(t, store.ReplaceRolePermissions(ctx, "role-admin", []string{"perm-pendataan-read", "perm-pendataan-write", "perm-role-write"}))
	require.NoError(t, store.ReplaceRolePermissions(ctx, "role-pusat", []string{"perm-pendataan-read", "perm-pendataan-write"}))
	require.NoError(t, store.ReplaceRolePermissions(ctx, "role-propinsi", []string{"perm-pendataan-read", "perm-pendataan-write"}))

	require.NoError(t, store.ReplaceHierarchyEdges(ctx, "role-admin", []string{"role-pusat"}))
	require.NoError(t, store.ReplaceHierarchyEdges(ctx, "role-pusat", []string{"role-propinsi"}))

	// admin has no member link; clerk lives in region 1.
	store.SeedUser(rbac.UserContext{UserID: "user-admin", Active: true})
	store.SeedUser(rbac.UserContext{UserID: "user-clerk", Active: true, MemberID: int64p(1), LocalityID: int64p(1000)})
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-admin", []string{"role-admin"}))
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-clerk", []string{"role-propinsi"}))

	resolver := rbac.NewResolver(store)
	engine := rbac.NewEngine(store, dir, resolver, nil)
	return store, dir, engine
}

func TestDeniedWithoutRoles(t *testing.T) {
	_, _, engine := fixture(t)

	granted, err := engine.UserHasPermission(context.Background(), "user-unknown", "perm-pendataan-read", rbac.NoResource())
	require.NoError(t, err)
	require.False(t, granted)
}

func TestBasePermissionUnion(t *testing.T) {
	store, _, engine := fixture(t)
	ctx := context.Background()

	granted, err := engine.UserHasPermission(ctx, "user-clerk", "perm-pendataan-read", rbac.NoResource())
	require.NoError(t, err)
	require.True(t, granted)

	granted, err = engine.UserHasPermission(ctx, "user-clerk", "perm-role-write", rbac.NoResource())
	require.NoError(t, err)
	require.False(t, granted)

	// A second role contributes its grants.
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-clerk", []string{"role-propinsi", "role-admin"}))
	granted, err = engine.UserHasPermission(ctx, "user-clerk", "perm-role-write", rbac.NoResource())
	require.NoError(t, err)
	require.True(t, granted)
}

func TestTerritoryScopeMatch(t *testing.T) {
	_, _, engine := fixture(t)
	ctx := context.Background()

	// Same region as the clerk's locality chain.
	granted, err := engine.UserHasPermission(ctx, "user-clerk", "perm-pendataan-write", rbac.InLocality(1000))
	require.NoError(t, err)
	require.True(t, granted)

	// Other region.
	granted, err = engine.UserHasPermission(ctx, "user-clerk", "perm-pendataan-write", rbac.InLocality(2000))
	require.NoError(t, err)
	require.False(t, granted)
}

func TestTerritoryScopeIgnoredForGlobalRoles(t *testing.T) {
	_, _, engine := fixture(t)

	// The admin has no member link at all; a region-scoped actor would fail
	// closed here, a global one passes.
	granted, err := engine.UserHasPermission(context.Background(), "user-admin", "perm-pendataan-write", rbac.InLocality(2000))
	require.NoError(t, err)
	require.True(t, granted)
}

func TestTerritoryScopeFailsClosed(t *testing.T) {
	store, _, engine := fixture(t)
	ctx := context.Background()

	// Clerk without a linked member.
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-orphan", []string{"role-propinsi"}))
	store.SeedUser(rbac.UserContext{UserID: "user-orphan", Active: true})
	granted, err := engine.UserHasPermission(ctx, "user-orphan", "perm-pendataan-write", rbac.InLocality(1000))
	require.NoError(t, err)
	require.False(t, granted)

	// Resource locality missing from the territory tree.
	granted, err = engine.UserHasPermission(ctx, "user-clerk", "perm-pendataan-write", rbac.InLocality(9999))
	require.NoError(t, err)
	require.False(t, granted)
}

func TestHierarchyScopeOnWrite(t *testing.T) {
	store, _, engine := fixture(t)
	ctx := context.Background()

	// admin covers role-propinsi through role-pusat.
	granted, err := engine.UserHasPermission(ctx, "user-admin", "perm-role-write", rbac.TargetingRole("role-propinsi"))
	require.NoError(t, err)
	require.True(t, granted)

	// A role never covers its own ancestors.
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-pusat", []string{"role-pusat"}))
	require.NoError(t, store.ReplaceRolePermissions(ctx, "role-pusat", []string{"perm-pendataan-read", "perm-pendataan-write", "perm-role-write"}))
	granted, err = engine.UserHasPermission(ctx, "user-pusat", "perm-role-write", rbac.TargetingRole("role-admin"))
	require.NoError(t, err)
	require.False(t, granted)

	// Self-targeting counts as covered.
	granted, err = engine.UserHasPermission(ctx, "user-pusat", "perm-role-write", rbac.TargetingRole("role-pusat"))
	require.NoError(t, err)
	require.True(t, granted)
}

func TestHierarchyScopeSkippedForReads(t *testing.T) {
	_, _, engine := fixture(t)

	// Read permissions do not consult the hierarchy even with a target set.
	granted, err := engine.UserHasPermission(context.Background(), "user-clerk", "perm-pendataan-read", rbac.TargetingRole("role-admin"))
	require.NoError(t, err)
	require.True(t, granted)
}

func TestCombinedScopes(t *testing.T) {
	store, _, engine := fixture(t)
	ctx := context.Background()

	// Both checks apply when both resource facets are present; the territory
	// mismatch denies before the hierarchy even matters.
	require.NoError(t, store.ReplaceRolePermissions(ctx, "role-propinsi", []string{"perm-pendataan-read", "perm-pendataan-write", "perm-role-write"}))
	res := rbac.InLocality(2000).Targeting("role-propinsi")
	granted, err := engine.UserHasPermission(ctx, "user-clerk", "perm-role-write", res)
	require.NoError(t, err)
	require.False(t, granted)

	res = rbac.InLocality(1000).Targeting("role-propinsi")
	granted, err = engine.UserHasPermission(ctx, "user-clerk", "perm-role-write", res)
	require.NoError(t, err)
	require.True(t, granted)
}

type failingStore struct {
	*rbac.MemoryStore
}

func (f failingStore) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestStoreFailureIsNotDenial(t *testing.T) {
	store, dir, _ := fixture(t)
	engine := rbac.NewEngine(failingStore{store}, dir, rbac.NewResolver(store), nil)

	granted, err := engine.UserHasPermission(context.Background(), "user-clerk", "perm-pendataan-read", rbac.NoResource())
	require.False(t, granted)
	require.ErrorIs(t, err, rbac.ErrUnavailable)
}
