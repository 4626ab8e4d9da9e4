package members_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jamiyah-app/jamiyah/internal/members"
	"github.com/jamiyah-app/jamiyah/internal/rbac"
	"github.com/jamiyah-app/jamiyah/internal/shared"
	"github.com/jamiyah-app/jamiyah/internal/territory"
	_ "github.com/jamiyah-app/jamiyah/testing"
)

func int64p(v int64) *int64 { return &v }

// memoryRepo implements RepositoryPort over a map, applying the same region
// filter semantics as the SQL listing.
type memoryRepo struct {
	regions territory.Directory
	nextID  int64
	records map[int64]members.Member
}

func newMemoryRepo(regions territory.Directory) *memoryRepo {
	return &memoryRepo{regions: regions, nextID: 1, records: make(map[int64]members.Member)}
}

func (m *memoryRepo) ListMembers(ctx context.Context, f members.ListFilters) ([]members.Member, error) {
	var out []members.Member
	for _, rec := range m.records {
		if f.RegionID != nil {
			if rec.LocalityID == nil {
				continue
			}
			regionID, ok, err := m.regions.RegionOf(ctx, *rec.LocalityID)
			if err != nil {
				return nil, err
			}
			if !ok || regionID != *f.RegionID {
				continue
			}
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepo) GetMember(ctx context.Context, id int64) (members.Member, error) {
	rec, ok := m.records[id]
	if !ok {
		return members.Member{}, shared.ErrNotFound
	}
	return rec, nil
}

func (m *memoryRepo) CreateMember(ctx context.Context, in members.MemberInput) (int64, error) {
	id := m.nextID
	m.nextID++
	now := time.Now()
	m.records[id] = members.Member{
		ID: id, FullName: in.FullName, Gender: in.Gender, BirthDate: in.BirthDate,
		Address: in.Address, Phone: in.Phone, LocalityID: in.LocalityID,
		CreatedAt: now, UpdatedAt: now,
	}
	return id, nil
}

func (m *memoryRepo) UpdateMember(ctx context.Context, id int64, in members.MemberInput) error {
	rec, ok := m.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	rec.FullName = in.FullName
	rec.Gender = in.Gender
	rec.BirthDate = in.BirthDate
	rec.Address = in.Address
	rec.Phone = in.Phone
	rec.LocalityID = in.LocalityID
	rec.UpdatedAt = time.Now()
	m.records[id] = rec
	return nil
}

func (m *memoryRepo) DeleteMember(ctx context.Context, id int64) error {
	if _, ok := m.records[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// setup builds two regions with one locality each, a global clerk and a
// region-scoped clerk linked to region 1.
func setup(t *testing.T) (*members.Service, *memoryRepo) {
	t.Helper()
	ctx := context.Background()

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

	store := rbac.NewMemoryStore()
	store.SeedPermission(rbac.Permission{ID: shared.PermPendataanRead, Name: "Lihat Pendataan", Action: rbac.ActionRead})
	store.SeedPermission(rbac.Permission{ID: shared.PermPendataanWrite, Name: "Kelola Pendataan", Action: rbac.ActionWrite})
	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-pusat", Name: "Pendataan Pusat", Scope: rbac.ScopeGlobal}))
	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-propinsi", Name: "Pendataan Propinsi", Scope: rbac.ScopeRegion}))
	require.NoError(t, store.ReplaceRolePermissions(ctx, "role-pusat", []string{shared.PermPendataanRead, shared.PermPendataanWrite}))
	require.NoError(t, store.ReplaceRolePermissions(ctx, "role-propinsi", []string{shared.PermPendataanRead, shared.PermPendataanWrite}))
	store.SeedUser(rbac.UserContext{UserID: "user-pusat", Active: true})
	store.SeedUser(rbac.UserContext{UserID: "user-propinsi", Active: true, MemberID: int64p(1), LocalityID: int64p(1000)})
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-pusat", []string{"role-pusat"}))
	require.NoError(t, store.ReplaceUserRoles(ctx, "user-propinsi", []string{"role-propinsi"}))

	repo := newMemoryRepo(dir)
	resolver := rbac.NewResolver(store)
	engine := rbac.NewEngine(store, dir, resolver, nil)
	return members.NewService(engine, repo, store, dir, nil), repo
}

func TestCreateMemberScopedByLocality(t *testing.T) {
	service, _ := setup(t)
	ctx := context.Background()

	// Region-scoped clerk can only write inside region 1.
	id, res := service.Create(ctx, "user-propinsi", members.MemberInput{FullName: "Budi Santoso", LocalityID: int64p(1000)})
	require.Equal(t, shared.StatusOK, res.Status)
	require.NotZero(t, id)

	_, res = service.Create(ctx, "user-propinsi", members.MemberInput{FullName: "Sari Dewi", LocalityID: int64p(2000)})
	require.Equal(t, shared.StatusForbidden, res.Status)

	// Global clerk writes anywhere.
	_, res = service.Create(ctx, "user-pusat", members.MemberInput{FullName: "Sari Dewi", LocalityID: int64p(2000)})
	require.Equal(t, shared.StatusOK, res.Status)
}

func TestListRestrictedToOwnRegion(t *testing.T) {
	service, _ := setup(t)
	ctx := context.Background()

	_, res := service.Create(ctx, "user-pusat", members.MemberInput{FullName: "Budi Santoso", LocalityID: int64p(1000)})
	require.Equal(t, shared.StatusOK, res.Status)
	_, res = service.Create(ctx, "user-pusat", members.MemberInput{FullName: "Sari Dewi", LocalityID: int64p(2000)})
	require.Equal(t, shared.StatusOK, res.Status)

	list, res := service.List(ctx, "user-pusat", "")
	require.Equal(t, shared.StatusOK, res.Status)
	require.Len(t, list, 2)

	list, res = service.List(ctx, "user-propinsi", "")
	require.Equal(t, shared.StatusOK, res.Status)
	require.Len(t, list, 1)
	require.Equal(t, "Budi Santoso", list[0].FullName)
}

func TestUpdateChecksBothLocalities(t *testing.T) {
	service, _ := setup(t)
	ctx := context.Background()

	id, res := service.Create(ctx, "user-propinsi", members.MemberInput{FullName: "Budi Santoso", LocalityID: int64p(1000)})
	require.Equal(t, shared.StatusOK, res.Status)

	// Moving the record out of the clerk's region is refused.
	res = service.Update(ctx, "user-propinsi", id, members.MemberInput{FullName: "Budi Santoso", LocalityID: int64p(2000)})
	require.Equal(t, shared.StatusForbidden, res.Status)

	res = service.Update(ctx, "user-propinsi", id, members.MemberInput{FullName: "Budi S.", LocalityID: int64p(1000)})
	require.Equal(t, shared.StatusOK, res.Status)
}

func TestDeleteOutsideRegionForbidden(t *testing.T) {
	service, repo := setup(t)
	ctx := context.Background()

	id, res := service.Create(ctx, "user-pusat", members.MemberInput{FullName: "Sari Dewi", LocalityID: int64p(2000)})
	require.Equal(t, shared.StatusOK, res.Status)

	res = service.Delete(ctx, "user-propinsi", id)
	require.Equal(t, shared.StatusForbidden, res.Status)
	require.Contains(t, repo.records, id)

	res = service.Delete(ctx, "user-pusat", id)
	require.Equal(t, shared.StatusOK, res.Status)
	require.NotContains(t, repo.records, id)
}

func TestExportScopedToRegion(t *testing.T) {
	service, _ := setup(t)
	ctx := context.Background()

	_, res := service.Create(ctx, "user-pusat", members.MemberInput{FullName: "Budi Santoso", LocalityID: int64p(1000)})
	require.Equal(t, shared.StatusOK, res.Status)
	_, res = service.Create(ctx, "user-pusat", members.MemberInput{FullName: "Sari Dewi", LocalityID: int64p(2000)})
	require.Equal(t, shared.StatusOK, res.Status)

	data, res := service.ExportCSV(ctx, "user-propinsi")
	require.Equal(t, shared.StatusOK, res.Status)
	require.Contains(t, string(data), "Budi Santoso")
	require.NotContains(t, string(data), "Sari Dewi")
}

func TestValidationFailure(t *testing.T) {
	service, _ := setup(t)

	_, res := service.Create(context.Background(), "user-pusat", members.MemberInput{FullName: "ab"})
	require.Equal(t, shared.StatusValidationFailed, res.Status)
	require.NotEmpty(t, res.Fields)
}
