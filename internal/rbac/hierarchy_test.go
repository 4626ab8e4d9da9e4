package rbac_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamiyah-app/jamiyah/internal/rbac"
)

type staticEdges []rbac.HierarchyEdge

func (s staticEdges) ListHierarchyEdges(ctx context.Context) ([]rbac.HierarchyEdge, error) {
	return s, nil
}

func TestIsDescendantSelf(t *testing.T) {
	r := rbac.NewResolver(staticEdges{})
	ok, err := r.IsDescendant(context.Background(), "role-a", "role-a")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIsDescendantChain(t *testing.T) {
	r := rbac.NewResolver(staticEdges{
		{ParentRoleID: "role-a", ChildRoleID: "role-b"},
		{ParentRoleID: "role-b", ChildRoleID: "role-c"},
	})
	ctx := context.Background()

	ok, err := r.IsDescendant(ctx, "role-a", "role-c")
	require.NoError(t, err)
	require.True(t, ok)

	// Direction matters.
	ok, err = r.IsDescendant(ctx, "role-c", "role-a")
	require.NoError(t, err)
	require.False(t, ok)

	// Unknown ids are simply not descendants.
	ok, err = r.IsDescendant(ctx, "role-a", "role-x")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIsDescendantTerminatesOnCycle(t *testing.T) {
	r := rbac.NewResolver(staticEdges{
		{ParentRoleID: "role-a", ChildRoleID: "role-b"},
		{ParentRoleID: "role-b", ChildRoleID: "role-a"},
	})

	ok, err := r.IsDescendant(context.Background(), "role-a", "role-z")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDescendantsIncludesSelfSorted(t *testing.T) {
	r := rbac.NewResolver(staticEdges{
		{ParentRoleID: "role-b", ChildRoleID: "role-c"},
		{ParentRoleID: "role-b", ChildRoleID: "role-a"},
	})

	got, err := r.Descendants(context.Background(), "role-b")
	require.NoError(t, err)
	require.Equal(t, []string{"role-a", "role-b", "role-c"}, got)
}

func TestInvalidatePicksUpNewEdges(t *testing.T) {
	store := rbac.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-a", Name: "A"}))
	require.NoError(t, store.CreateRole(ctx, rbac.Role{ID: "role-b", Name: "B"}))

	r := rbac.NewResolver(store)
	ok, err := r.IsDescendant(ctx, "role-a", "role-b")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.ReplaceHierarchyEdges(ctx, "role-a", []string{"role-b"}))

	// Stale until invalidated.
	ok, err = r.IsDescendant(ctx, "role-a", "role-b")
	require.NoError(t, err)
	require.False(t, ok)

	r.Invalidate()
	ok, err = r.IsDescendant(ctx, "role-a", "role-b")
	require.NoError(t, err)
	require.True(t, ok)
}

// gatedEdges snapshots the edge set, then blocks the first read until
// released, so a mutation plus Invalidate can land mid-rebuild.
type gatedEdges struct {
	mu      sync.Mutex
	edges   []rbac.HierarchyEdge
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedEdges) ListHierarchyEdges(ctx context.Context) ([]rbac.HierarchyEdge, error) {
	g.mu.Lock()
	out := append([]rbac.HierarchyEdge(nil), g.edges...)
	g.mu.Unlock()
	g.once.Do(func() {
		close(g.started)
		<-g.release
	})
	return out, nil
}

func (g *gatedEdges) add(edge rbac.HierarchyEdge) {
	g.mu.Lock()
	g.edges = append(g.edges, edge)
	g.mu.Unlock()
}

func TestInvalidateDuringRebuildIsNotLost(t *testing.T) {
	src := &gatedEdges{started: make(chan struct{}), release: make(chan struct{})}
	r := rbac.NewResolver(src)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.IsDescendant(ctx, "role-a", "role-b")
	}()

	// The rebuild has read the (empty) edge set and is paused before
	// writing it back. Mutate and invalidate now.
	<-src.started
	src.add(rbac.HierarchyEdge{ParentRoleID: "role-a", ChildRoleID: "role-b"})
	r.Invalidate()
	close(src.release)
	<-done

	ok, err := r.IsDescendant(ctx, "role-a", "role-b")
	require.NoError(t, err)
	require.True(t, ok, "resolver kept serving the snapshot read before the mutation")
}
