package rbac

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// EdgeLister is the slice of Store the resolver needs.
type EdgeLister interface {
	ListHierarchyEdges(ctx context.Context) ([]HierarchyEdge, error)
}

// Resolver answers reachability questions over the role hierarchy graph.
// It keeps an adjacency snapshot that is rebuilt lazily after Invalidate;
// concurrent rebuilds are collapsed through singleflight.
type Resolver struct {
	edges EdgeLister

	mu  sync.RWMutex
	adj map[string][]string
	gen uint64

	group singleflight.Group
}

// NewResolver constructs a Resolver over the given edge source.
func NewResolver(edges EdgeLister) *Resolver {
	return &Resolver{edges: edges}
}

// IsDescendant reports whether childRoleID is parentRoleID itself or a
// transitive descendant of it. Unknown role ids simply yield false. The
// traversal keeps a visited set so a cycle in the edge data cannot cause
// non-termination.
func (r *Resolver) IsDescendant(ctx context.Context, parentRoleID, childRoleID string) (bool, error) {
	if parentRoleID == childRoleID {
		return true, nil
	}

	adj, err := r.adjacency(ctx)
	if err != nil {
		return false, err
	}

	visited := map[string]struct{}{parentRoleID: {}}
	queue := append([]string(nil), adj[parentRoleID]...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == childRoleID {
			return true, nil
		}
		if _, ok := visited[current]; ok {
			continue
		}
		visited[current] = struct{}{}
		queue = append(queue, adj[current]...)
	}
	return false, nil
}

// Descendants returns every role reachable from roleID, the role itself
// included, sorted for stable display.
func (r *Resolver) Descendants(ctx context.Context, roleID string) ([]string, error) {
	adj, err := r.adjacency(ctx)
	if err != nil {
		return nil, err
	}

	visited := map[string]struct{}{roleID: {}}
	queue := append([]string(nil), adj[roleID]...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, ok := visited[current]; ok {
			continue
		}
		visited[current] = struct{}{}
		queue = append(queue, adj[current]...)
	}

	out := make([]string, 0, len(visited))
	for id := range visited {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Invalidate drops the cached adjacency snapshot. Call after any role or
// hierarchy-edge mutation. Bumping the generation makes any rebuild that is
// already in flight discard itself instead of writing a pre-mutation graph
// back into the cache.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.adj = nil
	r.gen++
	r.mu.Unlock()
}

func (r *Resolver) adjacency(ctx context.Context) (map[string][]string, error) {
	r.mu.RLock()
	adj, gen := r.adj, r.gen
	r.mu.RUnlock()
	if adj != nil {
		return adj, nil
	}

	built, err, _ := r.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		edges, err := r.edges.ListHierarchyEdges(ctx)
		if err != nil {
			return nil, err
		}
		adj := make(map[string][]string, len(edges))
		for _, edge := range edges {
			adj[edge.ParentRoleID] = append(adj[edge.ParentRoleID], edge.ChildRoleID)
		}
		r.mu.Lock()
		if r.gen == gen {
			r.adj = adj
		}
		r.mu.Unlock()
		return adj, nil
	})
	if err != nil {
		return nil, err
	}
	return built.(map[string][]string), nil
}
