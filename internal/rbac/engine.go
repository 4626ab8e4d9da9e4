package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jamiyah-app/jamiyah/internal/territory"
)

// Engine is the single decision function used everywhere access must be
// checked. It only reads; every decision is computed fresh from store state.
type Engine struct {
	store    Store
	regions  territory.Directory
	resolver *Resolver
	logger   *slog.Logger
}

// NewEngine constructs an Engine.
func NewEngine(store Store, regions territory.Directory, resolver *Resolver, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, regions: regions, resolver: resolver, logger: logger}
}

// UserHasPermission decides whether the user may perform the permission on
// the described resource. Store failures surface as ErrUnavailable-wrapped
// errors, never as a silent false.
func (e *Engine) UserHasPermission(ctx context.Context, userID, permissionID string, res Resource) (bool, error) {
	roleIDs, err := e.store.GetUserRoles(ctx, userID)
	if err != nil {
		return false, unavailable("get user roles", err)
	}
	if len(roleIDs) == 0 {
		return false, nil
	}

	granted, err := e.hasBasePermission(ctx, roleIDs, permissionID)
	if err != nil {
		return false, err
	}
	if !granted {
		return false, nil
	}

	if localityID, ok := res.Locality(); ok {
		regionScoped, err := e.holdsRegionScopedRole(ctx, roleIDs)
		if err != nil {
			return false, err
		}
		if regionScoped {
			within, err := e.withinTerritoryScope(ctx, userID, localityID)
			if err != nil {
				return false, err
			}
			if !within {
				e.logger.Info("territory scope denied",
					slog.String("user_id", userID),
					slog.Int64("locality_id", localityID))
				return false, nil
			}
		}
	}

	if targetRoleID, ok := res.TargetRole(); ok {
		write, err := e.isWritePermission(ctx, permissionID)
		if err != nil {
			return false, err
		}
		if write {
			covers, err := e.anyRoleCovers(ctx, roleIDs, targetRoleID)
			if err != nil {
				return false, err
			}
			if !covers {
				e.logger.Info("hierarchy scope denied",
					slog.String("user_id", userID),
					slog.String("target_role_id", targetRoleID))
				return false, nil
			}
		}
	}

	return true, nil
}

func (e *Engine) hasBasePermission(ctx context.Context, roleIDs []string, permissionID string) (bool, error) {
	for _, roleID := range roleIDs {
		permissionIDs, err := e.store.GetRolePermissions(ctx, roleID)
		if err != nil {
			return false, unavailable("get role permissions", err)
		}
		for _, id := range permissionIDs {
			if id == permissionID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (e *Engine) holdsRegionScopedRole(ctx context.Context, roleIDs []string) (bool, error) {
	for _, roleID := range roleIDs {
		role, err := e.store.GetRole(ctx, roleID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return false, unavailable("get role", err)
		}
		if role.Scope == ScopeRegion {
			return true, nil
		}
	}
	return false, nil
}

// withinTerritoryScope resolves both the actor's and the resource's region
// through the same ancestor-chain lookup and compares them. A user without a
// linked member, or either side with a broken chain, fails closed.
func (e *Engine) withinTerritoryScope(ctx context.Context, userID string, resourceLocalityID int64) (bool, error) {
	uc, err := e.store.UserContext(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.logger.Warn("territory check for unknown user", slog.String("user_id", userID))
			return false, nil
		}
		return false, unavailable("get user context", err)
	}
	if uc.LocalityID == nil {
		e.logger.Warn("territory check without linked member", slog.String("user_id", userID))
		return false, nil
	}

	userRegion, ok, err := e.regions.RegionOf(ctx, *uc.LocalityID)
	if err != nil {
		return false, unavailable("resolve user region", err)
	}
	if !ok {
		e.logger.Warn("could not resolve user region",
			slog.String("user_id", userID),
			slog.Int64("locality_id", *uc.LocalityID))
		return false, nil
	}

	resourceRegion, ok, err := e.regions.RegionOf(ctx, resourceLocalityID)
	if err != nil {
		return false, unavailable("resolve resource region", err)
	}
	if !ok {
		e.logger.Warn("could not resolve resource region",
			slog.Int64("locality_id", resourceLocalityID))
		return false, nil
	}

	return userRegion == resourceRegion, nil
}

func (e *Engine) isWritePermission(ctx context.Context, permissionID string) (bool, error) {
	perm, err := e.store.GetPermission(ctx, permissionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, unavailable("get permission", err)
	}
	return perm.Action == ActionWrite, nil
}

// anyRoleCovers checks every held role against the target concurrently; the
// checks are read-only and order-independent, and one qualifying role is
// enough.
func (e *Engine) anyRoleCovers(ctx context.Context, roleIDs []string, targetRoleID string) (bool, error) {
	var covers atomic.Bool
	g, ctx := errgroup.WithContext(ctx)
	for _, roleID := range roleIDs {
		g.Go(func() error {
			ok, err := e.resolver.IsDescendant(ctx, roleID, targetRoleID)
			if err != nil {
				return unavailable("hierarchy check", err)
			}
			if ok {
				covers.Store(true)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	return covers.Load(), nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
