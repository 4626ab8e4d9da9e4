package roles

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jamiyah-app/jamiyah/internal/rbac"
	"github.com/jamiyah-app/jamiyah/internal/shared"
)

// Guard is the authorization decision surface the service consumes.
type Guard interface {
	UserHasPermission(ctx context.Context, userID, permissionID string, res rbac.Resource) (bool, error)
}

// Service handles guarded role administration.
type Service struct {
	guard    Guard
	store    rbac.Store
	resolver *rbac.Resolver
	validate *validator.Validate
	logger   *slog.Logger
}

var roleIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// NewService builds Service instance.
func NewService(guard Guard, store rbac.Store, resolver *rbac.Resolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	validate := validator.New()
	_ = validate.RegisterValidation("roleid", func(fl validator.FieldLevel) bool {
		return roleIDPattern.MatchString(fl.Field().String())
	})
	return &Service{guard: guard, store: store, resolver: resolver, validate: validate, logger: logger}
}

// Overview returns the full RBAC picture for the administration page.
func (s *Service) Overview(ctx context.Context, actingUserID string) (*Overview, shared.OpResult) {
	if res := s.authorize(ctx, actingUserID, shared.PermAdminAccess, rbac.NoResource()); !res.Ok() {
		return nil, res
	}

	roles, err := s.store.ListRoles(ctx)
	if err != nil {
		return nil, s.storeFailure("list roles", err)
	}
	permissions, err := s.store.ListPermissions(ctx)
	if err != nil {
		return nil, s.storeFailure("list permissions", err)
	}
	hierarchy, err := s.store.ListHierarchyEdges(ctx)
	if err != nil {
		return nil, s.storeFailure("list hierarchy", err)
	}
	assignments, err := s.store.ListRoleAssignments(ctx)
	if err != nil {
		return nil, s.storeFailure("list assignments", err)
	}
	grants, err := s.store.ListPermissionGrants(ctx)
	if err != nil {
		return nil, s.storeFailure("list grants", err)
	}
	return &Overview{
		Roles:       roles,
		Permissions: permissions,
		Hierarchy:   hierarchy,
		Assignments: assignments,
		Grants:      grants,
	}, shared.ResultOK("")
}

// Create validates and inserts a new role.
func (s *Service) Create(ctx context.Context, actingUserID string, spec RoleSpec) shared.OpResult {
	if res := s.authorize(ctx, actingUserID, shared.PermRoleWrite, rbac.NoResource()); !res.Ok() {
		return res
	}

	spec.ID = strings.TrimSpace(spec.ID)
	spec.Name = strings.TrimSpace(spec.Name)
	if spec.Scope == "" {
		spec.Scope = rbac.ScopeGlobal
	}
	if fields := s.validateStruct(spec); len(fields) > 0 {
		return shared.ResultValidation(fields)
	}

	err := s.store.CreateRole(ctx, rbac.Role{
		ID:          spec.ID,
		Name:        spec.Name,
		Description: strings.TrimSpace(spec.Description),
		Scope:       spec.Scope,
	})
	if err != nil {
		if errors.Is(err, rbac.ErrConflict) {
			return shared.ResultConflict("Peran dengan ID tersebut sudah ada.")
		}
		return s.storeFailure("create role", err)
	}
	return shared.ResultOK("Peran \"" + spec.Name + "\" berhasil dibuat.")
}

// Update edits an existing role's name and/or description.
func (s *Service) Update(ctx context.Context, actingUserID, roleID string, update RoleUpdate) shared.OpResult {
	if res := s.authorize(ctx, actingUserID, shared.PermRoleWrite, rbac.TargetingRole(roleID)); !res.Ok() {
		return res
	}
	if fields := s.validateStruct(update); len(fields) > 0 {
		return shared.ResultValidation(fields)
	}

	if err := s.store.UpdateRole(ctx, roleID, update.Name, update.Description); err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return shared.ResultNotFound("Peran tidak ditemukan.")
		}
		return s.storeFailure("update role", err)
	}
	return shared.ResultOK("Peran berhasil diperbarui.")
}

// Delete removes a role and, in the same transaction, every assignment,
// grant, and hierarchy edge referencing it.
func (s *Service) Delete(ctx context.Context, actingUserID, roleID string) shared.OpResult {
	if res := s.authorize(ctx, actingUserID, shared.PermRoleWrite, rbac.TargetingRole(roleID)); !res.Ok() {
		return res
	}

	if err := s.store.DeleteRole(ctx, roleID); err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return shared.ResultNotFound("Peran tidak ditemukan.")
		}
		return s.storeFailure("delete role", err)
	}
	s.resolver.Invalidate()
	return shared.ResultOK("Peran " + roleID + " berhasil dihapus.")
}

// ReplacePermissions swaps the full permission grant set of a role.
func (s *Service) ReplacePermissions(ctx context.Context, actingUserID, roleID string, permissionIDs []string) shared.OpResult {
	if res := s.authorize(ctx, actingUserID, shared.PermRoleWrite, rbac.TargetingRole(roleID)); !res.Ok() {
		return res
	}

	if _, err := s.store.GetRole(ctx, roleID); err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return shared.ResultNotFound("Peran tidak ditemukan.")
		}
		return s.storeFailure("get role", err)
	}
	if err := s.store.ReplaceRolePermissions(ctx, roleID, permissionIDs); err != nil {
		return s.storeFailure("replace role permissions", err)
	}
	return shared.ResultOK("Izin untuk peran " + roleID + " berhasil diperbarui.")
}

// ReplaceMembership sets exactly which users hold the role.
func (s *Service) ReplaceMembership(ctx context.Context, actingUserID, roleID string, userIDs []string) shared.OpResult {
	if res := s.authorize(ctx, actingUserID, shared.PermUserWrite, rbac.TargetingRole(roleID)); !res.Ok() {
		return res
	}

	if _, err := s.store.GetRole(ctx, roleID); err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return shared.ResultNotFound("Peran tidak ditemukan.")
		}
		return s.storeFailure("get role", err)
	}
	if err := s.store.ReplaceRoleMembership(ctx, roleID, userIDs); err != nil {
		return s.storeFailure("replace role membership", err)
	}
	return shared.ResultOK("Keanggotaan peran " + roleID + " berhasil diperbarui.")
}

// ReplaceChildren sets the sub-roles directly under a parent role.
func (s *Service) ReplaceChildren(ctx context.Context, actingUserID, roleID string, childRoleIDs []string) shared.OpResult {
	if res := s.authorize(ctx, actingUserID, shared.PermRoleWrite, rbac.TargetingRole(roleID)); !res.Ok() {
		return res
	}

	if _, err := s.store.GetRole(ctx, roleID); err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return shared.ResultNotFound("Peran tidak ditemukan.")
		}
		return s.storeFailure("get role", err)
	}
	if err := s.store.ReplaceHierarchyEdges(ctx, roleID, childRoleIDs); err != nil {
		return s.storeFailure("replace hierarchy edges", err)
	}
	s.resolver.Invalidate()
	return shared.ResultOK("Hierarki peran " + roleID + " berhasil diperbarui.")
}

// SubRoles returns the hierarchy closure of a role for display: the role
// itself plus every transitive descendant.
func (s *Service) SubRoles(ctx context.Context, actingUserID, roleID string) ([]string, shared.OpResult) {
	if res := s.authorize(ctx, actingUserID, shared.PermAdminAccess, rbac.NoResource()); !res.Ok() {
		return nil, res
	}

	descendants, err := s.resolver.Descendants(ctx, roleID)
	if err != nil {
		return nil, s.storeFailure("hierarchy closure", err)
	}
	return descendants, shared.ResultOK("")
}

func (s *Service) authorize(ctx context.Context, actingUserID, permissionID string, res rbac.Resource) shared.OpResult {
	if actingUserID == "" {
		return shared.ResultUnauthorized()
	}
	granted, err := s.guard.UserHasPermission(ctx, actingUserID, permissionID, res)
	if err != nil {
		s.logger.Error("authorization check failed",
			slog.String("user_id", actingUserID),
			slog.String("permission", permissionID),
			slog.Any("error", err))
		return shared.ResultUnavailable()
	}
	if !granted {
		return shared.ResultForbidden("")
	}
	return shared.ResultOK("")
}

func (s *Service) validateStruct(v any) map[string][]string {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	fields := make(map[string][]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := strings.ToLower(fe.Field())
			fields[field] = append(fields[field], fieldMessage(fe))
		}
	} else {
		fields["general"] = append(fields["general"], "Data tidak valid.")
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Wajib diisi."
	case "min":
		return "Minimal " + fe.Param() + " karakter."
	case "roleid":
		return "Hanya boleh berisi huruf kecil, angka, dan tanda hubung."
	case "oneof":
		return "Nilai tidak dikenal."
	default:
		return "Tidak valid."
	}
}

func (s *Service) storeFailure(op string, err error) shared.OpResult {
	s.logger.Error("role admin store failure", slog.String("op", op), slog.Any("error", err))
	return shared.ResultUnavailable()
}
