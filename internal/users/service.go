package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jamiyah-app/jamiyah/internal/rbac"
	"github.com/jamiyah-app/jamiyah/internal/shared"
)

// Guard is the authorization decision surface the service consumes.
type Guard interface {
	UserHasPermission(ctx context.Context, userID, permissionID string, res rbac.Resource) (bool, error)
}

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, userID string) (User, error)
	CreateUser(ctx context.Context, id, username, passwordHash string, memberID *int64) error
	UpdateUser(ctx context.Context, userID string, active bool, memberID *int64, passwordHash *string) error
	DeleteUser(ctx context.Context, userID string) error
}

// RoleStore is the slice of the RBAC store the service needs for assignments.
type RoleStore interface {
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
	ReplaceUserRoles(ctx context.Context, userID string, roleIDs []string) error
	ListRoleAssignments(ctx context.Context) ([]rbac.RoleAssignment, error)
}

// Service handles guarded user administration.
type Service struct {
	guard    Guard
	repo     RepositoryPort
	roles    RoleStore
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(guard Guard, repo RepositoryPort, roles RoleStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{guard: guard, repo: repo, roles: roles, validate: validator.New(), logger: logger}
}

// List returns all accounts with their role ids.
func (s *Service) List(ctx context.Context, actingUserID string) ([]UserWithRoles, shared.OpResult) {
	if res := s.authorize(ctx, actingUserID, shared.PermAdminAccess); !res.Ok() {
		return nil, res
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, s.storeFailure("list users", err)
	}
	assignments, err := s.roles.ListRoleAssignments(ctx)
	if err != nil {
		return nil, s.storeFailure("list assignments", err)
	}
	byUser := make(map[string][]string, len(users))
	for _, a := range assignments {
		byUser[a.UserID] = append(byUser[a.UserID], a.RoleID)
	}
	out := make([]UserWithRoles, 0, len(users))
	for _, user := range users {
		out = append(out, UserWithRoles{User: user, RoleIDs: byUser[user.ID]})
	}
	return out, shared.ResultOK("")
}

// Create registers a new account.
func (s *Service) Create(ctx context.Context, actingUserID string, input CreateInput) (string, shared.OpResult) {
	if res := s.authorize(ctx, actingUserID, shared.PermUserWrite); !res.Ok() {
		return "", res
	}

	input.Username = strings.TrimSpace(input.Username)
	if fields := s.validateStruct(input); len(fields) > 0 {
		return "", shared.ResultValidation(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", s.storeFailure("hash password", err)
	}
	id := uuid.NewString()
	if err := s.repo.CreateUser(ctx, id, input.Username, string(hash), input.MemberID); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return "", shared.ResultConflict("Username sudah digunakan.")
		}
		return "", s.storeFailure("create user", err)
	}
	return id, shared.ResultOK("Pengguna " + input.Username + " berhasil dibuat.")
}

// Update applies the combined account edit: activation, member link,
// optional password reset, and the full replacement role set. The self-edit
// guards run against current state before anything is written so an
// administrator cannot lock themselves out.
func (s *Service) Update(ctx context.Context, actingUserID, targetUserID string, input UpdateInput) shared.OpResult {
	if res := s.authorize(ctx, actingUserID, shared.PermUserWrite); !res.Ok() {
		return res
	}
	if fields := s.validateStruct(input); len(fields) > 0 {
		return shared.ResultValidation(fields)
	}

	if actingUserID == targetUserID {
		if res := s.selfEditGuards(ctx, actingUserID, input); !res.Ok() {
			return res
		}
	}
	if res := s.authorizeRoleGrants(ctx, actingUserID, targetUserID, input.RoleIDs); !res.Ok() {
		return res
	}

	var passwordHash *string
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return s.storeFailure("hash password", err)
		}
		hashed := string(hash)
		passwordHash = &hashed
	}

	if err := s.repo.UpdateUser(ctx, targetUserID, input.Active, input.MemberID, passwordHash); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ResultNotFound("Pengguna tidak ditemukan.")
		}
		return s.storeFailure("update user", err)
	}
	if err := s.roles.ReplaceUserRoles(ctx, targetUserID, input.RoleIDs); err != nil {
		return s.storeFailure("replace user roles", err)
	}
	return shared.ResultOK("Data pengguna berhasil diperbarui.")
}

// UpdateRoles replaces only the role set of a user, with the administrator
// self-strip guard.
func (s *Service) UpdateRoles(ctx context.Context, actingUserID, targetUserID string, roleIDs []string) shared.OpResult {
	if res := s.authorize(ctx, actingUserID, shared.PermUserWrite); !res.Ok() {
		return res
	}

	if actingUserID == targetUserID {
		current, err := s.roles.GetUserRoles(ctx, actingUserID)
		if err != nil {
			return s.storeFailure("get current roles", err)
		}
		if contains(current, shared.RoleAdmin) && !contains(roleIDs, shared.RoleAdmin) {
			return shared.ResultForbidden("Admin tidak bisa menghapus peran 'admin' dari akunnya sendiri.")
		}
	}

	if res := s.authorizeRoleGrants(ctx, actingUserID, targetUserID, roleIDs); !res.Ok() {
		return res
	}

	if _, err := s.repo.GetUser(ctx, targetUserID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ResultNotFound("Pengguna tidak ditemukan.")
		}
		return s.storeFailure("get user", err)
	}
	if err := s.roles.ReplaceUserRoles(ctx, targetUserID, roleIDs); err != nil {
		return s.storeFailure("replace user roles", err)
	}
	return shared.ResultOK("Peran untuk pengguna " + targetUserID + " berhasil diperbarui.")
}

// Delete removes an account. Deleting one's own account is refused.
func (s *Service) Delete(ctx context.Context, actingUserID, targetUserID string) shared.OpResult {
	if res := s.authorize(ctx, actingUserID, shared.PermUserWrite); !res.Ok() {
		return res
	}
	if actingUserID == targetUserID {
		return shared.ResultForbidden("Admin tidak bisa menghapus akunnya sendiri.")
	}

	if err := s.repo.DeleteUser(ctx, targetUserID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ResultNotFound("Pengguna tidak ditemukan.")
		}
		return s.storeFailure("delete user", err)
	}
	return shared.ResultOK("Pengguna berhasil dihapus.")
}

func (s *Service) selfEditGuards(ctx context.Context, actingUserID string, input UpdateInput) shared.OpResult {
	current, err := s.roles.GetUserRoles(ctx, actingUserID)
	if err != nil {
		return s.storeFailure("get current roles", err)
	}
	if contains(current, shared.RoleAdmin) && !contains(input.RoleIDs, shared.RoleAdmin) {
		return shared.ResultForbidden("Admin tidak bisa menghapus peran 'admin' dari akunnya sendiri.")
	}
	if !input.Active {
		return shared.ResultForbidden("Admin tidak bisa menonaktifkan akunnya sendiri.")
	}
	return shared.ResultOK("")
}

// authorizeRoleGrants re-checks the write permission against every role the
// edit would newly grant, so the hierarchy scope applies per role. Roles the
// target already holds are not re-checked.
func (s *Service) authorizeRoleGrants(ctx context.Context, actingUserID, targetUserID string, roleIDs []string) shared.OpResult {
	if len(roleIDs) == 0 {
		return shared.ResultOK("")
	}
	current, err := s.roles.GetUserRoles(ctx, targetUserID)
	if err != nil {
		return s.storeFailure("get target roles", err)
	}
	for _, roleID := range roleIDs {
		if contains(current, roleID) {
			continue
		}
		granted, err := s.guard.UserHasPermission(ctx, actingUserID, shared.PermUserWrite, rbac.TargetingRole(roleID))
		if err != nil {
			s.logger.Error("authorization check failed",
				slog.String("user_id", actingUserID),
				slog.String("target_role_id", roleID),
				slog.Any("error", err))
			return shared.ResultUnavailable()
		}
		if !granted {
			return shared.ResultForbidden("Anda tidak berwenang memberikan peran " + roleID + ".")
		}
	}
	return shared.ResultOK("")
}

func (s *Service) authorize(ctx context.Context, actingUserID, permissionID string) shared.OpResult {
	if actingUserID == "" {
		return shared.ResultUnauthorized()
	}
	granted, err := s.guard.UserHasPermission(ctx, actingUserID, permissionID, rbac.NoResource())
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
			switch fe.Tag() {
			case "required":
				fields[field] = append(fields[field], "Wajib diisi.")
			case "min":
				fields[field] = append(fields[field], "Minimal "+fe.Param()+" karakter.")
			default:
				fields[field] = append(fields[field], "Tidak valid.")
			}
		}
	} else {
		fields["general"] = append(fields["general"], "Data tidak valid.")
	}
	return fields
}

func (s *Service) storeFailure(op string, err error) shared.OpResult {
	s.logger.Error("user admin store failure", slog.String("op", op), slog.Any("error", err))
	return shared.ResultUnavailable()
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
