package nasyath

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jamiyah-app/jamiyah/internal/rbac"
	"github.com/jamiyah-app/jamiyah/internal/shared"
)

// Guard answers authorization questions for activity operations.
type Guard interface {
	UserHasPermission(ctx context.Context, userID, permissionID string, res rbac.Resource) (bool, error)
}

// RepositoryPort is the persistence surface the service needs.
type RepositoryPort interface {
	ListActivities(ctx context.Context, f ListFilters) ([]Activity, error)
	GetActivity(ctx context.Context, id int64) (Activity, error)
	CreateActivity(ctx context.Context, memberID int64, updatedBy string, in ActivityInput) (int64, error)
	UpdateActivity(ctx context.Context, id int64, updatedBy string, in ActivityInput) error
	DeleteActivity(ctx context.Context, id int64) error
}

// RoleStore exposes the account data needed for the ownership fallback.
type RoleStore interface {
	UserContext(ctx context.Context, userID string) (rbac.UserContext, error)
}

type Service struct {
	guard    Guard
	repo     RepositoryPort
	roles    RoleStore
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(guard Guard, repo RepositoryPort, roles RoleStore, logger *slog.Logger) *Service {
	return &Service{
		guard:    guard,
		repo:     repo,
		roles:    roles,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// List returns the records the acting user may see. Holders of the global
// read permission see everything; everyone else sees the records of the
// member their account is linked to, or nothing when it is not linked.
func (s *Service) List(ctx context.Context, actingUserID, search string) ([]Activity, shared.OpResult) {
	if actingUserID == "" {
		return nil, shared.ResultUnauthorized()
	}
	global, res := s.hasGlobal(ctx, actingUserID, shared.PermNasyathRead)
	if !res.Ok() {
		return nil, res
	}

	filters := ListFilters{Search: strings.TrimSpace(search)}
	if !global {
		memberID, res := s.ownMember(ctx, actingUserID)
		if !res.Ok() {
			return nil, res
		}
		if memberID == nil {
			return []Activity{}, shared.ResultOK("")
		}
		filters.MemberID = memberID
	}

	list, err := s.repo.ListActivities(ctx, filters)
	if err != nil {
		return nil, s.storeFailure(ctx, "list activities", err)
	}
	sortByStart(list)
	return list, shared.ResultOK("")
}

func (s *Service) Get(ctx context.Context, actingUserID string, id int64) (Activity, shared.OpResult) {
	a, err := s.repo.GetActivity(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return Activity{}, shared.ResultNotFound(shared.UserSafeMessage(err))
	}
	if err != nil {
		return Activity{}, s.storeFailure(ctx, "get activity", err)
	}
	if res := s.authorizeRecord(ctx, actingUserID, shared.PermNasyathRead, a.MemberID); !res.Ok() {
		return Activity{}, res
	}
	return a, shared.ResultOK("")
}

// Create records an activity for the acting user's own member. Accounts not
// linked to a member cannot create records, the global write permission does
// not change that.
func (s *Service) Create(ctx context.Context, actingUserID string, in ActivityInput) (int64, shared.OpResult) {
	if actingUserID == "" {
		return 0, shared.ResultUnauthorized()
	}
	if fields := s.validateInput(in); len(fields) > 0 {
		return 0, shared.ResultValidation(fields)
	}
	memberID, res := s.ownMember(ctx, actingUserID)
	if !res.Ok() {
		return 0, res
	}
	if memberID == nil {
		return 0, shared.ResultForbidden("Akses ditolak: akun Anda tidak terhubung dengan data anggota.")
	}
	in.Name = strings.TrimSpace(in.Name)
	id, err := s.repo.CreateActivity(ctx, *memberID, actingUserID, in)
	if err != nil {
		return 0, s.storeFailure(ctx, "create activity", err)
	}
	return id, shared.ResultOK("Catatan kegiatan tersimpan.")
}

func (s *Service) Update(ctx context.Context, actingUserID string, id int64, in ActivityInput) shared.OpResult {
	if fields := s.validateInput(in); len(fields) > 0 {
		return shared.ResultValidation(fields)
	}
	current, err := s.repo.GetActivity(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.ResultNotFound(shared.UserSafeMessage(err))
	}
	if err != nil {
		return s.storeFailure(ctx, "get activity", err)
	}
	if res := s.authorizeRecord(ctx, actingUserID, shared.PermNasyathWrite, current.MemberID); !res.Ok() {
		return res
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := s.repo.UpdateActivity(ctx, id, actingUserID, in); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ResultNotFound(shared.UserSafeMessage(err))
		}
		return s.storeFailure(ctx, "update activity", err)
	}
	return shared.ResultOK("Catatan kegiatan diperbarui.")
}

func (s *Service) Delete(ctx context.Context, actingUserID string, id int64) shared.OpResult {
	current, err := s.repo.GetActivity(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.ResultNotFound(shared.UserSafeMessage(err))
	}
	if err != nil {
		return s.storeFailure(ctx, "get activity", err)
	}
	if res := s.authorizeRecord(ctx, actingUserID, shared.PermNasyathWrite, current.MemberID); !res.Ok() {
		return res
	}
	if err := s.repo.DeleteActivity(ctx, id); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return s.storeFailure(ctx, "delete activity", err)
	}
	return shared.ResultOK("Catatan kegiatan dihapus.")
}

// authorizeRecord grants access when the acting user holds the global
// permission or owns the record through their linked member. Guard failures
// surface as unavailable, never as a silent deny.
func (s *Service) authorizeRecord(ctx context.Context, actingUserID, permissionID string, memberID int64) shared.OpResult {
	if actingUserID == "" {
		return shared.ResultUnauthorized()
	}
	granted, err := s.guard.UserHasPermission(ctx, actingUserID, permissionID, rbac.NoResource())
	if err != nil {
		s.logger.ErrorContext(ctx, "authorization check failed", "permission", permissionID, "error", err)
		return shared.ResultUnavailable()
	}
	if granted {
		return shared.ResultOK("")
	}
	own, res := s.ownMember(ctx, actingUserID)
	if !res.Ok() {
		return res
	}
	if own != nil && *own == memberID {
		return shared.ResultOK("")
	}
	return shared.ResultForbidden("Anda tidak memiliki izin untuk tindakan ini.")
}

func (s *Service) hasGlobal(ctx context.Context, actingUserID, permissionID string) (bool, shared.OpResult) {
	granted, err := s.guard.UserHasPermission(ctx, actingUserID, permissionID, rbac.NoResource())
	if err != nil {
		s.logger.ErrorContext(ctx, "authorization check failed", "permission", permissionID, "error", err)
		return false, shared.ResultUnavailable()
	}
	return granted, shared.ResultOK("")
}

// ownMember resolves the member id the acting user's account is linked to,
// nil when the account is unlinked. Inactive accounts get nothing.
func (s *Service) ownMember(ctx context.Context, actingUserID string) (*int64, shared.OpResult) {
	uc, err := s.roles.UserContext(ctx, actingUserID)
	if errors.Is(err, rbac.ErrNotFound) {
		return nil, shared.ResultOK("")
	}
	if err != nil {
		return nil, s.storeFailure(ctx, "load user context", err)
	}
	if !uc.Active {
		return nil, shared.ResultOK("")
	}
	return uc.MemberID, shared.ResultOK("")
}

func sortByStart(list []Activity) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].StartDate, list[j].StartDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		}
		return list[i].ID > list[j].ID
	})
}

func (s *Service) validateInput(in ActivityInput) map[string][]string {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	fields := map[string][]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			name := strings.ToLower(fe.Field())
			fields[name] = append(fields[name], fieldMessage(fe))
		}
	}
	if len(fields) == 0 {
		fields["_"] = []string{"Data tidak valid."}
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Wajib diisi."
	case "min":
		return "Terlalu pendek, minimal " + fe.Param() + " karakter."
	default:
		return "Tidak valid."
	}
}

func (s *Service) storeFailure(ctx context.Context, op string, err error) shared.OpResult {
	s.logger.ErrorContext(ctx, op+" failed", "error", err)
	return shared.ResultUnavailable()
}
