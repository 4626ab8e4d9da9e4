package members

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jamiyah-app/jamiyah/internal/rbac"
	"github.com/jamiyah-app/jamiyah/internal/shared"
	"github.com/jamiyah-app/jamiyah/internal/territory"
)

// Guard answers authorization questions for member operations.
type Guard interface {
	UserHasPermission(ctx context.Context, userID, permissionID string, res rbac.Resource) (bool, error)
}

// RepositoryPort is the persistence surface the service needs.
type RepositoryPort interface {
	ListMembers(ctx context.Context, f ListFilters) ([]Member, error)
	GetMember(ctx context.Context, id int64) (Member, error)
	CreateMember(ctx context.Context, in MemberInput) (int64, error)
	UpdateMember(ctx context.Context, id int64, in MemberInput) error
	DeleteMember(ctx context.Context, id int64) error
}

// RoleStore exposes the role data needed to scope listings by territory.
type RoleStore interface {
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
	GetRole(ctx context.Context, roleID string) (rbac.Role, error)
	UserContext(ctx context.Context, userID string) (rbac.UserContext, error)
}

type Service struct {
	guard    Guard
	repo     RepositoryPort
	roles    RoleStore
	regions  territory.Directory
	validate *validator.Validate
	collator *collate.Collator
	logger   *slog.Logger
}

func NewService(guard Guard, repo RepositoryPort, roles RoleStore, regions territory.Directory, logger *slog.Logger) *Service {
	return &Service{
		guard:    guard,
		repo:     repo,
		roles:    roles,
		regions:  regions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		collator: collate.New(language.Indonesian),
		logger:   logger,
	}
}

// List returns the records the acting user may see. Users holding only
// region-scoped roles see their own region's records, everyone else with the
// read permission sees all of them.
func (s *Service) List(ctx context.Context, actingUserID, search string) ([]Member, shared.OpResult) {
	if res := s.authorize(ctx, actingUserID, shared.PermPendataanRead, rbac.NoResource()); !res.Ok() {
		return nil, res
	}

	filters := ListFilters{Search: strings.TrimSpace(search)}
	restricted, regionID, res := s.territoryFilter(ctx, actingUserID)
	if !res.Ok() {
		return nil, res
	}
	if restricted {
		filters.RegionID = &regionID
	}

	list, err := s.repo.ListMembers(ctx, filters)
	if err != nil {
		return nil, s.storeFailure(ctx, "list members", err)
	}
	s.sortByName(list)
	return list, shared.ResultOK("")
}

func (s *Service) Get(ctx context.Context, actingUserID string, id int64) (Member, shared.OpResult) {
	m, err := s.repo.GetMember(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return Member{}, shared.ResultNotFound(shared.UserSafeMessage(err))
	}
	if err != nil {
		return Member{}, s.storeFailure(ctx, "get member", err)
	}
	if res := s.authorize(ctx, actingUserID, shared.PermPendataanRead, localityResource(m.LocalityID)); !res.Ok() {
		return Member{}, res
	}
	return m, shared.ResultOK("")
}

func (s *Service) Create(ctx context.Context, actingUserID string, in MemberInput) (int64, shared.OpResult) {
	if fields := s.validateInput(in); len(fields) > 0 {
		return 0, shared.ResultValidation(fields)
	}
	if res := s.authorize(ctx, actingUserID, shared.PermPendataanWrite, localityResource(in.LocalityID)); !res.Ok() {
		return 0, res
	}
	in.FullName = strings.TrimSpace(in.FullName)
	id, err := s.repo.CreateMember(ctx, in)
	if err != nil {
		return 0, s.storeFailure(ctx, "create member", err)
	}
	return id, shared.ResultOK("Data anggota tersimpan.")
}

func (s *Service) Update(ctx context.Context, actingUserID string, id int64, in MemberInput) shared.OpResult {
	if fields := s.validateInput(in); len(fields) > 0 {
		return shared.ResultValidation(fields)
	}
	current, err := s.repo.GetMember(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.ResultNotFound(shared.UserSafeMessage(err))
	}
	if err != nil {
		return s.storeFailure(ctx, "get member", err)
	}
	// The actor must be allowed to write both where the record sits now and
	// where it is being moved to.
	if res := s.authorize(ctx, actingUserID, shared.PermPendataanWrite, localityResource(current.LocalityID)); !res.Ok() {
		return res
	}
	if in.LocalityID != nil && !sameLocality(current.LocalityID, in.LocalityID) {
		if res := s.authorize(ctx, actingUserID, shared.PermPendataanWrite, localityResource(in.LocalityID)); !res.Ok() {
			return res
		}
	}
	in.FullName = strings.TrimSpace(in.FullName)
	if err := s.repo.UpdateMember(ctx, id, in); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ResultNotFound(shared.UserSafeMessage(err))
		}
		return s.storeFailure(ctx, "update member", err)
	}
	return shared.ResultOK("Data anggota diperbarui.")
}

func (s *Service) Delete(ctx context.Context, actingUserID string, id int64) shared.OpResult {
	current, err := s.repo.GetMember(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.ResultNotFound(shared.UserSafeMessage(err))
	}
	if err != nil {
		return s.storeFailure(ctx, "get member", err)
	}
	if res := s.authorize(ctx, actingUserID, shared.PermPendataanWrite, localityResource(current.LocalityID)); !res.Ok() {
		return res
	}
	if err := s.repo.DeleteMember(ctx, id); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return s.storeFailure(ctx, "delete member", err)
	}
	return shared.ResultOK("Data anggota dihapus.")
}

// territoryFilter reports whether the acting user holds only region-scoped
// roles, and if so which region their listing is confined to.
func (s *Service) territoryFilter(ctx context.Context, actingUserID string) (bool, int64, shared.OpResult) {
	roleIDs, err := s.roles.GetUserRoles(ctx, actingUserID)
	if err != nil {
		return false, 0, s.storeFailure(ctx, "load user roles", err)
	}
	restricted := len(roleIDs) > 0
	for _, id := range roleIDs {
		role, err := s.roles.GetRole(ctx, id)
		if err != nil {
			return false, 0, s.storeFailure(ctx, "load role", err)
		}
		if role.Scope != rbac.ScopeRegion {
			restricted = false
			break
		}
	}
	if !restricted {
		return false, 0, shared.ResultOK("")
	}

	uc, err := s.roles.UserContext(ctx, actingUserID)
	if err != nil {
		return false, 0, s.storeFailure(ctx, "load user context", err)
	}
	if uc.LocalityID == nil {
		s.logger.WarnContext(ctx, "region-scoped user has no locality", "user_id", actingUserID)
		return false, 0, shared.ResultForbidden("Wilayah akun Anda tidak dapat ditentukan.")
	}
	regionID, ok, err := s.regions.RegionOf(ctx, *uc.LocalityID)
	if err != nil {
		return false, 0, s.storeFailure(ctx, "resolve region", err)
	}
	if !ok {
		s.logger.WarnContext(ctx, "locality has no region", "user_id", actingUserID, "locality_id", *uc.LocalityID)
		return false, 0, shared.ResultForbidden("Wilayah akun Anda tidak dapat ditentukan.")
	}
	return true, regionID, shared.ResultOK("")
}

func (s *Service) sortByName(list []Member) {
	sort.SliceStable(list, func(i, j int) bool {
		return s.collator.CompareString(list[i].FullName, list[j].FullName) < 0
	})
}

func (s *Service) authorize(ctx context.Context, actingUserID, permissionID string, res rbac.Resource) shared.OpResult {
	if actingUserID == "" {
		return shared.ResultUnauthorized()
	}
	granted, err := s.guard.UserHasPermission(ctx, actingUserID, permissionID, res)
	if err != nil {
		s.logger.ErrorContext(ctx, "authorization check failed", "permission", permissionID, "error", err)
		return shared.ResultUnavailable()
	}
	if !granted {
		return shared.ResultForbidden("Anda tidak memiliki izin untuk tindakan ini.")
	}
	return shared.ResultOK("")
}

func (s *Service) validateInput(in MemberInput) map[string][]string {
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
	case "oneof":
		return "Nilai tidak dikenal."
	default:
		return "Tidak valid."
	}
}

func (s *Service) storeFailure(ctx context.Context, op string, err error) shared.OpResult {
	s.logger.ErrorContext(ctx, op+" failed", "error", err)
	return shared.ResultUnavailable()
}

func localityResource(id *int64) rbac.Resource {
	if id == nil {
		return rbac.NoResource()
	}
	return rbac.InLocality(*id)
}

func sameLocality(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
