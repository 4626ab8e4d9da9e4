package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jamiyah-app/jamiyah/internal/platform/httpx"
	"github.com/jamiyah-app/jamiyah/internal/shared"
)

// Handler exposes role administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers role administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.overview)
	r.Post("/", h.createRole)
	r.Put("/{roleID}", h.updateRole)
	r.Delete("/{roleID}", h.deleteRole)
	r.Get("/{roleID}/sub-roles", h.subRoles)
	r.Put("/{roleID}/permissions", h.replacePermissions)
	r.Put("/{roleID}/members", h.replaceMembership)
	r.Put("/{roleID}/children", h.replaceChildren)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	overview, res := h.service.Overview(r.Context(), shared.UserIDFromContext(r.Context()))
	if !res.Ok() {
		httpx.RespondResult(w, res)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var spec RoleSpec
	if err := httpx.DecodeJSON(r, &spec); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	httpx.RespondResult(w, h.service.Create(r.Context(), shared.UserIDFromContext(r.Context()), spec))
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var update RoleUpdate
	if err := httpx.DecodeJSON(r, &update); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	roleID := chi.URLParam(r, "roleID")
	httpx.RespondResult(w, h.service.Update(r.Context(), shared.UserIDFromContext(r.Context()), roleID, update))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	httpx.RespondResult(w, h.service.Delete(r.Context(), shared.UserIDFromContext(r.Context()), roleID))
}

func (h *Handler) subRoles(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	subRoles, res := h.service.SubRoles(r.Context(), shared.UserIDFromContext(r.Context()), roleID)
	if !res.Ok() {
		httpx.RespondResult(w, res)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role_id": roleID, "sub_roles": subRoles})
}

type idListBody struct {
	IDs []string `json:"ids"`
}

func (h *Handler) replacePermissions(w http.ResponseWriter, r *http.Request) {
	var body idListBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	roleID := chi.URLParam(r, "roleID")
	httpx.RespondResult(w, h.service.ReplacePermissions(r.Context(), shared.UserIDFromContext(r.Context()), roleID, body.IDs))
}

func (h *Handler) replaceMembership(w http.ResponseWriter, r *http.Request) {
	var body idListBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	roleID := chi.URLParam(r, "roleID")
	httpx.RespondResult(w, h.service.ReplaceMembership(r.Context(), shared.UserIDFromContext(r.Context()), roleID, body.IDs))
}

func (h *Handler) replaceChildren(w http.ResponseWriter, r *http.Request) {
	var body idListBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	roleID := chi.URLParam(r, "roleID")
	httpx.RespondResult(w, h.service.ReplaceChildren(r.Context(), shared.UserIDFromContext(r.Context()), roleID, body.IDs))
}
