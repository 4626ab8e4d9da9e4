package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jamiyah-app/jamiyah/internal/platform/httpx"
	"github.com/jamiyah-app/jamiyah/internal/shared"
)

// Handler exposes user administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Put("/{userID}", h.updateUser)
	r.Put("/{userID}/roles", h.updateUserRoles)
	r.Delete("/{userID}", h.deleteUser)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, res := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()))
	if !res.Ok() {
		httpx.RespondResult(w, res)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	id, res := h.service.Create(r.Context(), shared.UserIDFromContext(r.Context()), input)
	if !res.Ok() {
		httpx.RespondResult(w, res)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": id, "message": res.Message})
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	targetUserID := chi.URLParam(r, "userID")
	httpx.RespondResult(w, h.service.Update(r.Context(), shared.UserIDFromContext(r.Context()), targetUserID, input))
}

type roleListBody struct {
	RoleIDs []string `json:"role_ids"`
}

func (h *Handler) updateUserRoles(w http.ResponseWriter, r *http.Request) {
	var body roleListBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	targetUserID := chi.URLParam(r, "userID")
	httpx.RespondResult(w, h.service.UpdateRoles(r.Context(), shared.UserIDFromContext(r.Context()), targetUserID, body.RoleIDs))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	targetUserID := chi.URLParam(r, "userID")
	httpx.RespondResult(w, h.service.Delete(r.Context(), shared.UserIDFromContext(r.Context()), targetUserID))
}
