package nasyath

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jamiyah-app/jamiyah/internal/platform/httpx"
	"github.com/jamiyah-app/jamiyah/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listActivities)
	r.Post("/", h.createActivity)
	r.Get("/export", h.exportActivities)
	r.Get("/{activityID}", h.getActivity)
	r.Put("/{activityID}", h.updateActivity)
	r.Delete("/{activityID}", h.deleteActivity)
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	list, res := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()), r.URL.Query().Get("q"))
	if !res.Ok() {
		httpx.RespondResult(w, res)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"activities": list})
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid activityID")
		return
	}
	a, res := h.service.Get(r.Context(), shared.UserIDFromContext(r.Context()), id)
	if !res.Ok() {
		httpx.RespondResult(w, res)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	var in ActivityInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	id, res := h.service.Create(r.Context(), shared.UserIDFromContext(r.Context()), in)
	if !res.Ok() {
		httpx.RespondResult(w, res)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": id, "message": res.Message})
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid activityID")
		return
	}
	var in ActivityInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	httpx.RespondResult(w, h.service.Update(r.Context(), shared.UserIDFromContext(r.Context()), id, in))
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid activityID")
		return
	}
	httpx.RespondResult(w, h.service.Delete(r.Context(), shared.UserIDFromContext(r.Context()), id))
}

func (h *Handler) exportActivities(w http.ResponseWriter, r *http.Request) {
	data, res := h.service.ExportCSV(r.Context(), shared.UserIDFromContext(r.Context()))
	if !res.Ok() {
		httpx.RespondResult(w, res)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="nasyath.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func activityID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "activityID"), 10, 64)
}
