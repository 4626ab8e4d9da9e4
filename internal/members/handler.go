package members

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jamiyah-app/jamiyah/internal/platform/httpx"
	"github.com/jamiyah-app/jamiyah/internal/shared"
)

// ExportEnqueuer schedules a background export run.
type ExportEnqueuer interface {
	EnqueueExport(ctx context.Context, actingUserID string) (string, error)
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	exporter ExportEnqueuer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, exporter ExportEnqueuer) *Handler {
	return &Handler{logger: logger, service: service, exporter: exporter}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listMembers)
	r.Post("/", h.createMember)
	r.Get("/export", h.exportMembers)
	r.Post("/export", h.enqueueExport)
	r.Get("/{memberID}", h.getMember)
	r.Put("/{memberID}", h.updateMember)
	r.Delete("/{memberID}", h.deleteMember)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	list, res := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()), r.URL.Query().Get("q"))
	if !res.Ok() {
		httpx.RespondResult(w, res)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": list})
}

func (h *Handler) getMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid memberID")
		return
	}
	m, res := h.service.Get(r.Context(), shared.UserIDFromContext(r.Context()), id)
	if !res.Ok() {
		httpx.RespondResult(w, res)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) createMember(w http.ResponseWriter, r *http.Request) {
	var in MemberInput
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

func (h *Handler) updateMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid memberID")
		return
	}
	var in MemberInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	httpx.RespondResult(w, h.service.Update(r.Context(), shared.UserIDFromContext(r.Context()), id, in))
}

func (h *Handler) deleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid memberID")
		return
	}
	httpx.RespondResult(w, h.service.Delete(r.Context(), shared.UserIDFromContext(r.Context()), id))
}

func (h *Handler) exportMembers(w http.ResponseWriter, r *http.Request) {
	data, res := h.service.ExportCSV(r.Context(), shared.UserIDFromContext(r.Context()))
	if !res.Ok() {
		httpx.RespondResult(w, res)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="anggota.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) enqueueExport(w http.ResponseWriter, r *http.Request) {
	actingUserID := shared.UserIDFromContext(r.Context())
	if actingUserID == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Sesi tidak ditemukan. Silakan masuk kembali.")
		return
	}
	if h.exporter == nil {
		httpx.Problem(w, http.StatusNotImplemented, "Not Implemented", "Ekspor latar belakang tidak tersedia.")
		return
	}
	taskID, err := h.exporter.EnqueueExport(r.Context(), actingUserID)
	if err != nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "Ekspor tidak dapat dijadwalkan.")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"task_id": taskID})
}

func memberID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "memberID"), 10, 64)
}
