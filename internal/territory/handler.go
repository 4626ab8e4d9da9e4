package territory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jamiyah-app/jamiyah/internal/platform/httpx"
)

// Handler exposes the territory tree for dependent dropdowns.
type Handler struct {
	logger    *slog.Logger
	directory Directory
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, directory Directory) *Handler {
	return &Handler{logger: logger, directory: directory}
}

// MountRoutes registers territory lookup routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/regions", h.listRegions)
	r.Get("/regions/{regionID}/sub-regions", h.listSubRegions)
	r.Get("/sub-regions/{subRegionID}/districts", h.listDistricts)
	r.Get("/districts/{districtID}/localities", h.listLocalities)
}

func (h *Handler) listRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.directory.Regions(r.Context())
	if err != nil {
		h.logger.Error("list regions", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, regions)
}

func (h *Handler) listSubRegions(w http.ResponseWriter, r *http.Request) {
	regionID, ok := h.pathID(w, r, "regionID")
	if !ok {
		return
	}
	subs, err := h.directory.SubRegions(r.Context(), regionID)
	if err != nil {
		h.logger.Error("list sub-regions", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, subs)
}

func (h *Handler) listDistricts(w http.ResponseWriter, r *http.Request) {
	subRegionID, ok := h.pathID(w, r, "subRegionID")
	if !ok {
		return
	}
	districts, err := h.directory.Districts(r.Context(), subRegionID)
	if err != nil {
		h.logger.Error("list districts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, districts)
}

func (h *Handler) listLocalities(w http.ResponseWriter, r *http.Request) {
	districtID, ok := h.pathID(w, r, "districtID")
	if !ok {
		return
	}
	localities, err := h.directory.Localities(r.Context(), districtID)
	if err != nil {
		h.logger.Error("list localities", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, localities)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+name)
		return 0, false
	}
	return id, true
}
