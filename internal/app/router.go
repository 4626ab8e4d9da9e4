package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jamiyah-app/jamiyah/internal/auth"
	"github.com/jamiyah-app/jamiyah/internal/members"
	"github.com/jamiyah-app/jamiyah/internal/nasyath"
	"github.com/jamiyah-app/jamiyah/internal/rbac"
	"github.com/jamiyah-app/jamiyah/internal/roles"
	"github.com/jamiyah-app/jamiyah/internal/shared"
	"github.com/jamiyah-app/jamiyah/internal/territory"
	"github.com/jamiyah-app/jamiyah/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	AuthHandler      *auth.Handler
	RolesHandler     *roles.Handler
	UsersHandler     *users.Handler
	MembersHandler   *members.Handler
	NasyathHandler   *nasyath.Handler
	TerritoryHandler *territory.Handler
	Authz            rbac.Middleware
}

// NewRouter constructs the chi.Router serving the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/admin", func(r chi.Router) {
		r.Use(params.Authz.RequireAny(shared.PermAdminAccess, shared.PermRoleWrite, shared.PermUserWrite))
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
	})

	if params.MembersHandler != nil {
		r.Route("/members", func(r chi.Router) {
			r.Use(params.Authz.RequireAny(shared.PermPendataanRead, shared.PermPendataanWrite))
			params.MembersHandler.MountRoutes(r)
		})
	}

	// No permission gate here: members without the global nasyath
	// permissions still reach their own records, the service decides.
	if params.NasyathHandler != nil {
		r.Route("/nasyath", params.NasyathHandler.MountRoutes)
	}

	if params.TerritoryHandler != nil {
		r.Route("/territory", params.TerritoryHandler.MountRoutes)
	}

	return r
}
