package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jamiyah-app/jamiyah/internal/shared"
)

// Middleware wires authorization guards for HTTP handlers.
type Middleware struct {
	Engine *Engine
	Logger *slog.Logger
}

// RequireAny ensures the current user holds at least one of the required
// permissions. Unscoped check: resource-level refinement stays in handlers.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			userID := shared.UserIDFromContext(r.Context())
			if userID == "" {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, perm := range perms {
				granted, err := m.Engine.UserHasPermission(r.Context(), userID, perm, NoResource())
				if err != nil {
					if m.Logger != nil {
						m.Logger.Error("authorization unavailable", slog.Any("error", err))
					}
					if errors.Is(err, ErrUnavailable) {
						http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
						return
					}
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				if granted {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// Require ensures the current user holds the one required permission.
func (m Middleware) Require(perm string) func(http.Handler) http.Handler {
	return m.RequireAny(perm)
}
