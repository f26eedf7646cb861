package rbac

import (
	"net/http"

	"log/slog"

	"github.com/HayaseDB/hayasedb-sub000/internal/platform/httpx"
	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Engine *Engine
	Logger *slog.Logger
}

// Require ensures the current user holds the given permission.
func (m Middleware) Require(perm string) func(http.Handler) http.Handler {
	return m.RequireAny(perm)
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
				return
			}
			if m.Engine.HasAnyPermission([]Role{Role(identity.Role)}, perms...) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Debug("permission denied", slog.String("role", identity.Role), slog.Any("required", perms))
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "forbidden")
		})
	}
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
				return
			}
			if m.Engine.HasAllPermissions([]Role{Role(identity.Role)}, perms...) {
				next.ServeHTTP(w, r)
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "forbidden")
		})
	}
}
