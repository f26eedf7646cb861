package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HayaseDB/hayasedb-sub000/internal/platform/httpx"
)

// PermissionsHandler exposes the compiled grant sets for audit views.
type PermissionsHandler struct {
	engine *Engine
	mw     Middleware
}

// NewPermissionsHandler constructs a PermissionsHandler.
func NewPermissionsHandler(engine *Engine, mw Middleware) *PermissionsHandler {
	return &PermissionsHandler{engine: engine, mw: mw}
}

// MountRoutes registers permission introspection routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require("global:users.read:any"))
		r.Get("/roles", h.listRoles)
		r.Get("/roles/{role}", h.showRole)
	})
}

func (h *PermissionsHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.engine.Roles()
	out := make([]map[string]any, 0, len(roles))
	for _, role := range roles {
		out = append(out, map[string]any{
			"role":        role,
			"permissions": h.engine.PermissionsForRole(role),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *PermissionsHandler) showRole(w http.ResponseWriter, r *http.Request) {
	role := Role(chi.URLParam(r, "role"))
	perms := h.engine.PermissionsForRole(role)
	if perms == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown role")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role, "permissions": perms})
}
