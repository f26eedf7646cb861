package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/HayaseDB/hayasedb-sub000/internal/animes"
	"github.com/HayaseDB/hayasedb-sub000/internal/auth"
	"github.com/HayaseDB/hayasedb-sub000/internal/contrib"
	"github.com/HayaseDB/hayasedb-sub000/internal/genres"
	"github.com/HayaseDB/hayasedb-sub000/internal/rbac"
	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
	"github.com/HayaseDB/hayasedb-sub000/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler        *auth.Handler
	AnimesHandler      *animes.Handler
	GenresHandler      *genres.Handler
	UsersHandler       *users.Handler
	ContribHandler     *contrib.Handler
	PermissionsHandler *rbac.PermissionsHandler
}

// NewRouter constructs the chi.Router with HayaseDB defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
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
	if params.AnimesHandler != nil {
		r.Route("/animes", func(r chi.Router) {
			params.AnimesHandler.MountRoutes(r)
		})
	}
	if params.GenresHandler != nil {
		r.Route("/genres", func(r chi.Router) {
			params.GenresHandler.MountRoutes(r)
		})
	}
	if params.UsersHandler != nil {
		r.Route("/users", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r)
		})
	}
	if params.ContribHandler != nil {
		r.Route("/contributions", func(r chi.Router) {
			params.ContribHandler.MountRoutes(r)
		})
	}
	if params.PermissionsHandler != nil {
		r.Route("/rbac", func(r chi.Router) {
			params.PermissionsHandler.MountRoutes(r)
		})
	}

	return r
}
