package contrib

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/HayaseDB/hayasedb-sub000/internal/platform/httpx"
	"github.com/HayaseDB/hayasedb-sub000/internal/rbac"
	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

// Handler wires HTTP endpoints for the contribution workflow.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	reg      *registry.Registry
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler constructs the contribution handler.
func NewHandler(logger *slog.Logger, service *Service, reg *registry.Registry, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, reg: reg, rbac: mw, validate: validator.New()}
}

// MountRoutes registers contribution routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("global:contributions.create"))
		r.Post("/", h.handleCreate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny("global:contributions.read:own", "global:contributions.read:any"))
		r.Get("/", h.handleListOwn)
		r.Get("/schema/{target}", h.handleSchema)
		r.Get("/{id}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("global:contributions.update:own"))
		r.Patch("/{id}", h.handleUpdate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("global:contributions.delete:own"))
		r.Delete("/{id}", h.handleDelete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("global:contributions.submit:own"))
		r.Post("/{id}/submit", h.handleSubmit)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("global:contributions.review:any"))
		r.Get("/queue", h.handleQueue)
		r.Post("/{id}/approve", h.handleApprove)
		r.Post("/{id}/reject", h.handleReject)
	})
}

type createContributionRequest struct {
	Target string         `json:"target" validate:"required"`
	Data   map[string]any `json:"data" validate:"required"`
	Note   string         `json:"note" validate:"max=1000"`
}

type updateContributionRequest struct {
	Data map[string]any `json:"data" validate:"required"`
}

type rejectContributionRequest struct {
	Note string `json:"note" validate:"max=1000"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	var req createContributionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.Create(r.Context(), actor, registry.EntityType(req.Target), req.Data, req.Note)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("contribution created",
		slog.String("contribution_id", c.ID.String()),
		slog.String("target", string(c.Target)))
	httpx.JSON(w, http.StatusCreated, map[string]any{"contribution": c})
}

func (h *Handler) handleListOwn(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	items, pagination, err := h.service.ListOwn(r.Context(), actor, listFilterFromRequest(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"contributions": items, "pagination": pagination})
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	items, pagination, err := h.service.Queue(r.Context(), listFilterFromRequest(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"contributions": items, "pagination": pagination})
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	target := registry.EntityType(chi.URLParam(r, "target"))
	schema, err := SchemaFor(h.reg, target)
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown entity type")
		return
	}
	httpx.JSON(w, http.StatusOK, schema)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resolved, err := h.service.Resolve(r.Context(), c)
	if err != nil {
		h.logger.Error("resolve contribution payload", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"contribution": c, "resolved": resolved})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req updateContributionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.Update(r.Context(), actor, id, req.Data)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"contribution": c})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Submit(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("contribution submitted", slog.String("contribution_id", c.ID.String()))
	httpx.JSON(w, http.StatusOK, map[string]any{"contribution": c})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Approve(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("contribution approved",
		slog.String("contribution_id", c.ID.String()),
		slog.String("reviewer_id", actor.UserID.String()))
	httpx.JSON(w, http.StatusOK, map[string]any{"contribution": c})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req rejectContributionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	c, err := h.service.Reject(r.Context(), actor, id, req.Note)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("contribution rejected",
		slog.String("contribution_id", c.ID.String()),
		slog.String("reviewer_id", actor.UserID.String()))
	httpx.JSON(w, http.StatusOK, map[string]any{"contribution": c})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such contribution")
		return uuid.Nil, false
	}
	return id, true
}

func listFilterFromRequest(r *http.Request) ListFilter {
	q := r.URL.Query()
	page, perPage := shared.PageRequest(r)
	filter := ListFilter{
		SortBy:  q.Get("sort_by"),
		SortDir: q.Get("sort_dir"),
		Page:    page,
		PerPage: perPage,
	}
	if raw := q.Get("status"); raw != "" {
		status := Status(raw)
		filter.Status = &status
	}
	if raw := q.Get("target"); raw != "" {
		target := registry.EntityType(raw)
		filter.Target = &target
	}
	return filter
}
