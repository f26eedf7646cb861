package animes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/HayaseDB/hayasedb-sub000/internal/platform/httpx"
	"github.com/HayaseDB/hayasedb-sub000/internal/rbac"
	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

// Handler wires HTTP endpoints for the animes module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler constructs animes handler.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw, validate: validator.New()}
}

// MountRoutes registers anime routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("global:animes.read"))
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("global:animes.create"))
		r.Post("/", h.handleCreate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("global:animes.update"))
		r.Put("/{id}", h.handleUpdate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("global:animes.delete"))
		r.Delete("/{id}", h.handleDelete)
	})
}

type animeRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Synopsis    *string  `json:"synopsis"`
	Status      *string  `json:"status" validate:"omitempty,oneof=announced airing finished"`
	ReleaseYear *int     `json:"release_year" validate:"omitempty,min=1900,max=2100"`
	GenreIDs    []string `json:"genre_ids" validate:"dive,uuid"`
}

func (req animeRequest) toInput() (CreateInput, error) {
	in := CreateInput{
		Title:       req.Title,
		Synopsis:    req.Synopsis,
		Status:      req.Status,
		ReleaseYear: req.ReleaseYear,
	}
	for _, raw := range req.GenreIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return CreateInput{}, shared.NewValidation("genre_ids must be uuids")
		}
		in.GenreIDs = append(in.GenreIDs, id)
	}
	return in, nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := shared.PageRequest(r)
	filter := ListFilter{
		Search:  q.Get("search"),
		Status:  q.Get("status"),
		SortBy:  q.Get("sort_by"),
		SortDir: q.Get("sort_dir"),
		Page:    page,
		PerPage: perPage,
	}
	items, pagination, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list animes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"animes": items, "pagination": pagination})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"anime": a})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	a, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("anime created", slog.String("anime_id", a.ID.String()))
	httpx.JSON(w, http.StatusCreated, map[string]any{"anime": a})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	a, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"anime": a})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (CreateInput, bool) {
	var req animeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return CreateInput{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return CreateInput{}, false
	}
	in, err := req.toInput()
	if err != nil {
		httpx.RespondError(w, err)
		return CreateInput{}, false
	}
	return in, true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such anime")
		return uuid.Nil, false
	}
	return id, true
}
