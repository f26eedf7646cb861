package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/HayaseDB/hayasedb-sub000/internal/rbac"
	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

// Service handles user business logic and profile visibility.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	pagination := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.List(ctx, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(page, perPage, total), nil
}

// Profile returns a user rendered as a map with fields the actor may
// not view removed. Viewing your own profile requires the "own" scope;
// anyone else's requires "any".
func (s *Service) Profile(ctx context.Context, actor shared.Identity, id uuid.UUID) (map[string]any, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, shared.NewNotFound("user", id.String())
	}

	scope := rbac.VariantAny
	if actor.UserID == id {
		scope = rbac.VariantOwn
	}
	requirements := map[string]rbac.FieldPermission{
		"email":     rbac.MustParseFieldPermission("users@read:" + scope),
		"is_active": rbac.MustParseFieldPermission("users@read:" + scope),
	}

	data := map[string]any{
		"id":         u.ID,
		"name":       u.Name,
		"role":       u.Role,
		"email":      u.Email,
		"is_active":  u.IsActive,
		"created_at": u.CreatedAt,
	}
	return rbac.FilterFields(rbac.FieldGrants(rbac.Role(actor.Role)), data, requirements), nil
}

// UpdateName changes a user's display name. Only the user themselves may
// do this; route-level permissions gate the rest.
func (s *Service) UpdateName(ctx context.Context, actor shared.Identity, id uuid.UUID, name string) error {
	if actor.UserID != id {
		return shared.NewForbidden("profiles can only be edited by their owner")
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return shared.NewNotFound("user", id.String())
	}
	return s.repo.UpdateName(ctx, id, name)
}
