package genres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

// Service handles genre business logic.
type Service struct {
	repo  RepositoryPort
	caser cases.Caser
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, caser: cases.Title(language.English)}
}

// CanonicalName normalizes a genre name: trimmed, single-spaced, title
// case. "slice  of life" and "Slice of Life" are the same genre.
func (s *Service) CanonicalName(name string) string {
	return s.caser.String(strings.Join(strings.Fields(name), " "))
}

// List returns a page of genres.
func (s *Service) List(ctx context.Context, search string, page, perPage int) ([]Genre, shared.Pagination, error) {
	pagination := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.List(ctx, search, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Get loads one genre.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Genre, error) {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, shared.NewNotFound("genre", id.String())
	}
	return g, nil
}

// Create inserts a genre under its canonical name.
func (s *Service) Create(ctx context.Context, name string) (*Genre, error) {
	g := &Genre{ID: uuid.New(), Name: s.CanonicalName(name)}
	if g.Name == "" {
		return nil, shared.NewValidation("genre name must not be empty")
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Update renames a genre, canonicalizing the new name.
func (s *Service) Update(ctx context.Context, id uuid.UUID, name string) (*Genre, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Name = s.CanonicalName(name)
	if g.Name == "" {
		return nil, shared.NewValidation("genre name must not be empty")
	}
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Delete removes a genre.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
