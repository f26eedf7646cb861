package animes

import (
	"context"

	"github.com/google/uuid"

	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

// CreateInput carries the fields of a new or updated anime.
type CreateInput struct {
	Title       string
	Synopsis    *string
	Status      *string
	ReleaseYear *int
	GenreIDs    []uuid.UUID
}

// Service handles anime business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns a page of animes.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Anime, shared.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Get loads one anime.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Anime, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, shared.NewNotFound("anime", id.String())
	}
	return a, nil
}

// Create inserts an anime and attaches its genres.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Anime, error) {
	a := &Anime{
		ID:          uuid.New(),
		Title:       in.Title,
		Synopsis:    in.Synopsis,
		Status:      in.Status,
		ReleaseYear: in.ReleaseYear,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := s.repo.SetGenres(ctx, a.ID, in.GenreIDs); err != nil {
		return nil, err
	}
	return s.Get(ctx, a.ID)
}

// Update overwrites an anime's fields and genre set.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in CreateInput) (*Anime, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Title = in.Title
	a.Synopsis = in.Synopsis
	a.Status = in.Status
	a.ReleaseYear = in.ReleaseYear
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	if err := s.repo.SetGenres(ctx, id, in.GenreIDs); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes an anime.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}
