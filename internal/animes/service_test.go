package animes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

type fakeRepo struct {
	byID   map[uuid.UUID]Anime
	genres map[uuid.UUID][]uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[uuid.UUID]Anime{}, genres: map[uuid.UUID][]uuid.UUID{}}
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]Anime, int, error) {
	var out []Anime
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*Anime, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeRepo) Create(_ context.Context, a *Anime) error {
	f.byID[a.ID] = *a
	return nil
}

func (f *fakeRepo) Update(_ context.Context, a *Anime) error {
	f.byID[a.ID] = *a
	return nil
}

func (f *fakeRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) SetGenres(_ context.Context, animeID uuid.UUID, genreIDs []uuid.UUID) error {
	f.genres[animeID] = genreIDs
	return nil
}

func TestCreateAttachesGenres(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	genre := uuid.New()

	a, err := svc.Create(context.Background(), CreateInput{Title: "Cowboy Bebop", GenreIDs: []uuid.UUID{genre}})
	require.NoError(t, err)
	require.Equal(t, "Cowboy Bebop", a.Title)
	require.Equal(t, []uuid.UUID{genre}, repo.genres[a.ID])
}

func TestGetMissingAnime(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Get(context.Background(), uuid.New())
	require.True(t, shared.IsNotFound(err))
}

func TestUpdateOverwritesFields(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	a, err := svc.Create(context.Background(), CreateInput{Title: "Old"})
	require.NoError(t, err)

	year := 1998
	updated, err := svc.Update(context.Background(), a.ID, CreateInput{Title: "New", ReleaseYear: &year})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Title)
	require.Equal(t, 1998, *updated.ReleaseYear)
}

func TestDeleteHidesAnime(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	a, err := svc.Create(context.Background(), CreateInput{Title: "X"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), a.ID))
	_, err = svc.Get(context.Background(), a.ID)
	require.True(t, shared.IsNotFound(err))
}
