package genres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

type fakeRepo struct {
	byID map[uuid.UUID]Genre
}

func (f *fakeRepo) List(_ context.Context, search string, limit, offset int) ([]Genre, int, error) {
	var out []Genre
	for _, g := range f.byID {
		out = append(out, g)
	}
	return out, len(out), nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*Genre, error) {
	g, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (f *fakeRepo) Create(_ context.Context, g *Genre) error {
	for _, existing := range f.byID {
		if existing.Name == g.Name {
			return shared.NewConflict(shared.CodeDuplicate, "a genre with this name already exists")
		}
	}
	f.byID[g.ID] = *g
	return nil
}

func (f *fakeRepo) Update(_ context.Context, g *Genre) error {
	f.byID[g.ID] = *g
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func TestCanonicalName(t *testing.T) {
	svc := NewService(&fakeRepo{byID: map[uuid.UUID]Genre{}})

	require.Equal(t, "Slice Of Life", svc.CanonicalName("  slice   of life "))
	require.Equal(t, "Action", svc.CanonicalName("ACTION"))
	require.Equal(t, "", svc.CanonicalName("   "))
}

func TestCreateCanonicalizesAndDetectsDuplicates(t *testing.T) {
	repo := &fakeRepo{byID: map[uuid.UUID]Genre{}}
	svc := NewService(repo)

	g, err := svc.Create(context.Background(), "slice of life")
	require.NoError(t, err)
	require.Equal(t, "Slice Of Life", g.Name)

	_, err = svc.Create(context.Background(), "SLICE OF LIFE")
	code, ok := shared.ConflictCode(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeDuplicate, code)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc := NewService(&fakeRepo{byID: map[uuid.UUID]Genre{}})

	_, err := svc.Create(context.Background(), "   ")
	require.True(t, shared.IsValidation(err))
}

func TestUpdateMissingGenre(t *testing.T) {
	svc := NewService(&fakeRepo{byID: map[uuid.UUID]Genre{}})

	_, err := svc.Update(context.Background(), uuid.New(), "Drama")
	require.True(t, shared.IsNotFound(err))
}

func TestDeleteRemovesGenre(t *testing.T) {
	repo := &fakeRepo{byID: map[uuid.UUID]Genre{}}
	svc := NewService(repo)
	g, err := svc.Create(context.Background(), "Horror")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), g.ID))
	require.NotContains(t, repo.byID, g.ID)
}
