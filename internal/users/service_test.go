package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

type fakeRepo struct {
	byID map[uuid.UUID]User
}

func (f *fakeRepo) List(_ context.Context, limit, offset int) ([]User, int, error) {
	var out []User
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeRepo) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	u := f.byID[id]
	u.Name = name
	f.byID[id] = u
	return nil
}

func seedUser(repo *fakeRepo) User {
	u := User{ID: uuid.New(), Email: "mio@example.com", Name: "Mio", Role: "user", IsActive: true}
	repo.byID[u.ID] = u
	return u
}

func TestProfileOwnIncludesEmail(t *testing.T) {
	repo := &fakeRepo{byID: map[uuid.UUID]User{}}
	u := seedUser(repo)
	svc := NewService(repo)

	profile, err := svc.Profile(context.Background(), shared.Identity{UserID: u.ID, Role: "user"}, u.ID)
	require.NoError(t, err)
	require.Equal(t, "mio@example.com", profile["email"])
	require.Equal(t, "Mio", profile["name"])
}

func TestProfileOtherUserRedactsEmail(t *testing.T) {
	repo := &fakeRepo{byID: map[uuid.UUID]User{}}
	u := seedUser(repo)
	svc := NewService(repo)

	profile, err := svc.Profile(context.Background(), shared.Identity{UserID: uuid.New(), Role: "user"}, u.ID)
	require.NoError(t, err)
	require.NotContains(t, profile, "email")
	require.NotContains(t, profile, "is_active")
	require.Equal(t, "Mio", profile["name"])
}

func TestProfileModeratorSeesEverything(t *testing.T) {
	repo := &fakeRepo{byID: map[uuid.UUID]User{}}
	u := seedUser(repo)
	svc := NewService(repo)

	profile, err := svc.Profile(context.Background(), shared.Identity{UserID: uuid.New(), Role: "moderator"}, u.ID)
	require.NoError(t, err)
	require.Equal(t, "mio@example.com", profile["email"])
}

func TestProfileMissingUser(t *testing.T) {
	repo := &fakeRepo{byID: map[uuid.UUID]User{}}
	svc := NewService(repo)

	_, err := svc.Profile(context.Background(), shared.Identity{UserID: uuid.New(), Role: "user"}, uuid.New())
	require.True(t, shared.IsNotFound(err))
}

func TestUpdateNameOwnerOnly(t *testing.T) {
	repo := &fakeRepo{byID: map[uuid.UUID]User{}}
	u := seedUser(repo)
	svc := NewService(repo)

	err := svc.UpdateName(context.Background(), shared.Identity{UserID: uuid.New(), Role: "user"}, u.ID, "Eve")
	require.True(t, shared.IsForbidden(err))

	err = svc.UpdateName(context.Background(), shared.Identity{UserID: u.ID, Role: "user"}, u.ID, "Mio K.")
	require.NoError(t, err)
	require.Equal(t, "Mio K.", repo.byID[u.ID].Name)
}
