package contrib

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

// memStore is an in-memory EntityStore for exercising the apply engine
// without a database. Records are held column-keyed like the real
// store's tables; links are kept per owner and relation name.
type memStore struct {
	records map[registry.EntityType]map[string]map[string]any
	links   map[string][]string
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{
		records: map[registry.EntityType]map[string]map[string]any{},
		links:   map[string][]string{},
	}
}

func (m *memStore) seed(t registry.EntityType, id string, cols map[string]any) {
	if m.records[t] == nil {
		m.records[t] = map[string]map[string]any{}
	}
	m.records[t][id] = cols
}

func (m *memStore) link(t registry.EntityType, rel, ownerID string, ids ...string) {
	m.links[linkKey(t, rel, ownerID)] = ids
}

func linkKey(t registry.EntityType, rel, ownerID string) string {
	return string(t) + "/" + rel + "/" + ownerID
}

func (m *memStore) FindByID(_ context.Context, desc registry.Descriptor, id string) (map[string]any, error) {
	cols, ok := m.records[desc.Type][id]
	if !ok {
		return nil, nil
	}
	return toRecord(desc, id, cols), nil
}

func (m *memStore) FindByIDs(_ context.Context, desc registry.Descriptor, ids []string) (map[string]map[string]any, error) {
	out := map[string]map[string]any{}
	for _, id := range ids {
		if cols, ok := m.records[desc.Type][id]; ok {
			out[id] = toRecord(desc, id, cols)
		}
	}
	return out, nil
}

func (m *memStore) Insert(_ context.Context, desc registry.Descriptor, id string, fields map[string]any) error {
	if m.records[desc.Type] == nil {
		m.records[desc.Type] = map[string]map[string]any{}
	}
	cols := make(map[string]any, len(fields))
	for k, v := range fields {
		cols[k] = v
	}
	m.records[desc.Type][id] = cols
	return nil
}

func (m *memStore) Update(_ context.Context, desc registry.Descriptor, id string, fields map[string]any) error {
	cols, ok := m.records[desc.Type][id]
	if !ok {
		return shared.NewNotFound(string(desc.Type), id)
	}
	for k, v := range fields {
		cols[k] = v
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, desc registry.Descriptor, id string) error {
	delete(m.records[desc.Type], id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memStore) RelatedIDs(_ context.Context, desc registry.Descriptor, rel registry.Relation, ownerID string) ([]string, error) {
	return m.links[linkKey(desc.Type, rel.Name, ownerID)], nil
}

func (m *memStore) SetRelation(_ context.Context, desc registry.Descriptor, rel registry.Relation, ownerID string, ids []string) error {
	m.links[linkKey(desc.Type, rel.Name, ownerID)] = ids
	return nil
}

func toRecord(desc registry.Descriptor, id string, cols map[string]any) map[string]any {
	record := map[string]any{"id": id}
	for name, spec := range desc.Fields {
		if v, ok := cols[spec.Column]; ok {
			record[name] = v
		}
	}
	return record
}

func TestApplyCreatesEntityWithNestedRelations(t *testing.T) {
	store := newMemStore()
	actionGenre := uuid.NewString()
	store.seed(registry.TypeGenre, actionGenre, map[string]any{"name": "Action"})

	applier := NewApplier(registry.Default(), store)
	id, err := applier.Apply(context.Background(), registry.TypeAnime, map[string]any{
		"title":       "Steins;Gate",
		"releaseYear": 2011,
		"genres": []any{
			map[string]any{"id": actionGenre},
			map[string]any{"name": "Sci-Fi"},
		},
		"episodes": []any{
			map[string]any{"number": 1, "title": "Turning Point"},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	anime := store.records[registry.TypeAnime][id]
	require.Equal(t, "Steins;Gate", anime["title"])
	require.Equal(t, 2011, anime["release_year"])

	linked := store.links[linkKey(registry.TypeAnime, "genres", id)]
	require.Len(t, linked, 2)
	require.Contains(t, linked, actionGenre)

	require.Len(t, store.records[registry.TypeGenre], 2)

	episodes := store.links[linkKey(registry.TypeAnime, "episodes", id)]
	require.Len(t, episodes, 1)
	episode := store.records[registry.TypeEpisode][episodes[0]]
	require.Equal(t, 1, episode["number"])
}

func TestApplyUpdatesExistingEntity(t *testing.T) {
	store := newMemStore()
	animeID := uuid.NewString()
	store.seed(registry.TypeAnime, animeID, map[string]any{"title": "Old Title"})

	applier := NewApplier(registry.Default(), store)
	id, err := applier.Apply(context.Background(), registry.TypeAnime, map[string]any{
		"id":    animeID,
		"title": "New Title",
	})
	require.NoError(t, err)
	require.Equal(t, animeID, id)
	require.Equal(t, "New Title", store.records[registry.TypeAnime][animeID]["title"])
}

func TestApplyDeletesOwnedOrphans(t *testing.T) {
	store := newMemStore()
	animeID := uuid.NewString()
	keptEp := uuid.NewString()
	removedEp := uuid.NewString()
	store.seed(registry.TypeAnime, animeID, map[string]any{"title": "X"})
	store.seed(registry.TypeEpisode, keptEp, map[string]any{"number": 1})
	store.seed(registry.TypeEpisode, removedEp, map[string]any{"number": 2})
	store.link(registry.TypeAnime, "episodes", animeID, keptEp, removedEp)

	applier := NewApplier(registry.Default(), store)
	_, err := applier.Apply(context.Background(), registry.TypeAnime, map[string]any{
		"id": animeID,
		"episodes": []any{
			map[string]any{"id": keptEp},
		},
	})
	require.NoError(t, err)
	require.Contains(t, store.deleted, removedEp)
	require.NotContains(t, store.deleted, keptEp)
	require.Equal(t, []string{keptEp}, store.links[linkKey(registry.TypeAnime, "episodes", animeID)])
}

func TestApplyUnlinksSharedWithoutDeleting(t *testing.T) {
	store := newMemStore()
	animeID := uuid.NewString()
	kept := uuid.NewString()
	removed := uuid.NewString()
	store.seed(registry.TypeAnime, animeID, map[string]any{"title": "X"})
	store.seed(registry.TypeGenre, kept, map[string]any{"name": "Drama"})
	store.seed(registry.TypeGenre, removed, map[string]any{"name": "Horror"})
	store.link(registry.TypeAnime, "genres", animeID, kept, removed)

	applier := NewApplier(registry.Default(), store)
	_, err := applier.Apply(context.Background(), registry.TypeAnime, map[string]any{
		"id": animeID,
		"genres": []any{
			map[string]any{"id": kept},
		},
	})
	require.NoError(t, err)
	require.Empty(t, store.deleted)
	require.Contains(t, store.records[registry.TypeGenre], removed)
	require.Equal(t, []string{kept}, store.links[linkKey(registry.TypeAnime, "genres", animeID)])
}

func TestApplyRejectsMissingReference(t *testing.T) {
	store := newMemStore()
	applier := NewApplier(registry.Default(), store)
	_, err := applier.Apply(context.Background(), registry.TypeAnime, map[string]any{
		"title": "X",
		"genres": []any{
			map[string]any{"id": uuid.NewString()},
		},
	})
	require.Error(t, err)
	require.True(t, shared.IsNotFound(err))
}

func TestApplyIgnoresUnknownKeys(t *testing.T) {
	store := newMemStore()
	applier := NewApplier(registry.Default(), store)
	id, err := applier.Apply(context.Background(), registry.TypeGenre, map[string]any{
		"name":       "Romance",
		"popularity": 99,
	})
	require.NoError(t, err)
	cols := store.records[registry.TypeGenre][id]
	require.Equal(t, "Romance", cols["name"])
	require.NotContains(t, cols, "popularity")
}

func TestApplyRejectsMalformedRelationValue(t *testing.T) {
	store := newMemStore()
	applier := NewApplier(registry.Default(), store)
	_, err := applier.Apply(context.Background(), registry.TypeAnime, map[string]any{
		"title":  "X",
		"genres": []any{"not-an-object"},
	})
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}

func TestApplyUnknownIDCreatesUnderThatID(t *testing.T) {
	store := newMemStore()
	applier := NewApplier(registry.Default(), store)
	chosen := uuid.NewString()
	id, err := applier.Apply(context.Background(), registry.TypeGenre, map[string]any{
		"id":   chosen,
		"name": "Mystery",
	})
	require.NoError(t, err)
	require.Equal(t, chosen, id)
	require.Contains(t, store.records[registry.TypeGenre], chosen)
}

func TestResolveForResponseMergesLiveData(t *testing.T) {
	store := newMemStore()
	genreID := uuid.NewString()
	store.seed(registry.TypeGenre, genreID, map[string]any{"name": "Action"})

	applier := NewApplier(registry.Default(), store)
	resolved, err := applier.ResolveForResponse(context.Background(), registry.TypeAnime, map[string]any{
		"title": "X",
		"genres": []any{
			map[string]any{"id": genreID},
			map[string]any{"name": "Brand New"},
		},
	})
	require.NoError(t, err)

	genres, ok := resolved["genres"].([]any)
	require.True(t, ok)
	require.Len(t, genres, 2)

	first := genres[0].(map[string]any)
	require.Equal(t, "Action", first["name"])

	second := genres[1].(map[string]any)
	require.Equal(t, "Brand New", second["name"])
}

func TestResolveForResponseStoredFieldsWin(t *testing.T) {
	store := newMemStore()
	genreID := uuid.NewString()
	store.seed(registry.TypeGenre, genreID, map[string]any{"name": "Action"})

	applier := NewApplier(registry.Default(), store)
	resolved, err := applier.ResolveForResponse(context.Background(), registry.TypeAnime, map[string]any{
		"genres": []any{
			map[string]any{"id": genreID, "name": "Renamed"},
		},
	})
	require.NoError(t, err)
	genres := resolved["genres"].([]any)
	require.Equal(t, "Renamed", genres[0].(map[string]any)["name"])
}
