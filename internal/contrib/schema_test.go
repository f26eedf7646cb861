package contrib

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
)

func TestSchemaForAnime(t *testing.T) {
	schema, err := SchemaFor(registry.Default(), registry.TypeAnime)
	require.NoError(t, err)
	require.Equal(t, "object", schema["type"])

	props := schema["properties"].(map[string]any)

	title := props["title"].(map[string]any)
	require.Equal(t, "string", title["type"])
	require.Equal(t, 255, title["maxLength"])

	status := props["status"].(map[string]any)
	require.Equal(t, []string{"announced", "airing", "finished"}, status["enum"])
	require.Equal(t, true, status["nullable"])

	year := props["releaseYear"].(map[string]any)
	require.Equal(t, "integer", year["type"])
	require.Equal(t, float64(1900), year["minimum"])
	require.Equal(t, float64(2100), year["maximum"])

	genres := props["genres"].(map[string]any)
	require.Equal(t, "array", genres["type"])
	genreItem := genres["items"].(map[string]any)
	genreProps := genreItem["properties"].(map[string]any)
	require.Contains(t, genreProps, "name")

	episodes := props["episodes"].(map[string]any)
	episodeItem := episodes["items"].(map[string]any)
	episodeProps := episodeItem["properties"].(map[string]any)
	number := episodeProps["number"].(map[string]any)
	require.Equal(t, float64(1), number["minimum"])
}

func TestSchemaForUnknownType(t *testing.T) {
	_, err := SchemaFor(registry.Default(), registry.EntityType("studio"))
	require.Error(t, err)
}

func TestSchemaForCollapsesCycles(t *testing.T) {
	reg := registry.MustNew(
		registry.Descriptor{
			Type:  registry.EntityType("author"),
			Table: "authors",
			Fields: map[string]registry.FieldSpec{
				"name": {Column: "name", Kind: registry.KindString},
			},
			Relations: []registry.Relation{
				{
					Name:             "books",
					Target:           registry.EntityType("book"),
					Kind:             registry.OneToMany,
					Ownership:        registry.Owned,
					ForeignKeyColumn: "author_id",
				},
			},
		},
		registry.Descriptor{
			Type:  registry.EntityType("book"),
			Table: "books",
			Fields: map[string]registry.FieldSpec{
				"title": {Column: "title", Kind: registry.KindString},
			},
			Relations: []registry.Relation{
				{
					Name:             "author",
					Target:           registry.EntityType("author"),
					Kind:             registry.ManyToOne,
					Ownership:        registry.Shared,
					ForeignKeyColumn: "author_id",
				},
			},
		},
	)

	schema, err := SchemaFor(reg, registry.EntityType("author"))
	require.NoError(t, err)

	props := schema["properties"].(map[string]any)
	books := props["books"].(map[string]any)
	bookItem := books["items"].(map[string]any)
	bookProps := bookItem["properties"].(map[string]any)

	// The author relation inside a book points back up the recursion
	// path, so it collapses to a bare id reference.
	author := bookProps["author"].(map[string]any)
	authorProps := author["properties"].(map[string]any)
	require.Contains(t, authorProps, "id")
	require.NotContains(t, authorProps, "name")
	require.NotContains(t, authorProps, "books")
}
