package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryLookups(t *testing.T) {
	reg := Default()

	require.True(t, reg.IsRegistered(TypeAnime))
	require.False(t, reg.IsRegistered("user"))

	desc, err := reg.Get(TypeAnime)
	require.NoError(t, err)
	require.Equal(t, "animes", desc.Table)
	require.True(t, desc.SoftDelete)

	_, err = reg.Get("manga")
	require.ErrorContains(t, err, "unknown entity type")

	typ, ok := reg.ForTable("genres")
	require.True(t, ok)
	require.Equal(t, TypeGenre, typ)

	_, ok = reg.ForTable("users")
	require.False(t, ok)
}

func TestContributableRelationsFilterUnregisteredTargets(t *testing.T) {
	reg := MustNew(
		Descriptor{
			Type:  TypeAnime,
			Table: "animes",
			Relations: []Relation{
				{Name: "genres", Target: TypeGenre, Kind: ManyToMany, Ownership: Shared},
				{Name: "owner", Target: "user", Kind: ManyToOne, Ownership: Shared},
			},
		},
		Descriptor{Type: TypeGenre, Table: "genres"},
	)

	rels := reg.ContributableRelations(TypeAnime)
	require.Len(t, rels, 1)
	require.Equal(t, "genres", rels[0].Name)
}

func TestRelationLookupAndMultiplicity(t *testing.T) {
	reg := Default()
	desc, err := reg.Get(TypeAnime)
	require.NoError(t, err)

	rel, ok := desc.Relation("episodes")
	require.True(t, ok)
	require.Equal(t, OneToMany, rel.Kind)
	require.Equal(t, Owned, rel.Ownership)
	require.False(t, rel.Single())

	_, ok = desc.Relation("studios")
	require.False(t, ok)
}

func TestNewRejectsDuplicateTypes(t *testing.T) {
	_, err := New(
		Descriptor{Type: TypeGenre, Table: "genres"},
		Descriptor{Type: TypeGenre, Table: "genres2"},
	)
	require.ErrorContains(t, err, "duplicate entity type")
}
