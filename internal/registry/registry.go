// Package registry maps entity type tags to their persisted record
// descriptors and declares which fields and relations are eligible to
// appear in contribution payloads. Registration is a static table built
// at startup; nothing is discovered by reflection.
package registry

import (
	"fmt"
	"sort"
)

// EntityType is a closed enumeration of contributable record types.
type EntityType string

// Registered entity types.
const (
	TypeAnime   EntityType = "anime"
	TypeGenre   EntityType = "genre"
	TypeEpisode EntityType = "episode"
)

// FieldKind enumerates primitive field types for schema generation.
type FieldKind string

// Field kinds.
const (
	KindString  FieldKind = "string"
	KindInteger FieldKind = "integer"
	KindNumber  FieldKind = "number"
	KindBoolean FieldKind = "boolean"
	KindDate    FieldKind = "date"
	KindUUID    FieldKind = "uuid"
)

// RelationKind enumerates relation multiplicities.
type RelationKind string

// Relation kinds.
const (
	OneToMany  RelationKind = "one-to-many"
	ManyToMany RelationKind = "many-to-many"
	ManyToOne  RelationKind = "many-to-one"
)

// Ownership declares the orphan policy of a relation explicitly rather
// than inferring it from cardinality: members removed from an owned
// relation are deleted, members removed from a shared relation are only
// unlinked.
type Ownership string

// Ownership values.
const (
	Owned  Ownership = "owned"
	Shared Ownership = "shared"
)

// FieldSpec describes one contributable scalar field.
type FieldSpec struct {
	Column    string
	Kind      FieldKind
	MaxLength int
	Min       *float64
	Max       *float64
	Enum      []string
	Nullable  bool
}

// Relation describes one contributable relation and its storage mapping.
type Relation struct {
	Name      string
	Target    EntityType
	Kind      RelationKind
	Ownership Ownership

	// Many-to-many storage mapping.
	JoinTable        string
	JoinLocalColumn  string
	JoinTargetColumn string

	// OneToMany: column on the child table pointing at the owner.
	// ManyToOne: column on this table pointing at the target.
	ForeignKeyColumn string
}

// Single reports whether the relation holds at most one target record.
func (r Relation) Single() bool {
	return r.Kind == ManyToOne
}

// Descriptor describes a persisted record type: its table, soft-delete
// capability, and the contributable fields and relations.
type Descriptor struct {
	Type       EntityType
	Table      string
	SoftDelete bool
	Fields     map[string]FieldSpec
	Relations  []Relation
}

// Relation looks up a contributable relation by payload name.
func (d Descriptor) Relation(name string) (Relation, bool) {
	for _, rel := range d.Relations {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relation{}, false
}

// Registry holds the descriptor table.
type Registry struct {
	byType map[EntityType]Descriptor
}

// New builds a registry from descriptors. Duplicate types are a
// configuration error.
func New(descriptors ...Descriptor) (*Registry, error) {
	reg := &Registry{byType: make(map[EntityType]Descriptor, len(descriptors))}
	for _, desc := range descriptors {
		if _, ok := reg.byType[desc.Type]; ok {
			return nil, fmt.Errorf("registry: duplicate entity type %q", desc.Type)
		}
		reg.byType[desc.Type] = desc
	}
	return reg, nil
}

// MustNew is New for static tables known to be valid.
func MustNew(descriptors ...Descriptor) *Registry {
	reg, err := New(descriptors...)
	if err != nil {
		panic(err)
	}
	return reg
}

// IsRegistered reports whether the type tag is known.
func (r *Registry) IsRegistered(t EntityType) bool {
	_, ok := r.byType[t]
	return ok
}

// Get returns the descriptor for a type. Unknown types are a programming
// error: the tag is a closed enum validated before any lookup.
func (r *Registry) Get(t EntityType) (Descriptor, error) {
	desc, ok := r.byType[t]
	if !ok {
		return Descriptor{}, fmt.Errorf("registry: unknown entity type %q", t)
	}
	return desc, nil
}

// ForTable is the reverse lookup. It returns false rather than an error
// because it is used speculatively while walking relations that may
// point outside the registry.
func (r *Registry) ForTable(table string) (EntityType, bool) {
	for t, desc := range r.byType {
		if desc.Table == table {
			return t, true
		}
	}
	return "", false
}

// ContributableRelations returns the relations of a type whose targets
// are themselves registered. Only these are treated as sub-entity graphs
// by the apply engine; anything else in a payload is an opaque value.
func (r *Registry) ContributableRelations(t EntityType) []Relation {
	desc, ok := r.byType[t]
	if !ok {
		return nil
	}
	var rels []Relation
	for _, rel := range desc.Relations {
		if r.IsRegistered(rel.Target) {
			rels = append(rels, rel)
		}
	}
	return rels
}

// Types lists the registered type tags, sorted.
func (r *Registry) Types() []EntityType {
	types := make([]EntityType, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func floatPtr(v float64) *float64 { return &v }

// Default returns the registry shipped with HayaseDB.
func Default() *Registry {
	return MustNew(
		Descriptor{
			Type:       TypeAnime,
			Table:      "animes",
			SoftDelete: true,
			Fields: map[string]FieldSpec{
				"title":       {Column: "title", Kind: KindString, MaxLength: 255},
				"synopsis":    {Column: "synopsis", Kind: KindString, Nullable: true},
				"status":      {Column: "status", Kind: KindString, Enum: []string{"announced", "airing", "finished"}, Nullable: true},
				"releaseYear": {Column: "release_year", Kind: KindInteger, Min: floatPtr(1900), Max: floatPtr(2100), Nullable: true},
			},
			Relations: []Relation{
				{
					Name:             "genres",
					Target:           TypeGenre,
					Kind:             ManyToMany,
					Ownership:        Shared,
					JoinTable:        "anime_genres",
					JoinLocalColumn:  "anime_id",
					JoinTargetColumn: "genre_id",
				},
				{
					Name:             "episodes",
					Target:           TypeEpisode,
					Kind:             OneToMany,
					Ownership:        Owned,
					ForeignKeyColumn: "anime_id",
				},
			},
		},
		Descriptor{
			Type:  TypeGenre,
			Table: "genres",
			Fields: map[string]FieldSpec{
				"name": {Column: "name", Kind: KindString, MaxLength: 100},
			},
		},
		Descriptor{
			Type:       TypeEpisode,
			Table:      "episodes",
			SoftDelete: true,
			Fields: map[string]FieldSpec{
				"number":  {Column: "number", Kind: KindInteger, Min: floatPtr(1)},
				"title":   {Column: "title", Kind: KindString, MaxLength: 255, Nullable: true},
				"airedAt": {Column: "aired_at", Kind: KindDate, Nullable: true},
			},
		},
	)
}
