package contrib

import (
	"context"

	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
)

// EntityStore is the generic persistence collaborator the apply engine
// writes through. Field maps are keyed by column name; records returned
// by the find methods are keyed by payload field name plus "id". A
// missing record is a nil map, not an error.
type EntityStore interface {
	// FindByID loads one record, or nil when absent (soft-deleted rows
	// count as absent).
	FindByID(ctx context.Context, desc registry.Descriptor, id string) (map[string]any, error)

	// FindByIDs loads a batch of records keyed by id in a single query.
	// Absent ids are simply missing from the result map.
	FindByIDs(ctx context.Context, desc registry.Descriptor, ids []string) (map[string]map[string]any, error)

	// Insert creates a record under the caller-chosen id.
	Insert(ctx context.Context, desc registry.Descriptor, id string, fields map[string]any) error

	// Update overwrites the given columns of an existing record.
	Update(ctx context.Context, desc registry.Descriptor, id string, fields map[string]any) error

	// Delete removes a record: soft when the descriptor supports soft
	// deletion, hard otherwise.
	Delete(ctx context.Context, desc registry.Descriptor, id string) error

	// RelatedIDs lists the ids currently attached to a relation.
	RelatedIDs(ctx context.Context, desc registry.Descriptor, rel registry.Relation, ownerID string) ([]string, error)

	// SetRelation replaces a relation's member set. It links and unlinks
	// only; orphan deletion is the apply engine's decision.
	SetRelation(ctx context.Context, desc registry.Descriptor, rel registry.Relation, ownerID string, ids []string) error
}
