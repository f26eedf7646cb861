package contrib

import (
	"context"

	"github.com/google/uuid"

	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

// Applier realizes a contribution payload as create/update operations
// against persisted records, recursively for contributable relations.
// It reads and writes exclusively through an EntityStore, so the same
// code path runs inside a committed transaction (approval) and inside a
// transaction that is always rolled back (validation).
type Applier struct {
	reg   *registry.Registry
	store EntityStore
}

// NewApplier constructs an Applier.
func NewApplier(reg *registry.Registry, store EntityStore) *Applier {
	return &Applier{reg: reg, store: store}
}

// Apply realizes the payload against the target type and returns the id
// of the root record. A payload whose "id" matches an existing record is
// an update; anything else is a create. Keys that are not contributable
// fields or relations of the target type are ignored.
func (a *Applier) Apply(ctx context.Context, target registry.EntityType, data map[string]any) (string, error) {
	desc, err := a.reg.Get(target)
	if err != nil {
		return "", err
	}
	if id, ok := payloadID(data); ok {
		existing, err := a.store.FindByID(ctx, desc, id)
		if err != nil {
			return "", err
		}
		if existing != nil {
			return id, a.updateEntity(ctx, desc, id, data)
		}
	}
	return a.createEntity(ctx, desc, data)
}

// createEntity inserts a fresh record built from the contributable
// scalar fields present in data, then resolves and links relations.
func (a *Applier) createEntity(ctx context.Context, desc registry.Descriptor, data map[string]any) (string, error) {
	fields := a.scalarColumns(desc, data)

	id, ok := payloadID(data)
	if !ok {
		id = uuid.NewString()
	}

	// Many-to-one targets live as a column on this record, so they are
	// resolved before the insert.
	for _, rel := range a.reg.ContributableRelations(desc.Type) {
		if !rel.Single() {
			continue
		}
		value, present := data[rel.Name]
		if !present {
			continue
		}
		targetID, err := a.resolveSingle(ctx, rel, value)
		if err != nil {
			return "", err
		}
		fields[rel.ForeignKeyColumn] = targetID
	}

	if err := a.store.Insert(ctx, desc, id, fields); err != nil {
		return "", err
	}

	for _, rel := range a.reg.ContributableRelations(desc.Type) {
		if rel.Single() {
			continue
		}
		value, present := data[rel.Name]
		if !present {
			continue
		}
		ids, err := a.resolveRelation(ctx, rel, value)
		if err != nil {
			return "", err
		}
		if err := a.store.SetRelation(ctx, desc, rel, id, ids); err != nil {
			return "", err
		}
	}

	return id, nil
}

// updateEntity overwrites the scalar fields present in data and
// reconciles each contributable relation present in data against the
// currently attached set, deleting orphaned members of owned relations.
func (a *Applier) updateEntity(ctx context.Context, desc registry.Descriptor, id string, data map[string]any) error {
	existing, err := a.store.FindByID(ctx, desc, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return shared.NewNotFound(string(desc.Type), id)
	}

	fields := a.scalarColumns(desc, data)

	for _, rel := range a.reg.ContributableRelations(desc.Type) {
		value, present := data[rel.Name]
		if !present {
			continue
		}
		if rel.Single() {
			if value == nil {
				fields[rel.ForeignKeyColumn] = nil
				continue
			}
			targetID, err := a.resolveSingle(ctx, rel, value)
			if err != nil {
				return err
			}
			fields[rel.ForeignKeyColumn] = targetID
			continue
		}

		oldIDs, err := a.store.RelatedIDs(ctx, desc, rel, id)
		if err != nil {
			return err
		}

		var newIDs []string
		if value != nil {
			newIDs, err = a.resolveRelation(ctx, rel, value)
			if err != nil {
				return err
			}
		}

		// Members removed from an owned relation are orphans: the data
		// model treats owned children as belonging to this record, so
		// they are deleted, not merely unlinked.
		if rel.Ownership == registry.Owned {
			childDesc, err := a.reg.Get(rel.Target)
			if err != nil {
				return err
			}
			kept := make(map[string]struct{}, len(newIDs))
			for _, nid := range newIDs {
				kept[nid] = struct{}{}
			}
			for _, oid := range oldIDs {
				if _, ok := kept[oid]; !ok {
					if err := a.store.Delete(ctx, childDesc, oid); err != nil {
						return err
					}
				}
			}
		}

		if err := a.store.SetRelation(ctx, desc, rel, id, newIDs); err != nil {
			return err
		}
	}

	return a.store.Update(ctx, desc, id, fields)
}

// resolveRelation turns a relation value (object or array of objects)
// into the ids of its members. Objects carrying only an id are
// references and are batch-fetched in one query; an id plus other keys
// updates that record; no id creates a new one.
func (a *Applier) resolveRelation(ctx context.Context, rel registry.Relation, value any) ([]string, error) {
	items, err := normalizeItems(rel, value)
	if err != nil {
		return nil, err
	}

	targetDesc, err := a.reg.Get(rel.Target)
	if err != nil {
		return nil, err
	}

	var refs []string
	for _, item := range items {
		if id, ok := pureReference(item); ok {
			refs = append(refs, id)
		}
	}
	fetched, err := a.store.FindByIDs(ctx, targetDesc, refs)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if _, ok := fetched[ref]; !ok {
			return nil, shared.NewNotFound(string(rel.Target), ref)
		}
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id, ok := pureReference(item); ok {
			ids = append(ids, id)
			continue
		}
		if id, ok := payloadID(item); ok {
			if err := a.updateEntity(ctx, targetDesc, id, item); err != nil {
				return nil, err
			}
			ids = append(ids, id)
			continue
		}
		id, err := a.createEntity(ctx, targetDesc, item)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// resolveSingle collapses a many-to-one relation value to one id or nil.
func (a *Applier) resolveSingle(ctx context.Context, rel registry.Relation, value any) (any, error) {
	ids, err := a.resolveRelation(ctx, rel, value)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids[0], nil
}

// scalarColumns extracts the contributable scalar fields present in
// data, keyed by column name. Unknown and non-contributable keys are
// silently ignored.
func (a *Applier) scalarColumns(desc registry.Descriptor, data map[string]any) map[string]any {
	fields := make(map[string]any)
	for name, spec := range desc.Fields {
		if value, ok := data[name]; ok {
			fields[spec.Column] = value
		}
	}
	return fields
}

// payloadID extracts a non-empty string id from a payload object.
func payloadID(data map[string]any) (string, bool) {
	raw, ok := data["id"]
	if !ok {
		return "", false
	}
	id, ok := raw.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// pureReference reports whether the object consists of only an id key.
func pureReference(item map[string]any) (string, bool) {
	if len(item) != 1 {
		return "", false
	}
	return payloadID(item)
}

// normalizeItems coerces a relation value into a slice of objects.
func normalizeItems(rel registry.Relation, value any) ([]map[string]any, error) {
	var raw []any
	switch v := value.(type) {
	case []any:
		raw = v
	case map[string]any:
		raw = []any{v}
	default:
		return nil, shared.NewValidation("relation " + rel.Name + " must be an object or an array of objects")
	}
	items := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		item, ok := entry.(map[string]any)
		if !ok {
			return nil, shared.NewValidation("relation " + rel.Name + " items must be objects")
		}
		items = append(items, item)
	}
	return items, nil
}
