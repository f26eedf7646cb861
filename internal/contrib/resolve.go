package contrib

import (
	"context"

	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
)

// ResolveForResponse hydrates the relation references in a stored
// payload so API responses show live related-entity data layered under
// any edits the contribution itself proposes. Stored partial fields
// override fetched fields. The input map is not mutated; references to
// records that no longer exist are rendered as stored. Display-only.
func (a *Applier) ResolveForResponse(ctx context.Context, target registry.EntityType, data map[string]any) (map[string]any, error) {
	desc, err := a.reg.Get(target)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(data))
	for key, value := range data {
		out[key] = value
	}

	for _, rel := range a.reg.ContributableRelations(desc.Type) {
		value, present := data[rel.Name]
		if !present || value == nil {
			continue
		}
		items, err := normalizeItems(rel, value)
		if err != nil {
			return nil, err
		}

		targetDesc, err := a.reg.Get(rel.Target)
		if err != nil {
			return nil, err
		}
		var ids []string
		for _, item := range items {
			if id, ok := payloadID(item); ok {
				ids = append(ids, id)
			}
		}
		fetched, err := a.store.FindByIDs(ctx, targetDesc, ids)
		if err != nil {
			return nil, err
		}

		resolved := make([]any, 0, len(items))
		for _, item := range items {
			id, ok := payloadID(item)
			if !ok {
				resolved = append(resolved, item)
				continue
			}
			record, ok := fetched[id]
			if !ok {
				resolved = append(resolved, item)
				continue
			}
			merged := make(map[string]any, len(record)+len(item))
			for k, v := range record {
				merged[k] = v
			}
			for k, v := range item {
				merged[k] = v
			}
			merged, err = a.ResolveForResponse(ctx, rel.Target, merged)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, merged)
		}

		if rel.Single() {
			if len(resolved) == 0 {
				out[rel.Name] = nil
			} else {
				out[rel.Name] = resolved[0]
			}
		} else {
			out[rel.Name] = resolved
		}
	}

	return out, nil
}
