package contrib

import (
	"sort"

	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
)

// SchemaFor renders a JSON-Schema-shaped description of the payload a
// contribution targeting the type may carry, built purely from registry
// metadata. Relations recurse into their target types; a type revisited
// along the recursion path collapses to a bare id-reference stub so
// cyclic graphs stay finite.
func SchemaFor(reg *registry.Registry, target registry.EntityType) (map[string]any, error) {
	desc, err := reg.Get(target)
	if err != nil {
		return nil, err
	}
	return schemaForType(reg, desc, map[registry.EntityType]bool{}), nil
}

func schemaForType(reg *registry.Registry, desc registry.Descriptor, visiting map[registry.EntityType]bool) map[string]any {
	visiting[desc.Type] = true
	defer delete(visiting, desc.Type)

	properties := map[string]any{
		"id": map[string]any{"type": "string", "format": "uuid"},
	}

	names := make([]string, 0, len(desc.Fields))
	for name := range desc.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		properties[name] = fieldSchema(desc.Fields[name])
	}

	for _, rel := range reg.ContributableRelations(desc.Type) {
		var item map[string]any
		if visiting[rel.Target] {
			item = referenceStub()
		} else {
			childDesc, err := reg.Get(rel.Target)
			if err != nil {
				item = referenceStub()
			} else {
				item = schemaForType(reg, childDesc, visiting)
			}
		}
		if rel.Single() {
			properties[rel.Name] = item
		} else {
			properties[rel.Name] = map[string]any{"type": "array", "items": item}
		}
	}

	return map[string]any{
		"type":       "object",
		"title":      string(desc.Type),
		"properties": properties,
	}
}

func fieldSchema(spec registry.FieldSpec) map[string]any {
	schema := map[string]any{}
	switch spec.Kind {
	case registry.KindString:
		schema["type"] = "string"
	case registry.KindInteger:
		schema["type"] = "integer"
	case registry.KindNumber:
		schema["type"] = "number"
	case registry.KindBoolean:
		schema["type"] = "boolean"
	case registry.KindDate:
		schema["type"] = "string"
		schema["format"] = "date-time"
	case registry.KindUUID:
		schema["type"] = "string"
		schema["format"] = "uuid"
	}
	if spec.MaxLength > 0 {
		schema["maxLength"] = spec.MaxLength
	}
	if spec.Min != nil {
		schema["minimum"] = *spec.Min
	}
	if spec.Max != nil {
		schema["maximum"] = *spec.Max
	}
	if len(spec.Enum) > 0 {
		schema["enum"] = spec.Enum
	}
	if spec.Nullable {
		schema["nullable"] = true
	}
	return schema
}

// referenceStub is the schema of a relation item once its type has
// already been expanded higher up the recursion path.
func referenceStub() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]any{"type": "string", "format": "uuid"},
		},
	}
}
